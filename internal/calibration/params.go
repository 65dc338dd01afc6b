// Package calibration holds every heuristic table used by the training-load core
// in one versioned structure. Defaults are compiled in; a TOML file can override
// any subset of them.
package calibration

// DefaultVersion identifies the compiled-in tables. Files that override values
// should set their own version so reports stay attributable.
const DefaultVersion = "2026.1-default"

type Params struct {
	Version   string          `toml:"version"`
	Effort    EffortParams    `toml:"effort"`
	Load      LoadParams      `toml:"load"`
	Metrics   MetricsParams   `toml:"metrics"`
	Readiness ReadinessParams `toml:"readiness"`
	Guardrail GuardrailParams `toml:"guardrail"`
	Risk      RiskParams      `toml:"risk"`
}

// Band maps every input strictly below Below to Value.
type Band struct {
	Below float64 `toml:"below"`
	Value int     `toml:"value"`
}

// Bands is an ascending band table; inputs past the last step map to Above.
type Bands struct {
	Steps []Band `toml:"steps"`
	Above int    `toml:"above"`
}

func (b Bands) Lookup(x float64) int {
	for _, s := range b.Steps {
		if x < s.Below {
			return s.Value
		}
	}
	return b.Above
}

type DurationBonus struct {
	OverMinutes float64 `toml:"over_minutes"`
	Bonus       int     `toml:"bonus"`
}

type PaceZone struct {
	Name      string  `toml:"name"`
	OffsetSec float64 `toml:"offset_sec"`
	Effort    int     `toml:"effort"`
}

type PaceParams struct {
	TempoFraction   float64    `toml:"tempo_fraction"`
	Zones           []PaceZone `toml:"zones"`
	SlowerMarginSec float64    `toml:"slower_margin_sec"`
	SlowerEffort    int        `toml:"slower_effort"`
	TrailBonus      int        `toml:"trail_bonus"`
}

type EffortParams struct {
	HeartRate      Bands `toml:"heart_rate"`
	HRBonusMinBase int   `toml:"hr_bonus_min_base"`
	// HRDurationBonus is checked longest first; the first threshold exceeded wins.
	HRDurationBonus    []DurationBonus `toml:"hr_duration_bonus"`
	RelativeEffort     Bands           `toml:"relative_effort"`
	Pace               PaceParams      `toml:"pace"`
	SportDefaults      map[string]int  `toml:"sport_defaults"`
	FallbackDefault    int             `toml:"fallback_default"`
	LongSessionMinutes float64         `toml:"long_session_minutes"`
	LongSessionBonus   int             `toml:"long_session_bonus"`
}

type Coefficients struct {
	Systemic  float64 `toml:"systemic"`
	LowerBody float64 `toml:"lower_body"`
}

type LoadParams struct {
	// IntensityFactors is indexed by effort-1.
	IntensityFactors       []float64               `toml:"intensity_factors"`
	DefaultIntensityFactor float64                 `toml:"default_intensity_factor"`
	IntervalFactor         float64                 `toml:"interval_factor"`
	IntervalKeywords       []string                `toml:"interval_keywords"`
	Sports                 map[string]Coefficients `toml:"sports"`
	CoefficientCeiling     float64                 `toml:"coefficient_ceiling"`
	LegKeywords            []string                `toml:"leg_keywords"`
	UpperBodyKeywords      []string                `toml:"upper_body_keywords"`
	LegBonus               float64                 `toml:"leg_bonus"`
	UpperBodyPenalty       float64                 `toml:"upper_body_penalty"`
	UpperBodyFloor         float64                 `toml:"upper_body_floor"`
	ElevationPerKm         float64                 `toml:"elevation_per_km"`
	ElevationSystemic      float64                 `toml:"elevation_systemic"`
	ElevationLowerBody     float64                 `toml:"elevation_lower_body"`
	LongDurationMinutes    float64                 `toml:"long_duration_minutes"`
	LongDurationSystemic   float64                 `toml:"long_duration_systemic"`
	RaceSystemic           float64                 `toml:"race_systemic"`
	EasyMaxEffort          int                     `toml:"easy_max_effort"`
	ModerateMaxEffort      int                     `toml:"moderate_max_effort"`
	QualityMaxEffort       int                     `toml:"quality_max_effort"`
}

type ZoneBound struct {
	Below float64 `toml:"below"`
	Name  string  `toml:"name"`
}

type Range struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
}

func (r Range) Contains(x float64) bool { return x >= r.Min && x <= r.Max }

type MetricsParams struct {
	CTLAlpha           float64     `toml:"ctl_alpha"`
	ATLAlpha           float64     `toml:"atl_alpha"`
	ColdStartDays      int         `toml:"cold_start_days"`
	AcuteDays          int         `toml:"acute_days"`
	ChronicDays        int         `toml:"chronic_days"`
	BaselineWindowDays int         `toml:"baseline_window_days"`
	BaselineMinDays    int         `toml:"baseline_min_days"`
	CTLZones           []ZoneBound `toml:"ctl_zones"`
	CTLTopZone         string      `toml:"ctl_top_zone"`
	TSBZones           []ZoneBound `toml:"tsb_zones"`
	TSBTopZone         string      `toml:"tsb_top_zone"`
	ACWRUndertrained   float64     `toml:"acwr_undertrained"`
	ACWRSafeMax        float64     `toml:"acwr_safe_max"`
	ACWRCautionMax     float64     `toml:"acwr_caution_max"`
	SanityCTL          Range       `toml:"sanity_ctl"`
	SanityATL          Range       `toml:"sanity_atl"`
	SanityTSB          Range       `toml:"sanity_tsb"`
	SanityACWR         Range       `toml:"sanity_acwr"`
}

type Weights struct {
	TSB      float64 `toml:"tsb"`
	Trend    float64 `toml:"trend"`
	Sleep    float64 `toml:"sleep"`
	Wellness float64 `toml:"wellness"`
}

type ReadinessParams struct {
	TSBOffset         float64  `toml:"tsb_offset"`
	TSBScale          float64  `toml:"tsb_scale"`
	TrendShortDays    int      `toml:"trend_short_days"`
	TrendLongDays     int      `toml:"trend_long_days"`
	TrendMinDays      int      `toml:"trend_min_days"`
	TrendNeutral      float64  `toml:"trend_neutral"`
	WithSubjective    Weights  `toml:"with_subjective"`
	WithoutSubjective Weights  `toml:"without_subjective"`
	InjuryCap         float64  `toml:"injury_cap"`
	IllnessCap        float64  `toml:"illness_cap"`
	SevereIllnessCap  float64  `toml:"severe_illness_cap"`
	InjuryKeywords    []string `toml:"injury_keywords"`
	IllnessKeywords   []string `toml:"illness_keywords"`
	SevereKeywords    []string `toml:"severe_keywords"`
	NotesWindowDays   int      `toml:"notes_window_days"`
	RestBelow         float64  `toml:"rest_below"`
	EasyBelow         float64  `toml:"easy_below"`
	ReduceBelow       float64  `toml:"reduce_below"`
	ReadyBelow        float64  `toml:"ready_below"`
}

type VolumeBand struct {
	BelowCTL float64 `toml:"below_ctl"`
	MinKm    float64 `toml:"min_km"`
	MaxKm    float64 `toml:"max_km"`
}

type GuardrailParams struct {
	LowShareMin        float64            `toml:"low_share_min"`
	LowShareTarget     float64            `toml:"low_share_target"`
	ThresholdShareMax  float64            `toml:"threshold_share_max"`
	IntervalKmMax      float64            `toml:"interval_km_max"`
	IntervalShareMax   float64            `toml:"interval_share_max"`
	RepetitionKmMax    float64            `toml:"repetition_km_max"`
	RepetitionShareMax float64            `toml:"repetition_share_max"`
	LongRunShareMax    float64            `toml:"long_run_share_max"`
	LongRunMinutesMax  float64            `toml:"long_run_minutes_max"`
	ProgressionMax     float64            `toml:"progression_max"`
	VolumeBands        []VolumeBand       `toml:"volume_bands"`
	GoalMultipliers    map[string]float64 `toml:"goal_multipliers"`
	MastersAge         int                `toml:"masters_age"`
	MastersFactor      float64            `toml:"masters_factor"`
	RecentCapFactor    float64            `toml:"recent_cap_factor"`
}

type RiskParams struct {
	ACWRHigh               float64 `toml:"acwr_high"`
	ACWRElevated           float64 `toml:"acwr_elevated"`
	ACWRHighWeight         float64 `toml:"acwr_high_weight"`
	ACWRElevatedWeight     float64 `toml:"acwr_elevated_weight"`
	ACWRElevatedLowReadyWt float64 `toml:"acwr_elevated_low_readiness_weight"`
	ReadinessVeryLow       float64 `toml:"readiness_very_low"`
	ReadinessLow           float64 `toml:"readiness_low"`
	ReadinessVeryLowWeight float64 `toml:"readiness_very_low_weight"`
	ReadinessLowWeightMin  float64 `toml:"readiness_low_weight_min"`
	ReadinessLowWeightMax  float64 `toml:"readiness_low_weight_max"`
	TSBOverreached         float64 `toml:"tsb_overreached"`
	TSBOverreachedWeight   float64 `toml:"tsb_overreached_weight"`
	LowerBodyCTLMultiple   float64 `toml:"lower_body_ctl_multiple"`
	LowerBodyWindowDays    int     `toml:"lower_body_window_days"`
	LowerBodyWeightMin     float64 `toml:"lower_body_weight_min"`
	LowerBodyWeightMax     float64 `toml:"lower_body_weight_max"`
	LowerBodySaturation    float64 `toml:"lower_body_saturation"`
	DensityWindowDays      int     `toml:"density_window_days"`
	DensityMinSessions     int     `toml:"density_min_sessions"`
	DensityWeight          float64 `toml:"density_weight"`
	DangerAt               float64 `toml:"danger_at"`
	HighAt                 float64 `toml:"high_at"`
	ModerateAt             float64 `toml:"moderate_at"`
	ForcedRestACWR         float64 `toml:"forced_rest_acwr"`
	ForcedRestReadiness    float64 `toml:"forced_rest_readiness"`
}
