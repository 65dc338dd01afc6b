package calibration

import "github.com/du-phan/resilio/internal/training"

// Default returns a fresh copy of the compiled-in tables.
func Default() Params {
	return Params{
		Version: DefaultVersion,
		Effort: EffortParams{
			HeartRate: Bands{
				Steps: []Band{
					{Below: 0.60, Value: 2},
					{Below: 0.68, Value: 3},
					{Below: 0.78, Value: 4},
					{Below: 0.85, Value: 5},
					{Below: 0.90, Value: 6},
					{Below: 0.94, Value: 7},
					{Below: 0.97, Value: 8},
				},
				Above: 9,
			},
			HRBonusMinBase: 4,
			HRDurationBonus: []DurationBonus{
				{OverMinutes: 240, Bonus: 3},
				{OverMinutes: 150, Bonus: 2},
				{OverMinutes: 90, Bonus: 1},
			},
			RelativeEffort: Bands{
				Steps: []Band{
					{Below: 0.5, Value: 2},
					{Below: 1.0, Value: 4},
					{Below: 1.5, Value: 5},
					{Below: 2.0, Value: 6},
					{Below: 2.5, Value: 7},
					{Below: 3.0, Value: 8},
				},
				Above: 9,
			},
			Pace: PaceParams{
				TempoFraction: 0.88,
				Zones: []PaceZone{
					{Name: "repetition", OffsetSec: -35, Effort: 9},
					{Name: "interval", OffsetSec: -20, Effort: 8},
					{Name: "tempo", OffsetSec: 0, Effort: 7},
					{Name: "marathon", OffsetSec: 15, Effort: 6},
					{Name: "easy", OffsetSec: 60, Effort: 4},
				},
				SlowerMarginSec: 45,
				SlowerEffort:    3,
				TrailBonus:      1,
			},
			SportDefaults: map[string]int{
				string(training.SportRun):          5,
				string(training.SportTrailRun):     6,
				string(training.SportTreadmillRun): 5,
				string(training.SportTrackRun):     6,
				string(training.SportCycle):        4,
				string(training.SportSwim):         5,
				string(training.SportClimb):        6,
				string(training.SportStrength):     5,
				string(training.SportCrossfit):     7,
				string(training.SportYoga):         2,
				string(training.SportHike):         4,
				string(training.SportWalk):         2,
				string(training.SportOther):        4,
			},
			FallbackDefault:    4,
			LongSessionMinutes: 120,
			LongSessionBonus:   1,
		},
		Load: LoadParams{
			IntensityFactors:       []float64{0.50, 0.55, 0.60, 0.65, 0.75, 0.82, 0.90, 1.00, 1.05, 1.10},
			DefaultIntensityFactor: 0.70,
			IntervalFactor:         0.85,
			IntervalKeywords: []string{
				"interval", "intervals", "repeat", "repeats", "reps", "fartlek",
				"tabata", "hiit", "emom", "track workout", "hill repeats",
			},
			Sports: map[string]Coefficients{
				string(training.SportRun):          {Systemic: 1.00, LowerBody: 1.00},
				string(training.SportTrailRun):     {Systemic: 1.05, LowerBody: 1.10},
				string(training.SportTreadmillRun): {Systemic: 1.00, LowerBody: 0.90},
				string(training.SportTrackRun):     {Systemic: 1.00, LowerBody: 1.00},
				string(training.SportCycle):        {Systemic: 0.85, LowerBody: 0.35},
				string(training.SportSwim):         {Systemic: 0.70, LowerBody: 0.10},
				string(training.SportClimb):        {Systemic: 0.60, LowerBody: 0.10},
				string(training.SportStrength):     {Systemic: 0.55, LowerBody: 0.40},
				string(training.SportCrossfit):     {Systemic: 0.75, LowerBody: 0.55},
				string(training.SportYoga):         {Systemic: 0.35, LowerBody: 0.10},
				string(training.SportHike):         {Systemic: 0.60, LowerBody: 0.50},
				string(training.SportWalk):         {Systemic: 0.40, LowerBody: 0.30},
				string(training.SportOther):        {Systemic: 0.70, LowerBody: 0.30},
			},
			CoefficientCeiling: 1.2,
			LegKeywords: []string{
				"leg", "legs", "leg day", "squat", "squats", "deadlift", "deadlifts",
				"lunge", "lunges", "step-up", "step-ups", "calf", "calves", "hamstring",
				"hamstrings", "quad", "quads", "glute", "glutes", "box jump", "box jumps",
				"wall ball", "wall balls", "thruster", "thrusters", "pistol",
			},
			UpperBodyKeywords: []string{
				"upper body", "bench", "press", "pull-up", "pull-ups", "pullup", "pullups",
				"push-up", "push-ups", "pushup", "pushups", "row", "rows", "chest",
				"shoulder", "shoulders", "biceps", "triceps", "arms", "back",
			},
			LegBonus:             0.25,
			UpperBodyPenalty:     0.15,
			UpperBodyFloor:       0.15,
			ElevationPerKm:       30,
			ElevationSystemic:    0.05,
			ElevationLowerBody:   0.10,
			LongDurationMinutes:  120,
			LongDurationSystemic: 0.05,
			RaceSystemic:         0.10,
			EasyMaxEffort:        4,
			ModerateMaxEffort:    6,
			QualityMaxEffort:     8,
		},
		Metrics: MetricsParams{
			CTLAlpha:           0.024,
			ATLAlpha:           1.0 / 7.0,
			ColdStartDays:      14,
			AcuteDays:          7,
			ChronicDays:        28,
			BaselineWindowDays: 60,
			BaselineMinDays:    14,
			CTLZones: []ZoneBound{
				{Below: 20, Name: "beginner"},
				{Below: 40, Name: "developing"},
				{Below: 60, Name: "recreational"},
				{Below: 80, Name: "trained"},
				{Below: 100, Name: "competitive"},
			},
			CTLTopZone: "elite",
			TSBZones: []ZoneBound{
				{Below: -25, Name: "overreached"},
				{Below: -10, Name: "productive"},
				{Below: 5, Name: "optimal"},
				{Below: 15, Name: "fresh"},
			},
			TSBTopZone:       "peaked",
			ACWRUndertrained: 0.8,
			ACWRSafeMax:      1.3,
			ACWRCautionMax:   1.5,
			SanityCTL:        Range{Min: 0, Max: 200},
			SanityATL:        Range{Min: 0, Max: 300},
			SanityTSB:        Range{Min: -100, Max: 50},
			SanityACWR:       Range{Min: 0.2, Max: 3.0},
		},
		Readiness: ReadinessParams{
			TSBOffset:         30,
			TSBScale:          2.5,
			TrendShortDays:    3,
			TrendLongDays:     7,
			TrendMinDays:      3,
			TrendNeutral:      65,
			WithSubjective:    Weights{TSB: 0.20, Trend: 0.25, Sleep: 0.25, Wellness: 0.30},
			WithoutSubjective: Weights{TSB: 0.30, Trend: 0.35},
			InjuryCap:         25,
			IllnessCap:        35,
			SevereIllnessCap:  15,
			InjuryKeywords: []string{
				"injury", "injured", "pain", "painful", "strain", "strained", "sprain",
				"sprained", "tendinitis", "tendonitis", "shin splints", "stress fracture",
				"pulled", "torn", "limping",
			},
			IllnessKeywords: []string{
				"sick", "ill", "illness", "virus", "sore throat", "cough", "coughing",
				"nausea", "head cold", "chest cold", "congested", "covid",
			},
			SevereKeywords: []string{
				"fever", "feverish", "flu", "influenza", "vomiting", "bedridden",
			},
			NotesWindowDays: 3,
			RestBelow:       35,
			EasyBelow:       50,
			ReduceBelow:     65,
			ReadyBelow:      80,
		},
		Guardrail: GuardrailParams{
			LowShareMin:        0.75,
			LowShareTarget:     0.80,
			ThresholdShareMax:  0.10,
			IntervalKmMax:      10,
			IntervalShareMax:   0.08,
			RepetitionKmMax:    8,
			RepetitionShareMax: 0.05,
			LongRunShareMax:    0.30,
			LongRunMinutesMax:  150,
			ProgressionMax:     1.10,
			VolumeBands: []VolumeBand{
				{BelowCTL: 20, MinKm: 15, MaxKm: 25},
				{BelowCTL: 35, MinKm: 25, MaxKm: 40},
				{BelowCTL: 50, MinKm: 40, MaxKm: 65},
				{BelowCTL: 0, MinKm: 55, MaxKm: 80},
			},
			GoalMultipliers: map[string]float64{
				string(training.GoalGeneral):      1.0,
				string(training.Goal5K):           0.9,
				string(training.Goal10K):          1.0,
				string(training.GoalHalfMarathon): 1.15,
				string(training.GoalMarathon):     1.3,
			},
			MastersAge:      50,
			MastersFactor:   0.9,
			RecentCapFactor: 1.10,
		},
		Risk: RiskParams{
			ACWRHigh:               1.5,
			ACWRElevated:           1.3,
			ACWRHighWeight:         0.40,
			ACWRElevatedWeight:     0.20,
			ACWRElevatedLowReadyWt: 0.30,
			ReadinessVeryLow:       35,
			ReadinessLow:           50,
			ReadinessVeryLowWeight: 0.25,
			ReadinessLowWeightMin:  0.15,
			ReadinessLowWeightMax:  0.20,
			TSBOverreached:         -25,
			TSBOverreachedWeight:   0.20,
			LowerBodyCTLMultiple:   2.5,
			LowerBodyWindowDays:    2,
			LowerBodyWeightMin:     0.15,
			LowerBodyWeightMax:     0.25,
			LowerBodySaturation:    1.5,
			DensityWindowDays:      7,
			DensityMinSessions:     2,
			DensityWeight:          0.15,
			DangerAt:               0.60,
			HighAt:                 0.40,
			ModerateAt:             0.20,
			ForcedRestACWR:         1.5,
			ForcedRestReadiness:    35,
		},
	}
}
