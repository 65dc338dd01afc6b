package training

type Sport string

const (
	SportRun          Sport = "run"
	SportTrailRun     Sport = "trail_run"
	SportTreadmillRun Sport = "treadmill_run"
	SportTrackRun     Sport = "track_run"
	SportCycle        Sport = "cycle"
	SportSwim         Sport = "swim"
	SportClimb        Sport = "climb"
	SportStrength     Sport = "strength"
	SportCrossfit     Sport = "crossfit"
	SportYoga         Sport = "yoga"
	SportHike         Sport = "hike"
	SportWalk         Sport = "walk"
	SportOther        Sport = "other"
)

var sports = []Sport{
	SportRun, SportTrailRun, SportTreadmillRun, SportTrackRun,
	SportCycle, SportSwim, SportClimb, SportStrength, SportCrossfit,
	SportYoga, SportHike, SportWalk, SportOther,
}

// Sports returns the closed set of sport categories in declaration order.
func Sports() []Sport {
	out := make([]Sport, len(sports))
	copy(out, sports)
	return out
}

func (s Sport) Valid() bool {
	for _, v := range sports {
		if v == s {
			return true
		}
	}
	return false
}

func (s Sport) IsRunning() bool {
	switch s {
	case SportRun, SportTrailRun, SportTreadmillRun, SportTrackRun:
		return true
	default:
		return false
	}
}

// IsResistance reports whether text cues about leg or upper-body work apply.
func (s Sport) IsResistance() bool { return s == SportStrength || s == SportCrossfit }

func (s Sport) String() string { return string(s) }

type SessionClass string

const (
	SessionEasy     SessionClass = "easy"
	SessionModerate SessionClass = "moderate"
	SessionQuality  SessionClass = "quality"
	SessionRace     SessionClass = "race"
)

func (c SessionClass) Valid() bool {
	switch c {
	case SessionEasy, SessionModerate, SessionQuality, SessionRace:
		return true
	default:
		return false
	}
}

// IsHard reports whether the class counts toward high-intensity density.
func (c SessionClass) IsHard() bool { return c == SessionQuality || c == SessionRace }

type GoalType string

const (
	GoalGeneral      GoalType = "general"
	Goal5K           GoalType = "5k"
	Goal10K          GoalType = "10k"
	GoalHalfMarathon GoalType = "half_marathon"
	GoalMarathon     GoalType = "marathon"
)

func (g GoalType) Valid() bool {
	switch g {
	case GoalGeneral, Goal5K, Goal10K, GoalHalfMarathon, GoalMarathon:
		return true
	default:
		return false
	}
}
