package pipeline

import "time"

// Stage identifies a step of a run.
type Stage int

const (
	StageStart Stage = iota
	StageValidated
	StageDecompressed
	StageLocated
	StageRewritten
	StageCompressed
	StageDone
	StageFailed
)

var stageNames = [...]string{
	StageStart:        "start",
	StageValidated:    "validated",
	StageDecompressed: "decompressed",
	StageLocated:      "located",
	StageRewritten:    "rewritten",
	StageCompressed:   "compressed",
	StageDone:         "done",
	StageFailed:       "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Percent maps a stage to the progress shown to operators.
func (s Stage) Percent() int {
	switch s {
	case StageValidated:
		return 10
	case StageDecompressed:
		return 30
	case StageLocated:
		return 50
	case StageRewritten:
		return 80
	case StageCompressed:
		return 95
	case StageDone:
		return 100
	default:
		return 0
	}
}

// Terminal reports whether no further transitions follow s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// Event describes one stage transition.
type Event struct {
	RunID  string
	Stage  Stage
	Input  string
	Output string
	// Err is set only for StageFailed.
	Err  error
	Time time.Time
}

// Observer receives every transition of a run, in order, on the calling
// goroutine.
type Observer interface {
	OnStage(Event)
}
