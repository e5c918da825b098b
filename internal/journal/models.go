package journal

import "time"

// Outcome classifies how processing ended for one file.
type Outcome string

const (
	OutcomeConverted        Outcome = "converted"
	OutcomeConversionFailed Outcome = "conversion_failed"
	OutcomeRelocationFailed Outcome = "relocation_failed"
	OutcomeSidecarFailed    Outcome = "sidecar_failed"
	OutcomePlanned          Outcome = "planned"
)

// Failed reports whether the outcome represents a per-file failure.
func (o Outcome) Failed() bool {
	switch o {
	case OutcomeConversionFailed, OutcomeRelocationFailed, OutcomeSidecarFailed:
		return true
	default:
		return false
	}
}

// Run is one recorded pipeline invocation.
type Run struct {
	ID         int64
	RunUUID    string
	Root       string
	ReviewDir  string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Discovered int
	Converted  int
	Sidecars   int
	Failed     int
}

// FileRecord is the per-file outcome row.
type FileRecord struct {
	SourcePath string
	RelPath    string
	Outcome    Outcome
	Sidecar    string
	Error      string
	Duration   time.Duration
}
