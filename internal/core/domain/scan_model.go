package domain

const (
	// ScanCompleted is the outcome of a scan that went through all its
	// batches, even if some of them failed.
	ScanCompleted ScanOutcome = iota
	// ScanCancelled is the outcome of a scan stopped by its context before
	// committing all its batches.
	ScanCancelled
	// ScanSkipped is the outcome of a scan not started because another one
	// with the same key was in flight.
	ScanSkipped
)

type ScanOutcome int

func (o ScanOutcome) String() string {
	switch o {
	case ScanCompleted:
		return "completed"
	case ScanCancelled:
		return "cancelled"
	case ScanSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ScanProgress is the progress of the two sub-scans of a wallet scan, each
// one a fraction in [0, 1].
type ScanProgress struct {
	Addresses float64
	Notes     float64
}

// Total returns the overall progress in [0, 100].
func (p ScanProgress) Total() float64 {
	return (clamp(p.Addresses) + clamp(p.Notes)) / 2 * 100
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
