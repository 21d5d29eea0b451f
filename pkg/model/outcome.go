package model

// Outcome is the user-facing result of a hub call.
type Outcome uint8

const (
	// OutcomeOK means the call took effect.
	OutcomeOK Outcome = 0
	// OutcomeScheduled means the hub accepted the command but the device
	// did not answer in time; it stays pending until it expires.
	OutcomeScheduled Outcome = 1
	// OutcomeFailed means the call was rejected.
	OutcomeFailed Outcome = 2
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "OK"
	case OutcomeScheduled:
		return "SCHEDULED"
	case OutcomeFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
