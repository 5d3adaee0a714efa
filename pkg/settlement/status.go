package settlement

// Status is the lifecycle state of an order, keyed by its digest.
//
// StatusInvalid is both the zero value of a never-touched record and the
// rejection outcome returned for inadmissible fill attempts (over-fill,
// malformed request). It is never stored as a terminal state: the first
// admissible touch of an order activates it to StatusFillable, and from
// there the only stored transitions are to StatusFilled or StatusExpired.
type Status uint8

const (
	StatusInvalid  Status = iota // Zero value / rejection outcome
	StatusFillable               // Active, accepts further fills
	StatusExpired                // Deadline passed; terminal
	StatusFilled                 // Cumulative fills reached amountIn; terminal
)

// Terminal reports whether the status never re-admits a fill.
func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusFilled
}

func (s Status) String() string {
	switch s {
	case StatusInvalid:
		return "invalid"
	case StatusFillable:
		return "fillable"
	case StatusExpired:
		return "expired"
	case StatusFilled:
		return "filled"
	default:
		return "unknown"
	}
}
