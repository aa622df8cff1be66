package forward

/* Outcome is the resolution of a single delivery attempt
 * Every attempt resolves to exactly one of these, never retried
 */
type Outcome int

const (
	Success Outcome = iota + 1
	HTTPError
	NetworkError
	Timeout
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case HTTPError:
		return "http_error"
	case NetworkError:
		return "network_error"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// MarshalText lets outcomes appear by name in JSON bodies and logs
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// IsFailure returns true for every outcome other than Success
func (o Outcome) IsFailure() bool {
	return o != Success
}

// Aggregate summarizes all attempts made for one event
type Aggregate int

const (
	FullSuccess Aggregate = iota + 1
	PartialSuccess
	AllFailed
)

// String returns the string representation of the aggregate outcome
func (a Aggregate) String() string {
	switch a {
	case FullSuccess:
		return "success"
	case PartialSuccess:
		return "partial"
	case AllFailed:
		return "failed"
	default:
		return "unknown"
	}
}
