package webhook

import "errors"

/* Kind classifies why an inbound webhook was not relayed
 * The HTTP layer maps each kind to exactly one status code
 */
type Kind int

const (
	Configuration Kind = iota + 1
	RateLimited
	Validation
	PayloadTooLarge
	Authentication
	Upstream
	Unreachable
	Timeout
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case RateLimited:
		return "rate_limited"
	case Validation:
		return "validation"
	case PayloadTooLarge:
		return "payload_too_large"
	case Authentication:
		return "authentication"
	case Upstream:
		return "upstream"
	case Unreachable:
		return "unreachable"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

/* Error carries a Kind, a caller-safe Message and an internal Reason
 * Reason and Err are for logs only
 */
type Error struct {
	Kind    Kind
	Message string
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + ": " + e.Message
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message, reason string, err error) *Error {
	return &Error{Kind: kind, Message: message, Reason: reason, Err: err}
}

// KindOf returns the kind of a webhook error, zero when err is not one
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
