package booking

/* State is a step of the callback flow
 * Start -> CodeReceived -> TokenExchanged -> IdentityFetched -> BookingChecked -> RoleGranted
 * Failed is reachable from every state except RoleGranted
 */
type State int

const (
	Start State = iota + 1
	CodeReceived
	TokenExchanged
	IdentityFetched
	BookingChecked
	RoleGranted
	Failed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case CodeReceived:
		return "code_received"
	case TokenExchanged:
		return "token_exchanged"
	case IdentityFetched:
		return "identity_fetched"
	case BookingChecked:
		return "booking_checked"
	case RoleGranted:
		return "role_granted"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal returns true once the flow cannot advance
func (s State) IsTerminal() bool {
	return s == RoleGranted || s == Failed
}
