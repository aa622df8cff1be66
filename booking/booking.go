// Package booking grants a Discord role to users who booked a call.
//
// A callback run exchanges the OAuth code for a token, fetches the user's identity,
// looks the email up in the scheduling system and grants the role. Nothing is stored
// between runs.
package booking

import (
	"context"
	"fmt"
)

// Reasons shown to the user on the result page
const (
	ReasonNoCode          = "No code provided"
	ReasonToken           = "Failed to get token"
	ReasonIdentity        = "Failed to get user info"
	ReasonNoEmail         = "Could not get your email from Discord."
	ReasonBookingNotFound = "Calendly booking not found for your email."
	ReasonBookingLookup   = "Failed to verify Calendly booking."
	ReasonRole            = "Failed to assign role"
	ReasonNotConfigured   = "Discord verification is not configured."
	ReasonState           = "Login session expired or invalid. Please try again."
)

// Session is the transient state of one callback run
type Session struct {
	Code            string
	AccessToken     string
	UserID          string
	Email           string
	BookingVerified bool
}

// Identity is the caller as known to the OAuth provider
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// TokenExchanger trades an authorization code for an access token
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// IdentityFetcher resolves an access token to the caller's identity
type IdentityFetcher interface {
	FetchIdentity(ctx context.Context, accessToken string) (Identity, error)
}

// BookingChecker reports whether email appears among the invitees of any scheduled event
type BookingChecker interface {
	HasBooking(ctx context.Context, email string) (bool, error)
}

// RoleGranter grants the booked role to a user
type RoleGranter interface {
	GrantRole(ctx context.Context, userID string) error
}

/* UpstreamError is a non-success response from an external API
 * Body is kept for diagnostics and only shown to users in verbose mode
 */
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}
