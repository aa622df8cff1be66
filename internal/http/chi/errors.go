package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aidaptics/lead-relay/forward"
	"github.com/aidaptics/lead-relay/webhook"
)

// errorResponse is the JSON body of every rejected API call
type errorResponse struct {
	Message  string            `json:"message"`
	Failures []failureResponse `json:"failures,omitempty"`
}

/* failureResponse describes one destination that did not accept a delivery
 * Transport errors and upstream bodies stay in server logs
 */
type failureResponse struct {
	Destination string `json:"destination"`
	Outcome     string `json:"outcome"`
	Status      int    `json:"status,omitempty"`
}

func toFailures(attempts []forward.Attempt) []failureResponse {
	out := make([]failureResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, failureResponse{
			Destination: a.Destination,
			Outcome:     a.Outcome.String(),
			Status:      a.StatusCode,
		})
	}
	return out
}

// statusFor maps a webhook error kind to its HTTP status
func statusFor(kind webhook.Kind) int {
	switch kind {
	case webhook.Configuration:
		return http.StatusInternalServerError
	case webhook.RateLimited:
		return http.StatusTooManyRequests
	case webhook.Validation:
		return http.StatusBadRequest
	case webhook.PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case webhook.Authentication:
		return http.StatusUnauthorized
	case webhook.Unreachable:
		return http.StatusBadGateway
	case webhook.Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeWebhookError writes the caller-safe part of err
func writeWebhookError(w http.ResponseWriter, err error, report forward.Report) {
	var e *webhook.Error
	if !errors.As(err, &e) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal Server Error"})
		return
	}

	resp := errorResponse{Message: e.Message}
	if failures := report.Failures(); len(failures) > 0 {
		resp.Failures = toFailures(failures)
	}
	writeJSON(w, statusFor(e.Kind), resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
