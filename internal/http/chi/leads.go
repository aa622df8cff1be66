package chi

import (
	"errors"
	"io"
	"net/http"

	"github.com/aidaptics/lead-relay/forward"
	"github.com/aidaptics/lead-relay/leads"
	"github.com/aidaptics/lead-relay/ratelimit"
)

// maxLeadBody bounds the get-started form body
const maxLeadBody = 64 << 10

// leadResponse reports which lead webhooks accepted the submission
type leadResponse struct {
	Message   string            `json:"message"`
	Success   bool              `json:"success,omitempty"`
	Successes []string          `json:"successes,omitempty"`
	Failures  []failureResponse `json:"failures,omitempty"`
}

// postLead handles POST /api/send-info
func postLead(svc LeadSubmitter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxLeadBody))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Failed to read request body"})
			return
		}
		defer r.Body.Close()

		report, err := svc.Submit(r.Context(), body, ratelimit.ClientIP(r.Header, r.RemoteAddr))
		switch {
		case errors.Is(err, leads.ErrNotConfigured):
			writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "No webhook URLs configured"})
			return
		case errors.Is(err, leads.ErrInvalidConfig):
			writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Webhook configuration error"})
			return
		case errors.Is(err, ratelimit.ErrLimitExceeded):
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Message: "Rate limit exceeded"})
			return
		case errors.Is(err, leads.ErrInvalidBody):
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON body"})
			return
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal Server Error"})
			return
		}

		switch report.Aggregate() {
		case forward.AllFailed:
			writeJSON(w, http.StatusInternalServerError, leadResponse{
				Message:  "All webhooks failed",
				Failures: toFailures(report.Failures()),
			})
		case forward.PartialSuccess:
			writeJSON(w, http.StatusOK, leadResponse{
				Message:   "Partial success - some webhooks failed",
				Success:   true,
				Successes: report.Successes(),
				Failures:  toFailures(report.Failures()),
			})
		default:
			writeJSON(w, http.StatusOK, leadResponse{
				Message:   "All webhooks sent successfully",
				Successes: report.Successes(),
			})
		}
	})
}
