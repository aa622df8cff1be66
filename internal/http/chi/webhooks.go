package chi

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aidaptics/lead-relay/forward"
	"github.com/aidaptics/lead-relay/webhook"
	"github.com/go-chi/chi/v5"
)

/* HTTP layer DTOs for the ingestion endpoint
 * Separate from domain entities to avoid leaking internal structure
 */

// webhookResponse is returned when every destination accepted the event
type webhookResponse struct {
	Message   string `json:"message"`
	Status    string `json:"status"`
	FormID    string `json:"formId"`
	Timestamp string `json:"timestamp"`
}

// partialResponse is returned when some destinations failed
type partialResponse struct {
	webhookResponse
	Success  bool              `json:"success"`
	Failures []failureResponse `json:"failures"`
}

// healthResponse answers GET on the endpoint
type healthResponse struct {
	Message    string   `json:"message"`
	Endpoint   string   `json:"endpoint"`
	Methods    []string `json:"methods"`
	Status     string   `json:"status"`
	Configured bool     `json:"configured"`
	Timestamp  string   `json:"timestamp"`
}

// knownWebhook answers 404 unless the path id is the configured one
func knownWebhook(w http.ResponseWriter, r *http.Request, svc webhook.UseCase) bool {
	if id := chi.URLParam(r, "webhook_id"); id == "" || id != svc.Settings().WebhookID {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Webhook not found"})
		return false
	}
	return true
}

// postWebhook handles POST /api/webhooks/{webhook_id}
func postWebhook(svc webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !knownWebhook(w, r, svc) {
			return
		}
		receivedAt := time.Now()

		// One byte over the limit is enough for the service to reject the size
		body, err := io.ReadAll(io.LimitReader(r.Body, svc.Settings().MaxBodyBytes+1))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Failed to read request body"})
			return
		}
		defer r.Body.Close()

		rcpt, err := svc.Receive(r.Context(), webhook.InboundEvent{
			Headers:    r.Header,
			Body:       body,
			RemoteAddr: r.RemoteAddr,
			ReceivedAt: receivedAt,
		})
		if err != nil {
			writeWebhookError(w, err, rcpt.Report)
			return
		}

		resp := webhookResponse{
			Message:   "Webhook data forwarded successfully",
			Status:    forward.FullSuccess.String(),
			FormID:    rcpt.FormID,
			Timestamp: rcpt.Timestamp,
		}
		if rcpt.Report.Aggregate() == forward.PartialSuccess {
			resp.Message = "Webhook data forwarded with partial failures"
			resp.Status = forward.PartialSuccess.String()
			writeJSON(w, http.StatusOK, partialResponse{
				webhookResponse: resp,
				Success:         true,
				Failures:        toFailures(rcpt.Report.Failures()),
			})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

// getWebhook handles GET /api/webhooks/{webhook_id}
func getWebhook(svc webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !knownWebhook(w, r, svc) {
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{
			Message:    "Typeform webhook endpoint is active",
			Endpoint:   fmt.Sprintf("/api/webhooks/%s", svc.Settings().WebhookID),
			Methods:    []string{http.MethodPost, http.MethodGet},
			Status:     "healthy",
			Configured: svc.Configured(),
			Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

// optionsWebhook answers CORS preflight requests
func optionsWebhook() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Typeform-Signature, X-Signature, X-Hub-Signature-256")
		w.WriteHeader(http.StatusOK)
	})
}
