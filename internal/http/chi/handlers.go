package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/aidaptics/lead-relay/booking"
	"github.com/aidaptics/lead-relay/forward"
	"github.com/aidaptics/lead-relay/webhook"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"
)

const requestTimeout = 30 * time.Second

// LeadSubmitter relays get-started form posts
type LeadSubmitter interface {
	Submit(ctx context.Context, body []byte, clientIP string) (forward.Report, error)
}

// BookingFlow runs the Discord OAuth callback
type BookingFlow interface {
	Run(ctx context.Context, code string) booking.Result
}

// Authorizer builds the Discord authorize URL for a login
type Authorizer interface {
	AuthCodeURL(state string) string
}

/* Services groups what the router serves
 * A nil Booking or Login makes the OAuth routes answer "not configured"; a nil Metrics hides /metrics
 */
type Services struct {
	Webhook webhook.UseCase
	Leads   LeadSubmitter
	Booking BookingFlow
	Login   Authorizer
	Metrics http.Handler
}

// Handlers sets up every route of the relay
func Handlers(ctx context.Context, logger zerolog.Logger, s Services) *chi.Mux {
	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		// Typeform ingestion
		r.Route("/webhooks/{webhook_id}", func(r chi.Router) {
			r.Post("/", postWebhook(s.Webhook).ServeHTTP)
			r.Get("/", getWebhook(s.Webhook).ServeHTTP)
			r.Options("/", optionsWebhook().ServeHTTP)
		})

		// Get-started lead form
		r.Post("/send-info", postLead(s.Leads).ServeHTTP)

		// Discord booking verification
		r.Get("/discord-auth", invalidArgs().ServeHTTP)
		r.Get("/discord-auth/login", getLogin(s.Login).ServeHTTP)
		r.Get("/discord-auth/callback", getCallback(s.Booking).ServeHTTP)
		r.Get("/discord-auth/callback/response", getCallbackResponse().ServeHTTP)
	})

	return r
}

// NewLogger builds the request logger; text output is a console writer for local runs
func NewLogger(service, level, format string) zerolog.Logger {
	return httplog.NewLogger(service, httplog.Options{
		JSON:     format != "text",
		LogLevel: level,
	})
}
