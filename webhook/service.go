package webhook

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aidaptics/lead-relay/forward"
	"github.com/aidaptics/lead-relay/ratelimit"
	"github.com/aidaptics/lead-relay/webhook/payload"
	"github.com/aidaptics/lead-relay/webhook/signature"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxBodyBytes is the largest body accepted for verification
	DefaultMaxBodyBytes = 1 << 20

	// ForwarderUserAgent identifies the relay to destinations
	ForwarderUserAgent = "Typeform-Webhook-Forwarder/1.0"

	largeSubmissionAnswers = 10
)

/* Service represents the ingestion pipeline for one webhook endpoint
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the ingestion operations used by the HTTP layer
type UseCase interface {
	Receive(ctx context.Context, ev InboundEvent) (Receipt, error)
	Settings() Config
	Configured() bool
}

// Forwarder delivers a payload to every destination and reports each attempt
type Forwarder interface {
	Forward(ctx context.Context, dests []forward.Destination, p forward.Payload, header http.Header) (forward.Report, error)
}

// Limiter admits or rejects a caller key
type Limiter interface {
	Name() string
	Admit(key string) bool
}

// Config holds what one endpoint needs, checked on every request
type Config struct {
	WebhookID         string
	Secret            string
	Destinations      []forward.Destination
	MaxBodyBytes      int64
	SkipSignature     bool
	AllowedUserAgents []string
}

// InboundEvent is an HTTP request captured before any parsing; Body is never modified
type InboundEvent struct {
	Headers    http.Header
	Body       []byte
	RemoteAddr string
	ReceivedAt time.Time
}

// Receipt describes what happened to an accepted event
type Receipt struct {
	EventID     string
	DeliveryID  string
	FormID      string
	AnswerCount int
	Timestamp   string
	Report      forward.Report
}

// Option configures a Service
type Option func(*Service)

// WithObserver reports every rate limit decision
func WithObserver(o ratelimit.Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the service logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithIDGenerator replaces uuid generation, used by tests
func WithIDGenerator(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

type Service struct {
	cfg       Config
	limiter   Limiter
	forwarder Forwarder
	observer  ratelimit.Observer
	logger    zerolog.Logger
	newID     func() string
}

// NewService creates a new ingestion service with dependency injection
func NewService(cfg Config, limiter Limiter, fwd Forwarder, opts ...Option) *Service {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Service{
		cfg:       cfg,
		limiter:   limiter,
		forwarder: fwd,
		logger:    zerolog.Nop(),
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the endpoint configuration
func (s *Service) Settings() Config {
	return s.cfg
}

// Configured reports whether destinations and a secret are present
func (s *Service) Configured() bool {
	return len(s.cfg.Destinations) > 0 && s.cfg.Secret != ""
}

/* Receive runs the ingestion pipeline in order:
 * configuration, rate limit, headers, size, signature, parse, structure, transform, forward
 * Every rejection is an *Error; forwarding results are in the Receipt
 */
func (s *Service) Receive(ctx context.Context, ev InboundEvent) (Receipt, error) {
	if len(s.cfg.Destinations) == 0 {
		s.logger.Error().Str("webhook_id", s.cfg.WebhookID).Msg("no destination configured")
		return Receipt{}, newError(Configuration, "Webhook configuration error", "no destinations", forward.ErrNoDestinations)
	}
	if s.cfg.Secret == "" {
		s.logger.Error().Str("webhook_id", s.cfg.WebhookID).Msg("signature secret is not configured")
		return Receipt{}, newError(Configuration, "Webhook security configuration error", "missing secret", nil)
	}

	ip := ratelimit.ClientIP(ev.Headers, ev.RemoteAddr)
	log := s.logger.With().Str("webhook_id", s.cfg.WebhookID).Str("ip", ratelimit.Mask(ip)).Logger()

	if s.limiter != nil {
		allowed := s.limiter.Admit(ip)
		if s.observer != nil {
			s.observer.ObserveDecision(ctx, s.limiter.Name(), allowed)
		}
		if !allowed {
			log.Warn().Msg("rate limit exceeded")
			return Receipt{}, newError(RateLimited, "Rate limit exceeded", "", ratelimit.ErrLimitExceeded)
		}
	}

	if res := ValidateHeaders(ev.Headers, s.cfg.AllowedUserAgents); !res.Valid {
		log.Warn().
			Str("reason", res.Reason).
			Str("user_agent", ev.Headers.Get("User-Agent")).
			Str("content_type", ev.Headers.Get("Content-Type")).
			Msg("request validation failed")
		return Receipt{}, newError(Validation, "Invalid request format", res.Reason, nil)
	}

	if int64(len(ev.Body)) > s.cfg.MaxBodyBytes {
		log.Warn().Int("size", len(ev.Body)).Int64("max_size", s.cfg.MaxBodyBytes).Msg("payload too large")
		return Receipt{}, newError(PayloadTooLarge, "Payload too large", "", nil)
	}

	if err := s.authenticate(ev, log); err != nil {
		return Receipt{}, err
	}

	p, err := payload.Parse(ev.Body)
	if err != nil {
		log.Warn().Err(err).Msg("parsing payload")
		return Receipt{}, newError(Validation, "Invalid JSON payload", "invalid json", err)
	}

	sub, err := payload.Transform(p)
	switch {
	case errors.Is(err, payload.ErrMissingFormResponse):
		log.Warn().Msg("invalid Typeform data structure: missing form_response")
		return Receipt{}, newError(Validation, "Invalid Typeform data format", "missing form_response", err)
	case errors.Is(err, payload.ErrMissingAnswers):
		log.Warn().Str("form_id", p.FormResponse.FormID).Msg("invalid answers structure")
		return Receipt{}, newError(Validation, "Invalid answers format", "missing answers", err)
	case err != nil:
		return Receipt{}, newError(Validation, "Invalid Typeform data format", "", err)
	}

	if n := len(sub.Answers); n > largeSubmissionAnswers {
		log.Info().Str("form_id", sub.FormID).Int("answer_count", n).Msg("large form submission")
	}

	receivedAt := ev.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	rcpt := Receipt{
		EventID:     s.newID(),
		DeliveryID:  s.newID(),
		FormID:      sub.FormID,
		AnswerCount: len(sub.Answers),
	}
	env := NewEnvelope(sub, s.cfg.WebhookID, rcpt.EventID, Metadata{
		ReceivedAt: receivedAt.UTC().Format(time.RFC3339Nano),
		IP:         ip,
		UserAgent:  ev.Headers.Get("User-Agent"),
	}, receivedAt)
	rcpt.Timestamp = env.Timestamp

	header := http.Header{}
	header.Set("User-Agent", ForwarderUserAgent)
	header.Set("X-Webhook-Source", payload.SourceTypeform)
	header.Set("X-Webhook-ID", s.cfg.WebhookID)
	header.Set("X-Webhook-Delivery", rcpt.DeliveryID)

	report, err := s.forwarder.Forward(ctx, s.cfg.Destinations, env, header)
	if err != nil {
		if errors.Is(err, forward.ErrNoDestinations) {
			return Receipt{}, newError(Configuration, "Webhook configuration error", "no destinations", err)
		}
		return Receipt{}, newError(Upstream, "Failed to forward webhook data", "", err)
	}
	rcpt.Report = report

	log = log.With().Str("form_id", sub.FormID).Str("delivery_id", rcpt.DeliveryID).Logger()
	switch report.Aggregate() {
	case forward.AllFailed:
		log.Error().Interface("failures", report.Failures()).Msg("forwarding failed for every destination")
		return rcpt, forwardingError(report)
	case forward.PartialSuccess:
		log.Warn().Interface("failures", report.Failures()).Msg("forwarding partially failed")
	default:
		log.Info().Int("destinations", len(report.Attempts)).Msg("forwarded webhook data")
	}
	return rcpt, nil
}

func (s *Service) authenticate(ev InboundEvent, log zerolog.Logger) error {
	if s.cfg.SkipSignature {
		log.Warn().Msg("SIGNATURE VERIFICATION SKIPPED")
		return nil
	}

	name, sig := signature.FromHeader(ev.Headers)
	if sig == "" || !signature.Verify(ev.Body, sig, s.cfg.Secret) {
		log.Warn().
			Bool("has_signature", sig != "").
			Str("header", name).
			Int("signature_length", len(sig)).
			Int("body_length", len(ev.Body)).
			Msg("invalid webhook signature")
		reason := "signature mismatch"
		if sig == "" {
			reason = "missing signature"
		}
		return newError(Authentication, "Unauthorized", reason, nil)
	}
	return nil
}

func forwardingError(r forward.Report) *Error {
	switch {
	case r.AllFailedWith(forward.Timeout):
		return newError(Timeout, "Webhook forwarding timeout", "", nil)
	case r.AllFailedWith(forward.NetworkError):
		return newError(Unreachable, "Failed to connect to target webhook", "", nil)
	default:
		return newError(Upstream, "Failed to forward webhook data", "", nil)
	}
}
