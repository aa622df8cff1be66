// Package leads relays get-started form submissions to the sales channels.
//
// The Discord channel receives the body exactly as posted; the automation webhook
// receives a flat record built from the first embed's fields.
package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/aidaptics/lead-relay/forward"
	"github.com/aidaptics/lead-relay/ratelimit"
	"github.com/rs/zerolog"
)

// Source tags records sent to the automation webhook
const Source = "AIdaptics Get-Started Form"

const (
	discordName = "Discord"
	n8nName     = "n8n"
)

var (
	ErrNotConfigured = errors.New("no webhook URLs configured")
	ErrInvalidBody   = errors.New("invalid JSON body")
	ErrInvalidConfig = errors.New("invalid lead webhook configuration")
)

var nonWord = regexp.MustCompile(`[^\w\s]`)

type Config struct {
	DiscordWebhookURL string
	N8NWebhookURL     string
}

// Destinations returns the configured sinks, Discord first, each validated
func (c Config) Destinations() ([]forward.Destination, error) {
	var out []forward.Destination
	for _, slot := range []struct {
		name   string
		url    string
		format forward.Format
		role   forward.Role
	}{
		{discordName, c.DiscordWebhookURL, forward.Discord, forward.Primary},
		{n8nName, c.N8NWebhookURL, forward.Lead, forward.Secondary},
	} {
		if slot.url == "" {
			continue
		}
		d, err := forward.NewDestination(slot.name, slot.url, slot.format, slot.role)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		out = append(out, d)
	}
	return out, nil
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

/* Submission is one posted form
 * Discord destinations get Raw untouched, lead destinations get the flat record
 */
type Submission struct {
	Raw        json.RawMessage
	Fields     map[string]any
	ReceivedAt time.Time
}

// ParseSubmission decodes a posted body; it must be a JSON object
func ParseSubmission(raw []byte, receivedAt time.Time) (Submission, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		if err == nil {
			err = errors.New("body is null")
		}
		return Submission{}, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	fields, err := flatten(body)
	if err != nil {
		return Submission{}, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	return Submission{
		Raw:        append(json.RawMessage(nil), raw...),
		Fields:     fields,
		ReceivedAt: receivedAt,
	}, nil
}

type embed struct {
	Fields *[]embedField `json:"fields"`
}

type embedField struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// flatten keys embeds[0].fields by cleaned name, or falls back to the top-level members
func flatten(body map[string]json.RawMessage) (map[string]any, error) {
	var embeds []embed
	if raw, ok := body["embeds"]; ok {
		// a malformed embeds member falls back to the body itself
		_ = json.Unmarshal(raw, &embeds)
	}

	if len(embeds) > 0 && embeds[0].Fields != nil {
		out := make(map[string]any, len(*embeds[0].Fields))
		for _, f := range *embeds[0].Fields {
			out[FieldKey(f.Name)] = f.Value
		}
		return out, nil
	}

	out := make(map[string]any, len(body))
	for k, raw := range body {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decoding %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// FieldKey turns an embed field name into a record key: "📧 E-mail:" becomes "email"
func FieldKey(name string) string {
	return strings.ToLower(strings.TrimSpace(nonWord.ReplaceAllString(name, "")))
}

// Record is the body sent to lead destinations
func (s Submission) Record() map[string]any {
	out := make(map[string]any, len(s.Fields)+2)
	out["timestamp"] = s.ReceivedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	out["source"] = Source
	for k, v := range s.Fields {
		out[k] = v
	}
	return out
}

// Encode implements forward.Payload
func (s Submission) Encode(d forward.Destination) ([]byte, error) {
	if d.Format == forward.Lead {
		b, err := json.Marshal(s.Record())
		if err != nil {
			return nil, fmt.Errorf("encoding lead record: %w", err)
		}
		return b, nil
	}
	return s.Raw, nil
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

// WithClock replaces time.Now for record timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	cfg       Config
	limiter   Limiter
	forwarder Forwarder
	observer  ratelimit.Observer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a lead relay service
func NewService(cfg Config, limiter Limiter, fwd Forwarder, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		limiter:   limiter,
		forwarder: fwd,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit relays a posted form to every configured destination
func (s *Service) Submit(ctx context.Context, body []byte, clientIP string) (forward.Report, error) {
	dests, err := s.cfg.Destinations()
	if err != nil {
		s.logger.Error().Err(err).Msg("lead webhook URLs are invalid")
		return forward.Report{}, err
	}
	if len(dests) == 0 {
		s.logger.Error().Msg("no lead webhook URLs configured")
		return forward.Report{}, ErrNotConfigured
	}

	if s.limiter != nil {
		allowed := s.limiter.Admit(clientIP)
		if s.observer != nil {
			s.observer.ObserveDecision(ctx, s.limiter.Name(), allowed)
		}
		if !allowed {
			s.logger.Warn().Str("ip", ratelimit.Mask(clientIP)).Msg("rate limit exceeded")
			return forward.Report{}, ratelimit.ErrLimitExceeded
		}
	}

	sub, err := ParseSubmission(body, s.now())
	if err != nil {
		return forward.Report{}, err
	}

	report, err := s.forwarder.Forward(ctx, dests, sub, nil)
	if err != nil {
		return forward.Report{}, fmt.Errorf("forwarding lead: %w", err)
	}

	for _, f := range report.Failures() {
		s.logger.Error().Str("webhook", f.Destination).Int("status", f.StatusCode).Str("error", f.Error).Msg("lead webhook failed")
	}
	for _, name := range report.Successes() {
		s.logger.Info().Str("webhook", name).Msg("lead webhook sent")
	}
	return report, nil
}
