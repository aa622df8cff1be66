package forward

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout bounds a single delivery attempt
	DefaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of a failed response body is kept for diagnostics
	maxErrorBody = 2048
)

// ErrNoDestinations is returned when Forward is called without any destination
var ErrNoDestinations = errors.New("no destinations configured")

// Payload produces the body sent to a destination
type Payload interface {
	Encode(d Destination) ([]byte, error)
}

// Doer is the subset of *http.Client the forwarder needs
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder observes every resolved attempt
type Recorder interface {
	RecordAttempt(ctx context.Context, a Attempt)
}

// Attempt is the resolution of one delivery to one destination
type Attempt struct {
	Destination string        `json:"destination"`
	Role        string        `json:"role"`
	Outcome     Outcome       `json:"outcome"`
	StatusCode  int           `json:"status,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"-"`
}

// Report collects the attempts made for one event, in destination order
type Report struct {
	Attempts []Attempt
}

// Aggregate computes the overall outcome of the report
func (r Report) Aggregate() Aggregate {
	failed := len(r.Failures())
	switch {
	case failed == 0:
		return FullSuccess
	case failed == len(r.Attempts):
		return AllFailed
	default:
		return PartialSuccess
	}
}

// Failures returns the failed attempts
func (r Report) Failures() []Attempt {
	var out []Attempt
	for _, a := range r.Attempts {
		if a.Outcome.IsFailure() {
			out = append(out, a)
		}
	}
	return out
}

// Successes returns the names of destinations that accepted the delivery
func (r Report) Successes() []string {
	var out []string
	for _, a := range r.Attempts {
		if !a.Outcome.IsFailure() {
			out = append(out, a.Destination)
		}
	}
	return out
}

// AllFailedWith reports whether every attempt failed with the given outcome
func (r Report) AllFailedWith(o Outcome) bool {
	if len(r.Attempts) == 0 {
		return false
	}
	for _, a := range r.Attempts {
		if a.Outcome != o {
			return false
		}
	}
	return true
}

// Option configures a Forwarder
type Option func(*Forwarder)

// WithTimeout sets the per-attempt deadline
func WithTimeout(d time.Duration) Option {
	return func(f *Forwarder) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithClient replaces the HTTP client
func WithClient(c Doer) Option {
	return func(f *Forwarder) { f.client = c }
}

// WithHeader adds a static header to every outbound request
func WithHeader(key, value string) Option {
	return func(f *Forwarder) { f.headers.Set(key, value) }
}

// WithRecorder attaches an attempt recorder
func WithRecorder(r Recorder) Option {
	return func(f *Forwarder) { f.recorder = r }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(f *Forwarder) { f.logger = l }
}

/* Forwarder delivers one payload to many destinations concurrently
 * Uses pointer semantics as it's an API, not data
 * It never retries: each destination gets exactly one attempt
 */
type Forwarder struct {
	client   Doer
	timeout  time.Duration
	headers  http.Header
	recorder Recorder
	logger   zerolog.Logger
}

// New creates a forwarder with a 10 second per-attempt timeout
func New(opts ...Option) *Forwarder {
	f := &Forwarder{
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
		headers: http.Header{"Content-Type": []string{"application/json"}},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Timeout returns the per-attempt deadline
func (f *Forwarder) Timeout() time.Duration {
	return f.timeout
}

// Forward encodes the payload for every destination and delivers all of them concurrently.
// All attempts are awaited; one failing destination never blocks the others.
func (f *Forwarder) Forward(ctx context.Context, dests []Destination, p Payload, header http.Header) (Report, error) {
	if len(dests) == 0 {
		return Report{}, ErrNoDestinations
	}

	bodies := make([][]byte, len(dests))
	for i, d := range dests {
		body, err := p.Encode(d)
		if err != nil {
			return Report{}, fmt.Errorf("encoding payload for %s: %w", d.Name, err)
		}
		bodies[i] = body
	}

	attempts := make([]Attempt, len(dests))
	var g errgroup.Group
	for i, d := range dests {
		g.Go(func() error {
			attempts[i] = f.deliver(ctx, d, bodies[i], header)
			return nil
		})
	}
	_ = g.Wait()

	return Report{Attempts: attempts}, nil
}

func (f *Forwarder) deliver(ctx context.Context, d Destination, body []byte, header http.Header) (a Attempt) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	a = Attempt{
		Destination: d.Name,
		Role:        d.Role.String(),
	}

	defer func() {
		a.Duration = time.Since(start)
		if f.recorder != nil {
			f.recorder.RecordAttempt(ctx, a)
		}
	}()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, d.URL, bytes.NewReader(body))
	if err != nil {
		a.Outcome = NetworkError
		a.Error = fmt.Sprintf("building request: %v", withoutURL(err))
		return a
	}
	for k, v := range f.headers {
		req.Header[k] = v
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := f.client.Do(req)
	if err != nil {
		a.Outcome = classify(attemptCtx, err)
		err = withoutURL(err)
		a.Error = err.Error()
		f.logger.Error().Err(err).
			Str("destination", d.Name).
			Str("outcome", a.Outcome.String()).
			Msg("delivery failed")
		return a
	}
	defer resp.Body.Close()

	a.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		a.Outcome = HTTPError
		a.Error = string(snippet)
		f.logger.Error().
			Str("destination", d.Name).
			Int("status", resp.StatusCode).
			Str("body", a.Error).
			Msg("destination rejected delivery")
		return a
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	a.Outcome = Success
	f.logger.Info().
		Str("destination", d.Name).
		Int("status", resp.StatusCode).
		Msg("delivered")
	return a
}

// classify separates deadline expiry from every other transport failure
func classify(attemptCtx context.Context, err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return Timeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Timeout
	}
	return NetworkError
}

// withoutURL drops the request URL from transport errors; webhook URLs carry credentials in the path
func withoutURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
