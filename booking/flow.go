package booking

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// Result is the terminal outcome of a run
type Result struct {
	State    State
	FailedAt State
	Reason   string
	Session  Session
}

// Success returns true when the role was granted
func (r Result) Success() bool {
	return r.State == RoleGranted
}

// Recorder observes every finished run
type Recorder interface {
	RecordFlow(ctx context.Context, r Result)
}

// Option configures a Flow
type Option func(*Flow)

// WithVerboseErrors appends upstream response bodies to user-facing reasons
func WithVerboseErrors(verbose bool) Option {
	return func(f *Flow) { f.verbose = verbose }
}

// WithLogger sets the flow logger
func WithLogger(l zerolog.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

// WithRecorder reports finished runs
func WithRecorder(r Recorder) Option {
	return func(f *Flow) { f.recorder = r }
}

// transition handles one state and returns the next one, or Failed with a reason
type transition func(f *Flow, ctx context.Context, s *Session) (State, string)

var transitions = map[State]transition{
	Start:           (*Flow).receiveCode,
	CodeReceived:    (*Flow).exchangeToken,
	TokenExchanged:  (*Flow).fetchIdentity,
	IdentityFetched: (*Flow).checkBooking,
	BookingChecked:  (*Flow).grantRole,
}

type Flow struct {
	tokens   TokenExchanger
	identity IdentityFetcher
	bookings BookingChecker
	roles    RoleGranter
	verbose  bool
	logger   zerolog.Logger
	recorder Recorder
}

// NewFlow creates a flow over the four external steps
func NewFlow(tokens TokenExchanger, identity IdentityFetcher, bookings BookingChecker, roles RoleGranter, opts ...Option) *Flow {
	f := &Flow{
		tokens:   tokens,
		identity: identity,
		bookings: bookings,
		roles:    roles,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run drives one callback from Start to a terminal state
func (f *Flow) Run(ctx context.Context, code string) Result {
	s := &Session{Code: code}
	state := Start

	for !state.IsTerminal() {
		step, ok := transitions[state]
		if !ok {
			return f.finish(ctx, Result{State: Failed, FailedAt: state, Reason: "unexpected state", Session: *s})
		}

		next, reason := step(f, ctx, s)
		if next == Failed {
			return f.finish(ctx, Result{State: Failed, FailedAt: state, Reason: reason, Session: *s})
		}
		f.logger.Debug().Str("from", state.String()).Str("to", next.String()).Msg("booking flow transition")
		state = next
	}
	return f.finish(ctx, Result{State: state, Session: *s})
}

func (f *Flow) finish(ctx context.Context, r Result) Result {
	if r.Success() {
		f.logger.Info().Str("user_id", r.Session.UserID).Msg("booked role granted")
	} else {
		f.logger.Warn().Str("failed_at", r.FailedAt.String()).Str("reason", r.Reason).Msg("booking verification failed")
	}
	if f.recorder != nil {
		f.recorder.RecordFlow(ctx, r)
	}
	return r
}

func (f *Flow) receiveCode(_ context.Context, s *Session) (State, string) {
	if strings.TrimSpace(s.Code) == "" {
		return Failed, ReasonNoCode
	}
	return CodeReceived, ""
}

func (f *Flow) exchangeToken(ctx context.Context, s *Session) (State, string) {
	token, err := f.tokens.Exchange(ctx, s.Code)
	if err != nil {
		return Failed, f.upstreamReason(ReasonToken, err)
	}
	s.AccessToken = token
	return TokenExchanged, ""
}

func (f *Flow) fetchIdentity(ctx context.Context, s *Session) (State, string) {
	id, err := f.identity.FetchIdentity(ctx, s.AccessToken)
	if err != nil {
		return Failed, f.upstreamReason(ReasonIdentity, err)
	}
	s.UserID = id.ID
	s.Email = strings.TrimSpace(id.Email)
	if s.Email == "" {
		return Failed, ReasonNoEmail
	}
	return IdentityFetched, ""
}

func (f *Flow) checkBooking(ctx context.Context, s *Session) (State, string) {
	booked, err := f.bookings.HasBooking(ctx, s.Email)
	if err != nil {
		f.logger.Error().Err(err).Msg("booking lookup failed")
		return Failed, ReasonBookingLookup
	}
	if !booked {
		return Failed, ReasonBookingNotFound
	}
	s.BookingVerified = true
	return BookingChecked, ""
}

func (f *Flow) grantRole(ctx context.Context, s *Session) (State, string) {
	if err := f.roles.GrantRole(ctx, s.UserID); err != nil {
		return Failed, f.upstreamReason(ReasonRole, err)
	}
	return RoleGranted, ""
}

// upstreamReason logs err and appends its detail to prefix in verbose mode
func (f *Flow) upstreamReason(prefix string, err error) string {
	f.logger.Error().Err(err).Msg(prefix)
	if !f.verbose {
		return prefix
	}

	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return prefix + ": " + upErr.Body
	}
	return prefix + ": " + err.Error()
}

// RedirectURL appends the run outcome to the result page path
func RedirectURL(resultPath string, r Result) string {
	if r.Success() {
		return resultPath + "?success"
	}
	reason := r.Reason
	if reason == "" {
		reason = "Unknown error"
	}
	return resultPath + "?error=" + strings.ReplaceAll(url.QueryEscape(reason), "+", "%20")
}
