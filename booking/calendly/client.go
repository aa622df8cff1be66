package calendly

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aidaptics/lead-relay/booking"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIURL is Calendly's REST base
	DefaultAPIURL = "https://api.calendly.com"

	// DefaultPageSize is the number of scheduled events inspected per lookup
	DefaultPageSize = 100

	// DefaultRequestsPerSecond paces the invitee fan-out
	DefaultRequestsPerSecond = 10

	maxBody        = 4096
	requestTimeout = 15 * time.Second
)

type Config struct {
	Token             string
	UserUUID          string
	APIURL            string
	PageSize          int
	RequestsPerSecond float64
}

// Configured reports whether a token and an organizer are present
func (c Config) Configured() bool {
	return c.Token != "" && c.UserUUID != ""
}

/* Client looks up bookings for one organizer
 * Only the first page of scheduled events is inspected, so bookings
 * beyond PageSize events are not found
 */
type Client struct {
	http     *http.Client
	limiter  *rate.Limiter
	apiURL   string
	token    string
	userURI  string
	pageSize int
	logger   zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for every call
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the client logger
func WithLogger(l zerolog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New creates a Calendly client
func New(cfg Config, opts ...Option) *Client {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}

	c := &Client{
		http:     &http.Client{Timeout: requestTimeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		apiURL:   apiURL,
		token:    cfg.Token,
		userURI:  apiURL + "/users/" + cfg.UserUUID,
		pageSize: pageSize,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type scheduledEvent struct {
	URI string `json:"uri"`
}

type invitee struct {
	Email string `json:"email"`
}

type collection[T any] struct {
	Collection []T `json:"collection"`
}

/* HasBooking implements booking.BookingChecker
 * A failed events request is an error; a failed invitee request skips that event.
 * Emails are compared case-insensitively.
 */
func (c *Client) HasBooking(ctx context.Context, email string) (bool, error) {
	q := url.Values{}
	q.Set("user", c.userURI)
	q.Set("count", strconv.Itoa(c.pageSize))

	var events collection[scheduledEvent]
	if err := c.get(ctx, "scheduled events", c.apiURL+"/scheduled_events?"+q.Encode(), &events); err != nil {
		return false, err
	}

	want := strings.TrimSpace(email)
	for _, ev := range events.Collection {
		id := path.Base(strings.TrimRight(ev.URI, "/"))
		if id == "" || id == "." || id == "/" {
			continue
		}

		var invitees collection[invitee]
		endpoint := c.apiURL + "/scheduled_events/" + url.PathEscape(id) + "/invitees"
		if err := c.get(ctx, "invitees", endpoint, &invitees); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			c.logger.Warn().Err(err).Str("event", id).Msg("skipping event, invitees unavailable")
			continue
		}

		for _, inv := range invitees.Collection {
			if strings.EqualFold(strings.TrimSpace(inv.Email), want) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (c *Client) get(ctx context.Context, op, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		return &booking.UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", op, err)
	}
	return nil
}
