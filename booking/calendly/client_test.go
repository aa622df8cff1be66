package calendly

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aidaptics/lead-relay/booking"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCalendly struct {
	mu sync.Mutex

	eventsStatus int
	events       []string
	invitees     map[string][]string
	broken       map[string]bool

	query        map[string]string
	auth         string
	inviteeCalls []string
}

func (f *fakeCalendly) server(t *testing.T) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/scheduled_events", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.auth = r.Header.Get("Authorization")
		f.query = map[string]string{"user": r.URL.Query().Get("user"), "count": r.URL.Query().Get("count")}
		if f.eventsStatus != http.StatusOK {
			w.WriteHeader(f.eventsStatus)
			_, _ = w.Write([]byte(`{"title":"Unauthenticated","message":"The access token is invalid"}`))
			return
		}
		fmt.Fprint(w, `{"collection":[`)
		for i, uuid := range f.events {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"uri":"https://api.calendly.com/scheduled_events/%s","name":"Discovery call"}`, uuid)
		}
		fmt.Fprint(w, `],"pagination":{"count":1}}`)
	})
	r.Get("/scheduled_events/{uuid}/invitees", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		uuid := chi.URLParam(r, "uuid")
		f.inviteeCalls = append(f.inviteeCalls, uuid)
		if f.broken[uuid] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"collection":[`)
		for i, email := range f.invitees[uuid] {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"email":%q,"status":"active"}`, email)
		}
		fmt.Fprint(w, `]}`)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return New(Config{
		Token:             "cal-token",
		UserUUID:          "ORG-1",
		APIURL:            srv.URL,
		RequestsPerSecond: 1000,
	}, WithHTTPClient(srv.Client()))
}

func TestClient_HasBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("success - found in a later event", func(t *testing.T) {
		fake := &fakeCalendly{
			eventsStatus: http.StatusOK,
			events:       []string{"E1", "E2", "E3"},
			invitees: map[string][]string{
				"E1": {"someone@example.com"},
				"E2": {"ada@example.com"},
				"E3": {"late@example.com"},
			},
		}
		srv := fake.server(t)
		c := newTestClient(srv)

		booked, err := c.HasBooking(ctx, "ada@example.com")

		require.NoError(t, err)
		assert.True(t, booked)

		fake.mu.Lock()
		defer fake.mu.Unlock()
		assert.Equal(t, "Bearer cal-token", fake.auth)
		assert.Equal(t, srv.URL+"/users/ORG-1", fake.query["user"])
		assert.Equal(t, "100", fake.query["count"])
		assert.Equal(t, []string{"E1", "E2"}, fake.inviteeCalls)
	})

	t.Run("success - case-insensitive email", func(t *testing.T) {
		fake := &fakeCalendly{
			eventsStatus: http.StatusOK,
			events:       []string{"E1"},
			invitees:     map[string][]string{"E1": {"Ada@Example.com"}},
		}
		c := newTestClient(fake.server(t))

		booked, err := c.HasBooking(ctx, "ada@example.com")

		require.NoError(t, err)
		assert.True(t, booked)
	})

	t.Run("success - failing invitee request is skipped", func(t *testing.T) {
		fake := &fakeCalendly{
			eventsStatus: http.StatusOK,
			events:       []string{"E1", "E2"},
			invitees:     map[string][]string{"E2": {"ada@example.com"}},
			broken:       map[string]bool{"E1": true},
		}
		c := newTestClient(fake.server(t))

		booked, err := c.HasBooking(ctx, "ada@example.com")

		require.NoError(t, err)
		assert.True(t, booked)
	})

	t.Run("not found", func(t *testing.T) {
		fake := &fakeCalendly{
			eventsStatus: http.StatusOK,
			events:       []string{"E1"},
			invitees:     map[string][]string{"E1": {"other@example.com"}},
		}
		c := newTestClient(fake.server(t))

		booked, err := c.HasBooking(ctx, "ada@example.com")

		require.NoError(t, err)
		assert.False(t, booked)
	})

	t.Run("not found - no events", func(t *testing.T) {
		fake := &fakeCalendly{eventsStatus: http.StatusOK}
		c := newTestClient(fake.server(t))

		booked, err := c.HasBooking(ctx, "ada@example.com")

		require.NoError(t, err)
		assert.False(t, booked)
	})

	t.Run("error - events request rejected", func(t *testing.T) {
		fake := &fakeCalendly{eventsStatus: http.StatusUnauthorized}
		c := newTestClient(fake.server(t))

		_, err := c.HasBooking(ctx, "ada@example.com")

		var upErr *booking.UpstreamError
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, "scheduled events", upErr.Op)
		assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	})

	t.Run("error - cancelled context", func(t *testing.T) {
		fake := &fakeCalendly{eventsStatus: http.StatusOK, events: []string{"E1"}}
		c := newTestClient(fake.server(t))

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := c.HasBooking(cctx, "ada@example.com")
		require.Error(t, err)
	})
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{Token: "t", UserUUID: "U"})

	assert.Equal(t, DefaultAPIURL, c.apiURL)
	assert.Equal(t, DefaultAPIURL+"/users/U", c.userURI)
	assert.Equal(t, DefaultPageSize, c.pageSize)
	assert.True(t, Config{Token: "t", UserUUID: "U"}.Configured())
	assert.False(t, Config{Token: "t"}.Configured())
}
