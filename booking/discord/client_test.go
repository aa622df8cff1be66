package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aidaptics/lead-relay/booking"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiscord struct {
	mu sync.Mutex

	tokenStatus int
	meStatus    int
	me          string
	roleStatus  int

	form       map[string]string
	bearer     string
	botAuth    string
	rolePath   string
	roleCalled int
}

func (f *fakeDiscord) server(t *testing.T) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Post("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		require.NoError(t, r.ParseForm())
		f.form = map[string]string{}
		for k := range r.PostForm {
			f.form[k] = r.PostForm.Get(k)
		}
		if f.tokenStatus != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.tokenStatus)
			_, _ = w.Write([]byte(`{"error": "invalid_grant", "error_description": "Invalid \"code\" in request."}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "user-token", "token_type": "Bearer", "expires_in": 604800, "scope": "identify email",
		})
	})
	r.Get("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.bearer = r.Header.Get("Authorization")
		w.WriteHeader(f.meStatus)
		_, _ = w.Write([]byte(f.me))
	})
	r.Put("/guilds/{guild}/members/{user}/roles/{role}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.roleCalled++
		f.botAuth = r.Header.Get("Authorization")
		f.rolePath = chi.URLParam(r, "guild") + "/" + chi.URLParam(r, "user") + "/" + chi.URLParam(r, "role")
		w.WriteHeader(f.roleStatus)
		if f.roleStatus >= 300 {
			_, _ = w.Write([]byte(`{"message": "Missing Permissions", "code": 50013}`))
		}
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return New(Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURI:  "https://relay.example.com/api/discord-auth/callback",
		BotToken:     "bot-token",
		GuildID:      "g1",
		RoleID:       "r1",
		APIURL:       srv.URL + "/",
	}, WithHTTPClient(srv.Client()))
}

func TestClient_Exchange(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		fake := &fakeDiscord{tokenStatus: http.StatusOK}
		c := newTestClient(fake.server(t))

		token, err := c.Exchange(ctx, "the-code")
		fake.mu.Lock()
		defer fake.mu.Unlock()

		require.NoError(t, err)
		assert.Equal(t, "user-token", token)
		assert.Equal(t, "the-code", fake.form["code"])
		assert.Equal(t, "authorization_code", fake.form["grant_type"])
		assert.Equal(t, "client", fake.form["client_id"])
		assert.Equal(t, "secret", fake.form["client_secret"])
		assert.Equal(t, "https://relay.example.com/api/discord-auth/callback", fake.form["redirect_uri"])
	})

	t.Run("error - rejected code keeps body", func(t *testing.T) {
		fake := &fakeDiscord{tokenStatus: http.StatusBadRequest}
		c := newTestClient(fake.server(t))

		_, err := c.Exchange(ctx, "stale")

		var upErr *booking.UpstreamError
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, http.StatusBadRequest, upErr.StatusCode)
		assert.Contains(t, upErr.Body, "invalid_grant")
	})
}

func TestClient_FetchIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		fake := &fakeDiscord{meStatus: http.StatusOK, me: `{"id":"42","username":"ada","email":"ada@example.com","verified":true}`}
		c := newTestClient(fake.server(t))

		id, err := c.FetchIdentity(ctx, "user-token")
		fake.mu.Lock()
		defer fake.mu.Unlock()

		require.NoError(t, err)
		assert.Equal(t, booking.Identity{ID: "42", Email: "ada@example.com"}, id)
		assert.Equal(t, "Bearer user-token", fake.bearer)
	})

	t.Run("success - no email scope", func(t *testing.T) {
		fake := &fakeDiscord{meStatus: http.StatusOK, me: `{"id":"42","username":"ada"}`}
		c := newTestClient(fake.server(t))

		id, err := c.FetchIdentity(ctx, "user-token")

		require.NoError(t, err)
		assert.Empty(t, id.Email)
	})

	t.Run("error - unauthorized", func(t *testing.T) {
		fake := &fakeDiscord{meStatus: http.StatusUnauthorized, me: `{"message": "401: Unauthorized", "code": 0}`}
		c := newTestClient(fake.server(t))

		_, err := c.FetchIdentity(ctx, "expired")

		var upErr *booking.UpstreamError
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, "identity", upErr.Op)
		assert.Equal(t, `{"message": "401: Unauthorized", "code": 0}`, upErr.Body)
	})

	t.Run("error - malformed body", func(t *testing.T) {
		fake := &fakeDiscord{meStatus: http.StatusOK, me: `not json`}
		c := newTestClient(fake.server(t))

		_, err := c.FetchIdentity(ctx, "user-token")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding identity")
	})
}

func TestClient_GrantRole(t *testing.T) {
	ctx := context.Background()

	for _, status := range []int{http.StatusNoContent, http.StatusCreated} {
		t.Run("success - "+http.StatusText(status), func(t *testing.T) {
			fake := &fakeDiscord{roleStatus: status}
			c := newTestClient(fake.server(t))

			require.NoError(t, c.GrantRole(ctx, "42"))
			fake.mu.Lock()
			defer fake.mu.Unlock()
			assert.Equal(t, "Bot bot-token", fake.botAuth)
			assert.Equal(t, "g1/42/r1", fake.rolePath)
		})
	}

	t.Run("error - 200 is not accepted", func(t *testing.T) {
		fake := &fakeDiscord{roleStatus: http.StatusOK}
		c := newTestClient(fake.server(t))

		err := c.GrantRole(ctx, "42")

		var upErr *booking.UpstreamError
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, http.StatusOK, upErr.StatusCode)
	})

	t.Run("error - forbidden", func(t *testing.T) {
		fake := &fakeDiscord{roleStatus: http.StatusForbidden}
		c := newTestClient(fake.server(t))

		err := c.GrantRole(ctx, "42")

		var upErr *booking.UpstreamError
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, "role grant", upErr.Op)
		assert.Contains(t, upErr.Body, "Missing Permissions")
		fake.mu.Lock()
		defer fake.mu.Unlock()
		assert.Equal(t, 1, fake.roleCalled)
	})
}

func TestConfig_Configured(t *testing.T) {
	cfg := Config{ClientID: "a", ClientSecret: "b", RedirectURI: "c", BotToken: "d", GuildID: "e", RoleID: "f"}
	assert.True(t, cfg.Configured())

	cfg.RoleID = ""
	assert.False(t, cfg.Configured())
}

func TestClient_AuthCodeURL(t *testing.T) {
	c := New(Config{ClientID: "client", RedirectURI: "https://relay.example.com/cb"})

	got := c.AuthCodeURL("xyz")

	assert.Contains(t, got, DefaultAPIURL+"/oauth2/authorize?")
	assert.Contains(t, got, "client_id=client")
	assert.Contains(t, got, "state=xyz")
	assert.Contains(t, got, "scope=identify+email+guilds.join")
}
