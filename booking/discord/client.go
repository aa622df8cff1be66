package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aidaptics/lead-relay/booking"
	"golang.org/x/oauth2"
)

const (
	// DefaultAPIURL is Discord's REST base
	DefaultAPIURL = "https://discord.com/api"

	maxBody        = 4096
	requestTimeout = 15 * time.Second
)

// DefaultScopes are requested when the user is sent to the authorize page
var DefaultScopes = []string{"identify", "email", "guilds.join"}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	BotToken     string
	GuildID      string
	RoleID       string
	APIURL       string
}

// Configured reports whether every value the flow needs is present
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURI != "" &&
		c.BotToken != "" && c.GuildID != "" && c.RoleID != ""
}

/* Client talks to Discord for the booking flow
 * Implements booking.TokenExchanger, booking.IdentityFetcher and booking.RoleGranter
 */
type Client struct {
	oauth    *oauth2.Config
	http     *http.Client
	apiURL   string
	botToken string
	guildID  string
	roleID   string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for every call
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// New creates a Discord client
func New(cfg Config, opts ...Option) *Client {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       DefaultScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   apiURL + "/oauth2/authorize",
				TokenURL:  apiURL + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		http:     &http.Client{Timeout: requestTimeout},
		apiURL:   apiURL,
		botToken: cfg.BotToken,
		guildID:  cfg.GuildID,
		roleID:   cfg.RoleID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthCodeURL returns the authorize page the user must visit
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			return "", &booking.UpstreamError{Op: "token exchange", StatusCode: rerr.Response.StatusCode, Body: string(rerr.Body)}
		}
		return "", fmt.Errorf("exchanging code: %w", err)
	}
	return tok.AccessToken, nil
}

// FetchIdentity returns the id and email of the token owner
func (c *Client) FetchIdentity(ctx context.Context, accessToken string) (booking.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/users/@me", nil)
	if err != nil {
		return booking.Identity{}, fmt.Errorf("creating identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return booking.Identity{}, fmt.Errorf("fetching identity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return booking.Identity{}, upstreamError("identity", resp)
	}

	var id booking.Identity
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&id); err != nil {
		return booking.Identity{}, fmt.Errorf("decoding identity: %w", err)
	}
	return id, nil
}

// GrantRole adds the configured role to a guild member; only 201 and 204 count as success
func (c *Client) GrantRole(ctx context.Context, userID string) error {
	endpoint := fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s",
		c.apiURL, url.PathEscape(c.guildID), url.PathEscape(userID), url.PathEscape(c.roleID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating role request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("granting role: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return upstreamError("role grant", resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func upstreamError(op string, resp *http.Response) *booking.UpstreamError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	return &booking.UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
