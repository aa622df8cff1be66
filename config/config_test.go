package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aidaptics/lead-relay/forward"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("success - defaults without file", func(t *testing.T) {
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, "3000", cfg.Port)
		assert.Equal(t, "typeform", cfg.WebhookID)
		assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
		assert.Equal(t, 10*time.Second, cfg.ForwardTimeout)
		assert.Equal(t, 60*time.Second, cfg.RateLimitWindow)
		assert.Equal(t, 500, cfg.RateLimitMaxKeys)
		assert.Equal(t, 500, cfg.RateLimitMaxRequests)
		assert.Equal(t, 100, cfg.CalendlyPageSize)
		assert.Equal(t, 10.0, cfg.CalendlyRequestsPerSecond)
		assert.False(t, cfg.OAuthVerboseErrors)
		assert.Empty(t, cfg.RedisAddr)
	})

	t.Run("success - environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("WEBHOOK_ID", "intake")
		t.Setenv("FORWARD_TIMEOUT", "3s")
		t.Setenv("RATE_LIMIT_MAX_REQUESTS", "5")
		t.Setenv("OAUTH_VERBOSE_ERRORS", "true")

		cfg, err := Load(t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "intake", cfg.WebhookID)
		assert.Equal(t, 3*time.Second, cfg.ForwardTimeout)
		assert.Equal(t, 5, cfg.RateLimitMaxRequests)
		assert.True(t, cfg.OAuthVerboseErrors)
	})

	t.Run("success - .env file with env taking precedence", func(t *testing.T) {
		dir := t.TempDir()
		content := "WEBHOOK_SECRET_KEY = \"from-file\"\nTARGET_WEBHOOK_URL = \"https://hooks.example.com/in\"\nPORT = \"4000\"\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))
		t.Setenv("PORT", "5000")

		cfg, err := Load(dir)
		require.NoError(t, err)

		assert.Equal(t, "from-file", cfg.WebhookSecretKey)
		assert.Equal(t, "https://hooks.example.com/in", cfg.TargetWebhookURL)
		assert.Equal(t, "5000", cfg.Port)
	})

	t.Run("error - malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT = = 1"), 0o600))

		_, err := Load(dir)
		assert.ErrorContains(t, err, "reading config file")
	})

	t.Run("error - invalid value", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loud")

		_, err := Load(t.TempDir())
		assert.ErrorContains(t, err, "validating config")
	})
}

func TestConfig_SignatureBypass(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"production ignores skip", Config{AppEnv: "production", SkipSignature: true}, false},
		{"development honors skip", Config{AppEnv: EnvDevelopment, SkipSignature: true}, true},
		{"development without skip", Config{AppEnv: EnvDevelopment}, false},
		{"force anywhere", Config{AppEnv: "production", ForceSkipSignature: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.SignatureBypass())
		})
	}
}

func TestConfig_Destinations(t *testing.T) {
	t.Run("success - env slots then file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "destinations.yaml")
		yaml := `destinations:
  - name: crm
    url: https://crm.example.com/hook
    format: full
    role: secondary
`
		require.NoError(t, os.WriteFile(file, []byte(yaml), 0o600))

		cfg := Config{
			TargetWebhookURL:    "https://discord.com/api/webhooks/1/abc",
			SecondaryWebhookURL: "https://n8n.example.com/webhook/x",
			DestinationsFile:    file,
		}

		dests, err := cfg.Destinations()
		require.NoError(t, err)
		require.Len(t, dests, 3)

		assert.Equal(t, "target", dests[0].Name)
		assert.Equal(t, forward.Discord, dests[0].Format)
		assert.Equal(t, forward.Primary, dests[0].Role)
		assert.Equal(t, "secondary", dests[1].Name)
		assert.Equal(t, forward.Full, dests[1].Format)
		assert.Equal(t, forward.Secondary, dests[1].Role)
		assert.Equal(t, "crm", dests[2].Name)
	})

	t.Run("success - none configured", func(t *testing.T) {
		dests, err := (&Config{}).Destinations()
		require.NoError(t, err)
		assert.Empty(t, dests)
	})

	t.Run("error - invalid url", func(t *testing.T) {
		_, err := (&Config{TargetWebhookURL: "not a url"}).Destinations()
		assert.ErrorContains(t, err, "building target destination")
	})

	t.Run("error - duplicate name from file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "destinations.yaml")
		yaml := "destinations:\n  - name: target\n    url: https://x.example.com/\n"
		require.NoError(t, os.WriteFile(file, []byte(yaml), 0o600))

		_, err := (&Config{TargetWebhookURL: "https://a.example.com/", DestinationsFile: file}).Destinations()
		assert.ErrorContains(t, err, "duplicate destination name")
	})
}

func TestConfig_Builders(t *testing.T) {
	cfg := Config{
		WebhookID:           "typeform",
		WebhookSecretKey:    "s",
		MaxBodyBytes:        10,
		TargetWebhookURL:    "https://a.example.com/",
		DiscordWebhookURL:   "https://discord.com/api/webhooks/1/x",
		DiscordClientID:     "id",
		DiscordBookedRoleID: "role",
		CalendlyToken:       "tok",
		CalendlyPageSize:    50,
	}

	wh, err := cfg.Webhook()
	require.NoError(t, err)
	assert.Equal(t, "typeform", wh.WebhookID)
	assert.Equal(t, "s", wh.Secret)
	assert.Equal(t, int64(10), wh.MaxBodyBytes)
	assert.Len(t, wh.Destinations, 1)

	assert.Equal(t, "https://discord.com/api/webhooks/1/x", cfg.Leads().DiscordWebhookURL)
	assert.Equal(t, "role", cfg.Discord().RoleID)
	assert.Equal(t, 50, cfg.Calendly().PageSize)
}
