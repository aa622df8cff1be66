// Package config loads relay settings from an optional .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/aidaptics/lead-relay/booking/calendly"
	"github.com/aidaptics/lead-relay/booking/discord"
	"github.com/aidaptics/lead-relay/forward"
	"github.com/aidaptics/lead-relay/leads"
	"github.com/aidaptics/lead-relay/ratelimit"
	"github.com/aidaptics/lead-relay/webhook"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// EnvDevelopment is the only environment where SKIP_SIGNATURE_VERIFICATION is honored
	EnvDevelopment = "development"

	targetName    = "target"
	secondaryName = "secondary"
)

var validate = validator.New()

type Config struct {
	Port      string `mapstructure:"PORT" validate:"required"`
	AppEnv    string `mapstructure:"APP_ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"oneof=json text"`

	WebhookID           string        `mapstructure:"WEBHOOK_ID" validate:"required"`
	TargetWebhookURL    string        `mapstructure:"TARGET_WEBHOOK_URL"`
	SecondaryWebhookURL string        `mapstructure:"SECONDARY_WEBHOOK_URL"`
	DestinationsFile    string        `mapstructure:"DESTINATIONS_FILE"`
	WebhookSecretKey    string        `mapstructure:"WEBHOOK_SECRET_KEY"`
	SkipSignature       bool          `mapstructure:"SKIP_SIGNATURE_VERIFICATION"`
	ForceSkipSignature  bool          `mapstructure:"FORCE_SKIP_SIGNATURE"`
	MaxBodyBytes        int64         `mapstructure:"WEBHOOK_MAX_BODY_BYTES" validate:"gt=0"`
	ForwardTimeout      time.Duration `mapstructure:"FORWARD_TIMEOUT" validate:"gt=0"`

	RateLimitWindow      time.Duration `mapstructure:"RATE_LIMIT_WINDOW" validate:"gt=0"`
	RateLimitMaxKeys     int           `mapstructure:"RATE_LIMIT_MAX_KEYS" validate:"gt=0"`
	RateLimitMaxRequests int           `mapstructure:"RATE_LIMIT_MAX_REQUESTS" validate:"gt=0"`

	DiscordWebhookURL string `mapstructure:"DISCORD_WEBHOOK_URL"`
	N8NWebhookURL     string `mapstructure:"N8N_WEBHOOK_URL"`

	DiscordClientID     string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURI  string `mapstructure:"DISCORD_REDIRECT_URI"`
	DiscordBotToken     string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordGuildID      string `mapstructure:"DISCORD_GUILD_ID"`
	DiscordBookedRoleID string `mapstructure:"DISCORD_BOOKED_ROLE_ID"`
	DiscordAPIURL       string `mapstructure:"DISCORD_API_URL" validate:"url"`

	CalendlyToken             string  `mapstructure:"CALENDLY_TOKEN"`
	CalendlyUserUUID          string  `mapstructure:"CALENDLY_USER_UUID"`
	CalendlyAPIURL            string  `mapstructure:"CALENDLY_API_URL" validate:"url"`
	CalendlyPageSize          int     `mapstructure:"CALENDLY_PAGE_SIZE" validate:"gt=0,lte=100"`
	CalendlyRequestsPerSecond float64 `mapstructure:"CALENDLY_REQUESTS_PER_SECOND" validate:"gt=0"`

	OAuthVerboseErrors bool `mapstructure:"OAUTH_VERBOSE_ERRORS"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
}

var defaults = map[string]any{
	"PORT":      "3000",
	"APP_ENV":   "production",
	"LOG_LEVEL": "info",
	// json in production, console output is picked with LOG_FORMAT=text
	"LOG_FORMAT": "json",

	"WEBHOOK_ID":                  "typeform",
	"TARGET_WEBHOOK_URL":          "",
	"SECONDARY_WEBHOOK_URL":       "",
	"DESTINATIONS_FILE":           "",
	"WEBHOOK_SECRET_KEY":          "",
	"SKIP_SIGNATURE_VERIFICATION": false,
	"FORCE_SKIP_SIGNATURE":        false,
	"WEBHOOK_MAX_BODY_BYTES":      webhook.DefaultMaxBodyBytes,
	"FORWARD_TIMEOUT":             forward.DefaultTimeout,

	"RATE_LIMIT_WINDOW":       ratelimit.DefaultWindow,
	"RATE_LIMIT_MAX_KEYS":     ratelimit.DefaultMaxKeys,
	"RATE_LIMIT_MAX_REQUESTS": ratelimit.DefaultMaxRequests,

	"DISCORD_WEBHOOK_URL": "",
	"N8N_WEBHOOK_URL":     "",

	"DISCORD_CLIENT_ID":      "",
	"DISCORD_CLIENT_SECRET":  "",
	"DISCORD_REDIRECT_URI":   "",
	"DISCORD_BOT_TOKEN":      "",
	"DISCORD_GUILD_ID":       "",
	"DISCORD_BOOKED_ROLE_ID": "",
	"DISCORD_API_URL":        discord.DefaultAPIURL,

	"CALENDLY_TOKEN":               "",
	"CALENDLY_USER_UUID":           "",
	"CALENDLY_API_URL":             calendly.DefaultAPIURL,
	"CALENDLY_PAGE_SIZE":           calendly.DefaultPageSize,
	"CALENDLY_REQUESTS_PER_SECOND": calendly.DefaultRequestsPerSecond,

	"OAUTH_VERBOSE_ERRORS": false,

	"REDIS_ADDR":     "",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,
}

// GetConfig reads .env from the working directory, when present, then the environment
func GetConfig() (*Config, error) {
	return Load(".")
}

// Load reads a toml .env file from the first path that has one; environment variables win
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(".env")
	v.SetConfigType("toml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &config, nil
}

// SignatureBypass reports whether signature verification is skipped.
// SKIP_SIGNATURE_VERIFICATION only counts in development; FORCE_SKIP_SIGNATURE counts anywhere.
func (c *Config) SignatureBypass() bool {
	return (c.AppEnv == EnvDevelopment && c.SkipSignature) || c.ForceSkipSignature
}

// Destinations merges the env destinations with the ones from DESTINATIONS_FILE, env first
func (c *Config) Destinations() ([]forward.Destination, error) {
	loader := forward.NewLoader()

	for _, slot := range []struct {
		name string
		url  string
		role forward.Role
	}{
		{targetName, c.TargetWebhookURL, forward.Primary},
		{secondaryName, c.SecondaryWebhookURL, forward.Secondary},
	} {
		if slot.url == "" {
			continue
		}
		d, err := forward.NewDestination(slot.name, slot.url, 0, slot.role)
		if err != nil {
			return nil, fmt.Errorf("building %s destination: %w", slot.name, err)
		}
		if err := loader.Add(d); err != nil {
			return nil, err
		}
	}

	if c.DestinationsFile != "" {
		if err := loader.Load(c.DestinationsFile); err != nil {
			return nil, fmt.Errorf("loading destinations file: %w", err)
		}
	}

	return loader.List(), nil
}

// Webhook builds the ingestion service configuration
func (c *Config) Webhook() (webhook.Config, error) {
	dests, err := c.Destinations()
	if err != nil {
		return webhook.Config{}, err
	}
	return webhook.Config{
		WebhookID:     c.WebhookID,
		Secret:        c.WebhookSecretKey,
		Destinations:  dests,
		MaxBodyBytes:  c.MaxBodyBytes,
		SkipSignature: c.SignatureBypass(),
	}, nil
}

// Leads builds the lead form configuration
func (c *Config) Leads() leads.Config {
	return leads.Config{
		DiscordWebhookURL: c.DiscordWebhookURL,
		N8NWebhookURL:     c.N8NWebhookURL,
	}
}

// Discord builds the Discord OAuth client configuration
func (c *Config) Discord() discord.Config {
	return discord.Config{
		ClientID:     c.DiscordClientID,
		ClientSecret: c.DiscordClientSecret,
		RedirectURI:  c.DiscordRedirectURI,
		BotToken:     c.DiscordBotToken,
		GuildID:      c.DiscordGuildID,
		RoleID:       c.DiscordBookedRoleID,
		APIURL:       c.DiscordAPIURL,
	}
}

// Calendly builds the Calendly client configuration
func (c *Config) Calendly() calendly.Config {
	return calendly.Config{
		Token:             c.CalendlyToken,
		UserUUID:          c.CalendlyUserUUID,
		APIURL:            c.CalendlyAPIURL,
		PageSize:          c.CalendlyPageSize,
		RequestsPerSecond: c.CalendlyRequestsPerSecond,
	}
}
