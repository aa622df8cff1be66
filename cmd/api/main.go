package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aidaptics/lead-relay/booking"
	"github.com/aidaptics/lead-relay/booking/calendly"
	"github.com/aidaptics/lead-relay/booking/discord"
	"github.com/aidaptics/lead-relay/config"
	"github.com/aidaptics/lead-relay/forward"
	"github.com/aidaptics/lead-relay/internal/http/chi"
	"github.com/aidaptics/lead-relay/leads"
	"github.com/aidaptics/lead-relay/metrics"
	"github.com/aidaptics/lead-relay/ratelimit"
	redisstats "github.com/aidaptics/lead-relay/ratelimit/redis"
	"github.com/aidaptics/lead-relay/webhook"
	"github.com/rs/zerolog"
)

const TIMEOUT = 30 * time.Second

/* main wires every package together and is the only place that exits the process
 * Imports go one way: cmd imports the domain packages, which import their clients
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	logger := chi.NewLogger("lead-relay", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	webhookLimiter, err := ratelimit.New("webhook", cfg.RateLimitWindow, cfg.RateLimitMaxKeys, cfg.RateLimitMaxRequests)
	if err != nil {
		logger.Error().Err(err).Msg("creating webhook limiter")
		return
	}
	leadLimiter, err := ratelimit.New("leads", cfg.RateLimitWindow, cfg.RateLimitMaxKeys, cfg.RateLimitMaxRequests)
	if err != nil {
		logger.Error().Err(err).Msg("creating lead limiter")
		return
	}

	// Optional Redis stats sink
	var totals metrics.TotalsReader
	var observers ratelimit.Observers
	if cfg.RedisAddr != "" {
		client, err := redisstats.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error().Err(err).Msg("connecting stats sink")
			return
		}
		defer client.Close()
		stats := redisstats.NewStatsStore(client, redisstats.WithLogger(logger))
		go stats.Run(ctx)
		totals = stats
		observers = append(observers, stats)
	}

	exporter, err := metrics.NewOTelExporter(metrics.NewLimiterCollector(totals, webhookLimiter, leadLimiter))
	if err != nil {
		logger.Error().Err(err).Msg("creating metrics exporter")
		return
	}
	defer exporter.Shutdown(context.Background())
	observers = append(observers, exporter)

	fwd := forward.New(
		forward.WithTimeout(cfg.ForwardTimeout),
		forward.WithRecorder(exporter),
		forward.WithLogger(logger),
	)

	whCfg, err := cfg.Webhook()
	if err != nil {
		logger.Error().Err(err).Msg("loading destinations")
		return
	}
	if whCfg.SkipSignature {
		logger.Warn().Str("app_env", cfg.AppEnv).Msg("signature verification is disabled")
	}
	webhookService := webhook.NewService(whCfg, webhookLimiter, fwd,
		webhook.WithObserver(observers),
		webhook.WithLogger(logger),
	)
	leadCfg := cfg.Leads()
	if _, err := leadCfg.Destinations(); err != nil {
		logger.Error().Err(err).Msg("loading lead destinations")
		return
	}
	leadService := leads.NewService(leadCfg, leadLimiter, fwd,
		leads.WithObserver(observers),
		leads.WithLogger(logger),
	)

	services := chi.Services{
		Webhook: webhookService,
		Leads:   leadService,
		Metrics: exporter.Handler(),
	}
	if flow, login := bookingFlow(cfg, logger, exporter); flow != nil {
		services.Booking = flow
		services.Login = login
	}

	go prune(ctx, cfg.RateLimitWindow, webhookLimiter, leadLimiter)

	r := chi.Handlers(ctx, logger, services)
	http.Handle("/", r)
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      http.DefaultServeMux,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("port", cfg.Port).Int("destinations", len(whCfg.Destinations)).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("serving")
		return
	}
	err = <-errShutdown
	if err != nil {
		logger.Error().Err(err).Msg("shutting down")
		return
	}
}

// bookingFlow returns nils unless both Discord and Calendly are configured
func bookingFlow(cfg *config.Config, logger zerolog.Logger, rec booking.Recorder) (*booking.Flow, *discord.Client) {
	dc, cc := cfg.Discord(), cfg.Calendly()
	if !dc.Configured() || !cc.Configured() {
		logger.Warn().Msg("discord verification is not configured")
		return nil, nil
	}
	d := discord.New(dc)
	c := calendly.New(cc, calendly.WithLogger(logger))
	flow := booking.NewFlow(d, d, c, d,
		booking.WithVerboseErrors(cfg.OAuthVerboseErrors),
		booking.WithLogger(logger),
		booking.WithRecorder(rec),
	)
	return flow, d
}

// prune drops expired limiter entries once per window
func prune(ctx context.Context, every time.Duration, limiters ...*ratelimit.Limiter) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, l := range limiters {
				l.Prune()
			}
		}
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	}
}
