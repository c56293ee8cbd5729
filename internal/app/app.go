// Package app wires config into a running tracker session. Both the HTTP
// server and the terminal watcher build on it.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"nse-tracker/internal/config"
	"nse-tracker/internal/market"
	"nse-tracker/internal/notify"
	"nse-tracker/internal/push/dingtalk"
	"nse-tracker/internal/tracker"
)

type App struct {
	Service  *market.Service
	Session  *tracker.Session
	Notifier *notify.Notifier
	logger   *zap.Logger
}

// New builds the fetcher, batch service and session. Extra renderers are
// attached after the log renderer and the notifier.
func New(cfg *config.Config, logger *zap.Logger, renderers ...tracker.Renderer) (*App, error) {
	mode, err := market.ParseSessionMode(cfg.Market.SessionMode)
	if err != nil {
		return nil, err
	}

	fetcher := market.NewNSEFetcher(market.NSEConfig{
		HomeURL:        cfg.Market.HomeURL,
		APIBaseURL:     cfg.Market.APIBaseURL,
		Timeout:        time.Duration(cfg.Market.TimeoutMs) * time.Millisecond,
		SessionMode:    mode,
		UserAgent:      cfg.Market.UserAgent,
		AcceptLanguage: cfg.Market.AcceptLanguage,
		Referer:        cfg.Market.Referer,
	}, market.NewTransport(), logger.Named("nse"))

	svc := market.NewService(
		fetcher,
		time.Duration(cfg.Market.MinRequestIntervalMs)*time.Millisecond,
		cfg.Market.FetchConcurrency,
		logger.Named("market"),
	)

	all := []tracker.Renderer{tracker.LogRenderer(logger.Named("board"))}

	var notifier *notify.Notifier
	dt := dingtalk.NewClient(
		cfg.Push.Dingtalk.Webhook,
		cfg.Push.Dingtalk.Secret,
		time.Duration(cfg.Push.Dingtalk.TimeoutMs)*time.Millisecond,
	)
	if dt.Enabled() {
		notifier = notify.New(dt, notify.Config{
			Cooldown:    time.Duration(cfg.Notify.CooldownSec) * time.Second,
			PerMinute:   cfg.Notify.PerMinute,
			SendTimeout: time.Duration(cfg.Push.Dingtalk.TimeoutMs) * time.Millisecond,
		}, logger.Named("notify"))
		all = append(all, notifier)
	}
	all = append(all, renderers...)

	sess := tracker.NewSession(svc,
		tracker.WithLogger(logger.Named("tracker")),
		tracker.WithRenderer(all...),
	)
	sess.SetSymbols(cfg.Tracker.Symbols)
	if err := sess.SetInterval(cfg.Tracker.IntervalSec); err != nil {
		return nil, fmt.Errorf("tracker config: %w", err)
	}

	logger.Info("tracker ready",
		zap.String("session_mode", string(mode)),
		zap.Int("fetch_concurrency", cfg.Market.FetchConcurrency),
		zap.Bool("notify", notifier != nil),
	)

	return &App{
		Service:  svc,
		Session:  sess,
		Notifier: notifier,
		logger:   logger,
	}, nil
}

// Close stops the refresh loop and waits for pending notifications.
func (a *App) Close() {
	a.Session.Stop()
	if a.Notifier != nil {
		a.Notifier.Wait()
	}
	_ = a.logger.Sync()
}
