// Package daemon wires the full pipeline together and runs it as a
// long-lived service: gateway, session store, background maintenance
// jobs, and graceful shutdown on SIGINT/SIGTERM.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harun/temu/internal/config"
	"github.com/harun/temu/internal/google"
	"github.com/harun/temu/internal/logger"
	"github.com/harun/temu/internal/metrics"
	"github.com/harun/temu/pkg/agent"
	"github.com/harun/temu/pkg/calendar"
	"github.com/harun/temu/pkg/directory"
	"github.com/harun/temu/pkg/executor"
	"github.com/harun/temu/pkg/gateway"
	"github.com/harun/temu/pkg/intent"
	"github.com/harun/temu/pkg/preferences"
	"github.com/harun/temu/pkg/session"
)

// Daemon is the long-running service process.
type Daemon struct {
	cfg     *config.Config
	logger  *logger.Logger
	metrics *metrics.Metrics

	store   *session.Store
	prefs   *preferences.Store
	dir     *directory.Client
	hub     *agent.Hub
	gateway *gateway.Server
	jobs    *jobRunner
}

// New builds a daemon from configuration. It needs a cached Google
// OAuth token; run the auth flow first.
func New(cfg *config.Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	lg, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   true,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	ctx := context.Background()
	m := metrics.New()

	store, err := session.Open(filepath.Join(cfg.DataDir, "sessions.db"))
	if err != nil {
		lg.Close()
		return nil, err
	}

	prefs := preferences.NewStore()

	httpClient, err := google.HTTPClient(ctx, google.Credentials{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
	})
	if err != nil {
		store.Close()
		lg.Close()
		return nil, fmt.Errorf("google authentication required: %w", err)
	}

	dir, err := directory.NewClient(ctx, httpClient)
	if err != nil {
		store.Close()
		lg.Close()
		return nil, err
	}

	loc, err := timeLocation(cfg.Calendar.Location)
	if err != nil {
		store.Close()
		lg.Close()
		return nil, err
	}
	cal, err := calendar.NewClient(ctx, httpClient, dir, calendar.Options{
		WorkStartHour: cfg.Calendar.WorkStartHour,
		WorkEndHour:   cfg.Calendar.WorkEndHour,
		SlotDuration:  slotDuration(cfg.Calendar.SlotDurationMinutes),
		Location:      loc,
		CalendarID:    cfg.Google.CalendarID,
	})
	if err != nil {
		store.Close()
		lg.Close()
		return nil, err
	}

	exec := executor.New(dir, cal, prefs)
	exec.SetMetrics(m)

	parser, err := BuildParser(cfg)
	if err != nil {
		store.Close()
		lg.Close()
		return nil, err
	}

	hub := agent.NewHub(parser, exec, store, m)

	d := &Daemon{
		cfg:     cfg,
		logger:  lg,
		metrics: m,
		store:   store,
		prefs:   prefs,
		dir:     dir,
		hub:     hub,
	}

	if cfg.Gateway.Enabled {
		gw, err := gateway.NewServer(gateway.Config{
			Port:         cfg.Gateway.Port,
			SharedSecret: cfg.Gateway.SharedSecret,
			Hub:          hub,
			Preferences:  prefs,
			Metrics:      m,
			Logger:       lg.GetZerolog(),
		})
		if err != nil {
			d.close()
			return nil, err
		}
		d.gateway = gw
	}

	jobs, err := newJobRunner(cfg.Daemon, dir, store, hub)
	if err != nil {
		d.close()
		return nil, err
	}
	d.jobs = jobs

	return d, nil
}

// BuildParser picks the intent parser from configuration: the
// highest-priority AI profile when one is configured, the rule-based
// fallback otherwise.
func BuildParser(cfg *config.Config) (intent.Parser, error) {
	profiles := cfg.AI.Profiles
	if len(profiles) == 0 {
		log.Info().Msg("No AI profiles configured, using rule-based intent parsing")
		return intent.NewRuleParser(), nil
	}

	sorted := make([]config.AIProfile, len(profiles))
	copy(sorted, profiles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	profile := sorted[0]

	provider, err := intent.NewProvider(intent.AuthProfile{
		ID:       profile.ID,
		Provider: profile.Provider,
		APIKey:   profile.APIKey,
		Model:    profile.Model,
	})
	if err != nil {
		return nil, err
	}
	return intent.NewLLMParser(provider, profile.Model)
}

// Hub exposes the agent hub, mainly for one-shot CLI use.
func (d *Daemon) Hub() *agent.Hub {
	return d.hub
}

// Run starts the daemon and blocks until the context is cancelled or a
// termination signal arrives.
func (d *Daemon) Run(ctx context.Context) error {
	if d.gateway != nil {
		if err := d.gateway.Start(); err != nil {
			return err
		}
	}
	d.jobs.Start()

	log.Info().
		Bool("gateway", d.gateway != nil).
		Str("user", d.cfg.User.ID).
		Msg("Daemon started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case <-ctx.Done():
	}

	return d.Stop()
}

// Stop shuts everything down in reverse start order.
func (d *Daemon) Stop() error {
	var firstErr error

	if d.jobs != nil {
		d.jobs.Stop()
	}
	if d.gateway != nil {
		if err := d.gateway.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.close()

	log.Info().Msg("Daemon stopped")
	return firstErr
}

func timeLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar location %q: %w", name, err)
	}
	return loc, nil
}

func slotDuration(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}

func (d *Daemon) close() {
	if d.store != nil {
		d.store.Close()
		d.store = nil
	}
	if d.logger != nil {
		d.logger.Close()
		d.logger = nil
	}
}
