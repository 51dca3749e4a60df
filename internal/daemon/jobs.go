package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/harun/temu/internal/config"
)

// contactRefresher re-primes a contact cache. Satisfied by
// *directory.Client.
type contactRefresher interface {
	Refresh(ctx context.Context) error
}

// pendingSweeper removes stale pending actions. Satisfied by
// *session.Store.
type pendingSweeper interface {
	SweepStalePending(ctx context.Context, ttl time.Duration) (int, error)
}

// idleEvictor removes agents with no recent activity. Satisfied by
// *agent.Hub.
type idleEvictor interface {
	EvictIdle(maxIdle time.Duration) int
}

// jobRunner owns the daemon's background maintenance schedules.
type jobRunner struct {
	cron *cron.Cron
}

// newJobRunner registers the maintenance jobs: a periodic contact
// cache refresh and a sweep that clears pending actions past their TTL
// and evicts agents idle for the same duration.
func newJobRunner(cfg config.DaemonConfig, refresher contactRefresher, sweeper pendingSweeper, evictor idleEvictor) (*jobRunner, error) {
	c := cron.New()

	if refresher != nil {
		_, err := c.AddFunc(cfg.ContactRefreshSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := refresher.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("Contact cache refresh failed")
			}
		})
		if err != nil {
			return nil, fmt.Errorf("invalid contact refresh schedule %q: %w", cfg.ContactRefreshSchedule, err)
		}
	}

	if sweeper != nil || evictor != nil {
		ttl := time.Duration(cfg.PendingTTLMinutes) * time.Minute
		_, err := c.AddFunc(cfg.PendingSweepSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if sweeper != nil {
				if _, err := sweeper.SweepStalePending(ctx, ttl); err != nil {
					log.Warn().Err(err).Msg("Pending action sweep failed")
				}
			}
			if evictor != nil {
				if n := evictor.EvictIdle(ttl); n > 0 {
					log.Debug().Int("evicted", n).Msg("Evicted idle agents")
				}
			}
		})
		if err != nil {
			return nil, fmt.Errorf("invalid pending sweep schedule %q: %w", cfg.PendingSweepSchedule, err)
		}
	}

	return &jobRunner{cron: c}, nil
}

// Start begins running the schedules.
func (j *jobRunner) Start() {
	j.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (j *jobRunner) Stop() {
	<-j.cron.Stop().Done()
}
