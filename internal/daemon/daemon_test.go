package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/temu/internal/config"
	"github.com/harun/temu/pkg/intent"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRefresher) Refresh(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeRefresher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSweeper struct {
	mu   sync.Mutex
	ttls []time.Duration
}

func (f *fakeSweeper) SweepStalePending(_ context.Context, ttl time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls = append(f.ttls, ttl)
	return 0, nil
}

type fakeEvictor struct {
	mu       sync.Mutex
	maxIdles []time.Duration
}

func (f *fakeEvictor) EvictIdle(maxIdle time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maxIdles = append(f.maxIdles, maxIdle)
	return 1
}

func TestNewJobRunnerRejectsBadSchedule(t *testing.T) {
	_, err := newJobRunner(config.DaemonConfig{
		ContactRefreshSchedule: "not a schedule",
		PendingSweepSchedule:   "@hourly",
		PendingTTLMinutes:      60,
	}, &fakeRefresher{}, &fakeSweeper{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contact refresh schedule")

	_, err = newJobRunner(config.DaemonConfig{
		ContactRefreshSchedule: "@every 15m",
		PendingSweepSchedule:   "bogus",
		PendingTTLMinutes:      60,
	}, &fakeRefresher{}, &fakeSweeper{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending sweep schedule")
}

func TestJobRunnerRunsJobs(t *testing.T) {
	refresher := &fakeRefresher{}
	sweeper := &fakeSweeper{}
	evictor := &fakeEvictor{}

	jobs, err := newJobRunner(config.DaemonConfig{
		ContactRefreshSchedule: "@every 10ms",
		PendingSweepSchedule:   "@every 10ms",
		PendingTTLMinutes:      60,
	}, refresher, sweeper, evictor)
	require.NoError(t, err)

	jobs.Start()
	defer jobs.Stop()

	assert.Eventually(t, func() bool {
		return refresher.count() > 0
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		sweeper.mu.Lock()
		defer sweeper.mu.Unlock()
		return len(sweeper.ttls) > 0 && sweeper.ttls[0] == time.Hour
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		evictor.mu.Lock()
		defer evictor.mu.Unlock()
		return len(evictor.maxIdles) > 0 && evictor.maxIdles[0] == time.Hour
	}, time.Second, 5*time.Millisecond)
}

func TestJobRunnerToleratesNilTargets(t *testing.T) {
	jobs, err := newJobRunner(config.DaemonConfig{
		ContactRefreshSchedule: "@every 15m",
		PendingSweepSchedule:   "@hourly",
		PendingTTLMinutes:      60,
	}, nil, nil, nil)
	require.NoError(t, err)

	jobs.Start()
	jobs.Stop()
}

func TestBuildParser(t *testing.T) {
	t.Run("no profiles falls back to rules", func(t *testing.T) {
		parser, err := BuildParser(config.DefaultConfig())
		require.NoError(t, err)
		assert.IsType(t, &intent.RuleParser{}, parser)
	})

	t.Run("highest priority profile wins", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.AI.Profiles = []config.AIProfile{
			{ID: "backup", Provider: "openai", APIKey: "sk-test-backup", Priority: 1},
			{ID: "main", Provider: "anthropic", APIKey: "sk-ant-test-main", Priority: 10},
		}

		parser, err := BuildParser(cfg)
		require.NoError(t, err)
		assert.IsType(t, &intent.LLMParser{}, parser)
	})

	t.Run("unsupported provider", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.AI.Profiles = []config.AIProfile{
			{ID: "main", Provider: "gemini", APIKey: "key"},
		}

		_, err := BuildParser(cfg)
		assert.Error(t, err)
	})
}
