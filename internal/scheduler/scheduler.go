// Package scheduler runs the system's periodic background jobs:
// signing a checkpoint over the audit chain's current tip, and
// persisting a snapshot of the analytics engine's sketches, both on
// fixed cron schedules independent of request traffic.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/j-raghavan/chronoguard-lite/internal/analytics"
	"github.com/j-raghavan/chronoguard-lite/internal/cryptochain"
	"github.com/j-raghavan/chronoguard-lite/internal/logger"
)

// CheckpointSink receives a signed checkpoint token each time one is
// exported, so the caller can persist or publish it.
type CheckpointSink func(token string, sequenceNumber int)

// Scheduler owns the cron runtime and the jobs registered on it.
type Scheduler struct {
	cron *cron.Cron

	chain          *cryptochain.AuditChain
	checkpointKey  []byte
	checkpointSink CheckpointSink

	analyticsEngine *analytics.Engine
	snapshotStore   *analytics.SnapshotStore
	snapshotName    string
	snapshotTTL     time.Duration

	mu            sync.Mutex
	lastCheckpoint string
	lastSnapshotAt time.Time
	checkpointRuns int
	snapshotRuns   int
}

// Option configures optional Scheduler behavior.
type Option func(*Scheduler)

// WithCheckpointSink registers a callback invoked with each exported
// checkpoint token.
func WithCheckpointSink(sink CheckpointSink) Option {
	return func(s *Scheduler) { s.checkpointSink = sink }
}

// WithAnalyticsSnapshot enables the periodic analytics snapshot job,
// persisting engine state under snapshotName with the given ttl.
func WithAnalyticsSnapshot(store *analytics.SnapshotStore, engine *analytics.Engine, snapshotName string, ttl time.Duration) Option {
	return func(s *Scheduler) {
		s.snapshotStore = store
		s.analyticsEngine = engine
		s.snapshotName = snapshotName
		s.snapshotTTL = ttl
	}
}

// New creates a Scheduler that signs checkpoints over chain using
// checkpointKey. Additional jobs (e.g. analytics snapshotting) are
// enabled via Options.
func New(chain *cryptochain.AuditChain, checkpointKey []byte, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:          cron.New(),
		chain:         chain,
		checkpointKey: checkpointKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the checkpoint job on checkpointSchedule (standard
// 5-field cron syntax) and, if configured, the analytics snapshot job
// on snapshotSchedule, then starts the cron runtime.
func (s *Scheduler) Start(checkpointSchedule, snapshotSchedule string) error {
	if _, err := s.cron.AddFunc(checkpointSchedule, s.runCheckpoint); err != nil {
		return err
	}
	if s.snapshotStore != nil && s.analyticsEngine != nil {
		if _, err := s.cron.AddFunc(snapshotSchedule, s.runSnapshot); err != nil {
			return err
		}
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron runtime, waiting for any in-flight job to
// finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runCheckpoint() {
	token, err := cryptochain.ExportCheckpoint(s.chain, s.checkpointKey)
	if err != nil {
		logger.Scheduler().Error().Err(err).Msg("checkpoint export failed")
		return
	}

	s.mu.Lock()
	s.lastCheckpoint = token
	s.checkpointRuns++
	s.mu.Unlock()

	logger.Scheduler().Info().Int("sequence", s.chain.Len()).Msg("checkpoint exported")
	if s.checkpointSink != nil {
		s.checkpointSink(token, s.chain.Len())
	}
}

func (s *Scheduler) runSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.snapshotStore.Save(ctx, s.snapshotName, s.analyticsEngine, s.snapshotTTL); err != nil {
		logger.Scheduler().Error().Err(err).Msg("analytics snapshot save failed")
		return
	}

	s.mu.Lock()
	s.lastSnapshotAt = time.Now()
	s.snapshotRuns++
	s.mu.Unlock()

	logger.Scheduler().Info().Str("snapshot", s.snapshotName).Msg("analytics snapshot saved")
}

// LastCheckpoint returns the most recently exported checkpoint token,
// or "" if none has run yet.
func (s *Scheduler) LastCheckpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCheckpoint
}

// CheckpointRuns returns how many times the checkpoint job has
// completed successfully.
func (s *Scheduler) CheckpointRuns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpointRuns
}

// SnapshotRuns returns how many times the analytics snapshot job has
// completed successfully.
func (s *Scheduler) SnapshotRuns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotRuns
}
