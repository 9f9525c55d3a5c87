package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultMaxIdle is how long a context may sit untouched before the
	// cleanup job evicts it.
	DefaultMaxIdle = 24 * time.Hour
	// DefaultCleanupInterval is how often the cleanup job runs.
	DefaultCleanupInterval = 1 * time.Hour
)

// CleanupConfig holds configuration for the context cleanup job.
type CleanupConfig struct {
	MaxIdle         time.Duration
	CleanupInterval time.Duration
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		MaxIdle:         DefaultMaxIdle,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// CleanupJob handles periodic eviction of idle conversation contexts.
// Additional sweeps (such as the memory cache eviction) can be registered
// with AddSweep and run on the same ticker.
type CleanupJob struct {
	manager *Manager
	config  CleanupConfig
	sweeps  []namedSweep

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

type namedSweep struct {
	name string
	fn   func() int
}

// NewCleanupJob creates a new cleanup job.
func NewCleanupJob(manager *Manager, config CleanupConfig) *CleanupJob {
	if config.MaxIdle <= 0 {
		config.MaxIdle = DefaultMaxIdle
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}

	return &CleanupJob{
		manager: manager,
		config:  config,
	}
}

// AddSweep registers an extra eviction pass to run on each cleanup tick.
// Must be called before Start.
func (j *CleanupJob) AddSweep(name string, fn func() int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sweeps = append(j.sweeps, namedSweep{name: name, fn: fn})
}

// Start begins the periodic cleanup job.
// This method is non-blocking and starts the cleanup in a goroutine.
func (j *CleanupJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return nil // Already running
	}

	j.running = true
	j.stopChan = make(chan struct{})

	go j.run(ctx)

	slog.Info("context cleanup job started",
		"max_idle", j.config.MaxIdle,
		"interval", j.config.CleanupInterval)

	return nil
}

// Stop stops the cleanup job.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}

	close(j.stopChan)
	j.running = false

	slog.Info("context cleanup job stopped")
}

// RunOnce executes a single cleanup run immediately.
// Useful for testing or manual cleanup.
func (j *CleanupJob) RunOnce() int {
	removed := j.manager.SweepIdle(j.config.MaxIdle)
	for _, sweep := range j.sweeps {
		removed += sweep.fn()
	}
	return removed
}

// run is the main loop for the cleanup job.
func (j *CleanupJob) run(ctx context.Context) {
	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopChan:
			return
		case <-ticker.C:
			if removed := j.manager.SweepIdle(j.config.MaxIdle); removed > 0 {
				slog.Info("context cleanup completed", "removed", removed)
			}
			for _, sweep := range j.sweeps {
				if removed := sweep.fn(); removed > 0 {
					slog.Info("cleanup sweep completed", "sweep", sweep.name, "removed", removed)
				}
			}
		}
	}
}

// IsRunning returns whether the cleanup job is currently running.
func (j *CleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
