package service

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// UploadPattern matches files staged by the HTTP layer.
const UploadPattern = "upload-*"

// DefaultStagingDir is where uploads are staged when no directory is
// configured. It is never the shared temp dir itself.
func DefaultStagingDir() string {
	return filepath.Join(os.TempDir(), "inventory-uploads")
}

// SweeperConfig holds configuration for the temp upload sweeper.
type SweeperConfig struct {
	// Dir is the staging directory.
	// Default: DefaultStagingDir()
	Dir string

	// MaxAge is how old a staged file must be before it is removed.
	// Default: 1 hour
	MaxAge time.Duration

	// Interval is how often the sweep runs.
	// Default: 10 minutes
	Interval time.Duration
}

// Sweeper removes staged uploads that a request never cleaned up, for
// example after a crash mid-import.
type Sweeper struct {
	config    SweeperConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
	now       func() time.Time
	log       *slog.Logger
}

// NewSweeper creates a new sweeper.
func NewSweeper(config SweeperConfig) *Sweeper {
	if config.MaxAge == 0 {
		config.MaxAge = time.Hour
	}
	if config.Interval == 0 {
		config.Interval = 10 * time.Minute
	}
	if config.Dir == "" {
		config.Dir = DefaultStagingDir()
	}

	return &Sweeper{
		config: config,
		stopCh: make(chan struct{}),
		now:    time.Now,
		log:    slog.With("component", "Sweeper"),
	}
}

// Start begins periodic sweeping. It is a no-op when already running.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	s.log.Info("started", "dir", s.config.Dir, "interval", s.config.Interval, "max_age", s.config.MaxAge)

	go s.run()
}

func (s *Sweeper) run() {
	for {
		select {
		case <-s.ticker.C:
			s.RunNow()
		case <-s.stopCh:
			s.log.Info("stopped")
			return
		}
	}
}

// RunNow sweeps once and returns the number of files removed.
func (s *Sweeper) RunNow() int {
	matches, err := filepath.Glob(filepath.Join(s.config.Dir, UploadPattern))
	if err != nil {
		s.log.Error("glob failed", "error", err)
		return 0
	}

	cutoff := s.now().Add(-s.config.MaxAge)
	removed := 0
	for _, path := range matches {
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warn("failed to remove stale upload", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.Info("removed stale uploads", "count", removed)
	}
	return removed
}

// Stop stops the sweeper.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}
