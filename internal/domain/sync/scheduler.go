package sync

import (
	"context"
	"errors"
	"math"
	"math/rand"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/time/rate"
)

// Cycler runs one sync cycle. *Engine satisfies it.
type Cycler interface {
	RunCycle(ctx context.Context, opts ...CycleOption) (*CycleResult, error)
}

type SchedulerConfig struct {
	// Interval between periodic cycles.
	Interval time.Duration
	// MinInterval is the shortest gap between two cycles, however often Trigger is called.
	MinInterval    time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:       time.Minute,
		MinInterval:    2 * time.Second,
		InitialBackoff: 5 * time.Second,
		MaxBackoff:     10 * time.Minute,
		JitterFraction: 0.25,
	}
}

// Scheduler decides when cycles run: periodically, on Trigger, or on an explicit
// Sync call. Only one cycle runs at a time.
type Scheduler struct {
	cycler  Cycler
	cfg     SchedulerConfig
	limiter *rate.Limiter
	trigger chan struct{}
	log     *slog.Logger

	mu       gosync.Mutex
	running  bool
	failures int
	last     *CycleResult
}

// NewScheduler creates a scheduler around cycler. Call Run to start the ticker.
func NewScheduler(cycler Cycler, cfg SchedulerConfig, log *slog.Logger) *Scheduler {
	def := DefaultSchedulerConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = def.MinInterval
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}

	return &Scheduler{
		cycler:  cycler,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		trigger: make(chan struct{}, 1),
		log:     log.With("component", "sync_scheduler"),
	}
}

// Trigger asks for a cycle as soon as the rate limit allows, e.g. when
// connectivity comes back. It never blocks; repeated triggers collapse into one.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Sync runs one cycle now, waiting for the rate limiter first.
func (s *Scheduler) Sync(ctx context.Context, opts ...CycleOption) (*CycleResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := s.cycler.RunCycle(ctx, opts...)

	s.mu.Lock()
	s.last = res
	switch {
	case err != nil, res.AllFailed():
		s.failures++
	case res.Total > 0:
		s.failures = 0
	}
	s.mu.Unlock()

	return res, err
}

// Last returns the result of the most recent cycle, or nil.
func (s *Scheduler) Last() *CycleResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Run loops until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("scheduler started", "interval", s.cfg.Interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return nil
		case <-timer.C:
		case <-s.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		res, err := s.Sync(ctx)
		switch {
		case ctx.Err() != nil:
			continue
		case errors.Is(err, ErrSyncInProgress):
			s.log.Debug("cycle skipped, another one is running")
		case err != nil:
			s.log.Error("sync cycle failed", "error", err)
		case res.AllFailed():
			s.log.Warn("authority unreachable", "pending", res.Total)
		}

		timer.Reset(s.nextDelay())
	}
}

func (s *Scheduler) nextDelay() time.Duration {
	s.mu.Lock()
	failures := s.failures
	s.mu.Unlock()

	if failures == 0 {
		return s.cfg.Interval
	}
	return backoff(s.cfg, failures-1)
}

// backoff grows exponentially with attempt, capped at MaxBackoff, with +/- jitter.
func backoff(cfg SchedulerConfig, attempt int) time.Duration {
	base := float64(cfg.InitialBackoff) * math.Pow(2, float64(attempt))
	if base > float64(cfg.MaxBackoff) {
		base = float64(cfg.MaxBackoff)
	}
	jitter := base * cfg.JitterFraction * (rand.Float64()*2 - 1)
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}
