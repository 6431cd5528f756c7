package tasks

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper periodically purges expired task records.
type Sweeper struct {
	reg    *Registry
	cron   *cron.Cron
	logger *zap.Logger
}

func NewSweeper(reg *Registry, interval time.Duration, logger *zap.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sweeper: interval must be positive, got %s", interval)
	}

	cl := cronLogger{logger.Sugar()}
	s := &Sweeper{
		reg:    reg,
		cron:   cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
	}
	if _, err := s.cron.AddFunc("@every "+interval.String(), func() { s.RunOnce() }); err != nil {
		return nil, fmt.Errorf("sweeper: schedule: %w", err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("task sweeper started")
}

// Stop halts the schedule and waits for a running sweep.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("task sweeper stopped")
}

// RunOnce sweeps immediately and returns the number of purged records.
func (s *Sweeper) RunOnce() int {
	removed := s.reg.Sweep()
	if removed > 0 {
		s.logger.Info("purged expired tasks", zap.Int("removed", removed), zap.Int("remaining", s.reg.Len()))
	}
	return removed
}

// cronLogger routes cron's own logging to zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
