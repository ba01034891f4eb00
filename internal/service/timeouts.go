package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// GameExpirer finalizes games that ran past their time limit.
type GameExpirer interface {
	ExpireTimedOut(ctx context.Context) (int, error)
}

// TimeoutSweeper periodically times out abandoned games.
type TimeoutSweeper struct {
	expirer GameExpirer
	spec    string
	logger  *zap.Logger
}

// NewTimeoutSweeper creates a sweeper running on the given cron spec (e.g. "@every 1m").
func NewTimeoutSweeper(expirer GameExpirer, spec string, logger *zap.Logger) *TimeoutSweeper {
	return &TimeoutSweeper{
		expirer: expirer,
		spec:    spec,
		logger:  logger,
	}
}

// Start runs the sweep schedule until ctx is done.
func (s *TimeoutSweeper) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(s.spec, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	c.Start()
	s.logger.Info("timeout sweeper started", zap.String("spec", s.spec))

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("timeout sweeper stopped")
	return nil
}

// Sweep runs one expiry pass.
func (s *TimeoutSweeper) Sweep(ctx context.Context) {
	n, err := s.expirer.ExpireTimedOut(ctx)
	if err != nil {
		s.logger.Error("failed to expire games", zap.Error(err))
	}
	if n > 0 {
		s.logger.Info("games timed out", zap.Int("count", n))
	}
}
