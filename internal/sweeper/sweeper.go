// Package sweeper runs the periodic deadline sweep: scheduled estimates
// whose deadline elapsed are returned to needs_scheduling.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aquaserve/poolops/internal/clock"
	"github.com/aquaserve/poolops/internal/config"
	estimatedomain "github.com/aquaserve/poolops/internal/estimate/domain"
	obsmetrics "github.com/aquaserve/poolops/internal/observability/metrics"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const jobDeadlineSweep = "deadline_sweep"

var ErrInvalidConfig = errors.New("sweeper requires estimate service, clock and workflow config")

type Params struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	Workflow    *config.WorkflowConfigHolder
	EstimateSvc estimatedomain.Service
}

type Sweeper struct {
	log         *zap.Logger
	clock       clock.Clock
	workflow    *config.WorkflowConfigHolder
	estimateSvc estimatedomain.Service
}

func New(p Params) (*Sweeper, error) {
	if p.Log == nil || p.Clock == nil || p.Workflow == nil || p.EstimateSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Sweeper{
		log:         p.Log.Named("sweeper").With(zap.String("component", "sweeper")),
		clock:       p.Clock,
		workflow:    p.Workflow,
		estimateSvc: p.EstimateSvc,
	}, nil
}

// RunOnce executes a single deadline sweep pass.
func (s *Sweeper) RunOnce(parent context.Context) error {
	return s.runJob(parent, jobDeadlineSweep, 30*time.Second, s.deadlineSweepJob)
}

// RunForever sweeps on the configured interval until ctx is cancelled.
// The interval is re-read each tick so config reloads take effect live.
func (s *Sweeper) RunForever(ctx context.Context) {
	interval := s.workflow.Current().SweepInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(interval)
	sweepMetrics := obsmetrics.Sweeper()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			sweepMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep run failed", zap.Error(err))
		}

		if current := s.workflow.Current().SweepInterval(); current != interval {
			interval = current
			ticker.Reset(interval)
		}
		nextRun = s.clock.Now().Add(interval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context, log *zap.Logger) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	log := s.log.With(
		zap.String("job", name),
		zap.String("run_id", uuid.NewString()),
	)
	sweepMetrics := obsmetrics.Sweeper()
	sweepMetrics.IncJobRun(name)

	err := fn(ctx, log)
	sweepMetrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	sweepMetrics.IncJobError(name, err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Sweeper) deadlineSweepJob(ctx context.Context, log *zap.Logger) error {
	batchSize := int(s.workflow.Current().SweepBatchSize)
	now := s.clock.Now().UTC()

	result, err := s.estimateSvc.RevertExpiredDeadlines(ctx, now, batchSize)
	sweepMetrics := obsmetrics.Sweeper()
	sweepMetrics.AddReverted(jobDeadlineSweep, result.Reverted)
	sweepMetrics.AddConflicts(jobDeadlineSweep, result.Conflicts)
	if err != nil {
		return err
	}

	if result.Examined > 0 {
		log.Info("deadline sweep finished",
			zap.Int("examined", result.Examined),
			zap.Int("reverted", result.Reverted),
			zap.Int("conflicts", result.Conflicts),
		)
	}
	return nil
}
