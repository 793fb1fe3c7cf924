package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/aquaserve/poolops/internal/clock"
	"github.com/aquaserve/poolops/internal/config"
	estimatedomain "github.com/aquaserve/poolops/internal/estimate/domain"
	obsmetrics "github.com/aquaserve/poolops/internal/observability/metrics"
)

type fakeEstimateService struct {
	estimatedomain.Service

	result   estimatedomain.SweepResult
	err      error
	calls    atomic.Int32
	gotNow   time.Time
	gotBatch int
	block    bool
}

func (f *fakeEstimateService) RevertExpiredDeadlines(ctx context.Context, now time.Time, batchSize int) (estimatedomain.SweepResult, error) {
	f.calls.Add(1)
	f.gotNow = now
	f.gotBatch = batchSize
	if f.block {
		<-ctx.Done()
		return estimatedomain.SweepResult{}, ctx.Err()
	}
	return f.result, f.err
}

func swapPrometheusRegistry(registry *prometheus.Registry) func() {
	oldRegisterer := prometheus.DefaultRegisterer
	oldGatherer := prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	return func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		obsmetrics.ResetSweeperMetricsForTest()
	}
}

func newTestSweeper(t *testing.T, svc estimatedomain.Service) *Sweeper {
	t.Helper()

	s, err := New(Params{
		Log:         zap.NewNop(),
		Clock:       clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Workflow:    config.NewStaticWorkflowConfigHolder(config.DefaultWorkflowConfig()),
		EstimateSvc: svc,
	})
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	return s
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{
		Log:      zap.NewNop(),
		Clock:    clock.NewFakeClock(time.Time{}),
		Workflow: config.NewStaticWorkflowConfigHolder(config.DefaultWorkflowConfig()),
	})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRunOncePassesConfiguredBatchSize(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()
	obsmetrics.ResetSweeperMetricsForTest()

	svc := &fakeEstimateService{result: estimatedomain.SweepResult{Examined: 3, Reverted: 2, Conflicts: 1}}
	s := newTestSweeper(t, svc)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if got := svc.calls.Load(); got != 1 {
		t.Fatalf("expected one sweep call, got %d", got)
	}
	if svc.gotBatch != 100 {
		t.Fatalf("expected default batch size 100, got %d", svc.gotBatch)
	}
	if svc.gotNow.IsZero() {
		t.Fatal("expected sweep timestamp")
	}

	labels := map[string]string{
		"service": "poolops",
		"env":     "unknown",
		"job":     "deadline_sweep",
	}
	if got := getCounterValue(t, registry, "poolops_sweeper_job_runs_total", labels); got != 1 {
		t.Fatalf("expected 1 job run, got %v", got)
	}
	if got := getCounterValue(t, registry, "poolops_sweeper_estimates_reverted_total", labels); got != 2 {
		t.Fatalf("expected 2 reverted, got %v", got)
	}
	if got := getCounterValue(t, registry, "poolops_sweeper_conflicts_total", labels); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
}

func TestRunOncePropagatesSweepError(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()
	obsmetrics.ResetSweeperMetricsForTest()

	svc := &fakeEstimateService{err: errors.New("db is down")}
	s := newTestSweeper(t, svc)

	err := s.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	errorLabels := map[string]string{
		"service":    "poolops",
		"env":        "unknown",
		"job":        "deadline_sweep",
		"error_type": obsmetrics.SweeperErrorTypeBusinessRule,
	}
	if got := getCounterValue(t, registry, "poolops_sweeper_job_errors_total", errorLabels); got != 1 {
		t.Fatalf("expected 1 job error, got %v", got)
	}
}

func TestRunOnceCancelledContextIsNotFatal(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()
	obsmetrics.ResetSweeperMetricsForTest()

	svc := &fakeEstimateService{block: true}
	s := newTestSweeper(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.RunOnce(ctx); err != nil {
		t.Fatalf("cancelled sweep should not be fatal, got %v", err)
	}

	errorLabels := map[string]string{
		"service":    "poolops",
		"env":        "unknown",
		"job":        "deadline_sweep",
		"error_type": obsmetrics.SweeperErrorTypeDeadlineExceeded,
	}
	if got := getCounterValue(t, registry, "poolops_sweeper_job_errors_total", errorLabels); got != 1 {
		t.Fatalf("expected 1 timeout error, got %v", got)
	}
}

func TestRunForeverStopsOnCancel(t *testing.T) {
	registry := prometheus.NewRegistry()
	restore := swapPrometheusRegistry(registry)
	defer restore()
	obsmetrics.ResetSweeperMetricsForTest()

	svc := &fakeEstimateService{}
	s := newTestSweeper(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunForever(ctx)
		close(done)
	}()

	// RunForever sweeps once immediately, then waits for the next tick.
	deadline := time.After(2 * time.Second)
	for svc.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("sweep never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunForever did not stop after cancel")
	}
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			if metric.Counter == nil {
				t.Fatalf("metric %s is not a counter", name)
			}
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
