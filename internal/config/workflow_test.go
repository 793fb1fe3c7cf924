package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWorkflowConfig(t *testing.T) {
	cfg := DefaultWorkflowConfig()

	assert.NoError(t, validateWorkflowConfig(cfg))
	assert.Equal(t, 30*24*time.Hour, cfg.ApprovalTokenTTL())
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval())
	assert.Equal(t, int64(72), cfg.DefaultDeadlineHours)
}

func TestValidateWorkflowConfig(t *testing.T) {
	base := DefaultWorkflowConfig()

	cfg := base
	cfg.ApprovalTokenTTLDays = 0
	assert.Error(t, validateWorkflowConfig(cfg))

	cfg = base
	cfg.SweepIntervalMinutes = -1
	assert.Error(t, validateWorkflowConfig(cfg))

	cfg = base
	cfg.SweepBatchSize = 0
	assert.Error(t, validateWorkflowConfig(cfg))

	cfg = base
	cfg.DefaultTaxRateBps = 20000
	assert.Error(t, validateWorkflowConfig(cfg))
}

func TestWorkflowConfigHolderSwap(t *testing.T) {
	holder := NewStaticWorkflowConfigHolder(DefaultWorkflowConfig())
	assert.Equal(t, 5, holder.Current().SweepIntervalMinutes)

	updated := DefaultWorkflowConfig()
	updated.SweepIntervalMinutes = 1
	holder.current.Store(updated)
	assert.Equal(t, 1, holder.Current().SweepIntervalMinutes)
}
