package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// WorkflowConfig holds the tunables of the estimate workflow. It is loaded
// from workflow.yml and hot-reloaded, so operators can change token TTLs or
// sweep cadence without a restart.
type WorkflowConfig struct {
	ApprovalTokenTTLDays int   `mapstructure:"approvalTokenTTLDays"`
	SweepIntervalMinutes int   `mapstructure:"sweepIntervalMinutes"`
	SweepBatchSize       int   `mapstructure:"sweepBatchSize"`
	DefaultDeadlineHours int64 `mapstructure:"defaultDeadlineHours"`
	DefaultTaxRateBps    int64 `mapstructure:"defaultTaxRateBps"`
}

func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		ApprovalTokenTTLDays: 30,
		SweepIntervalMinutes: 5,
		SweepBatchSize:       100,
		DefaultDeadlineHours: 72,
		DefaultTaxRateBps:    0,
	}
}

func (c WorkflowConfig) ApprovalTokenTTL() time.Duration {
	return time.Duration(c.ApprovalTokenTTLDays) * 24 * time.Hour
}

func (c WorkflowConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

type WorkflowConfigHolder struct {
	current atomic.Value // holds WorkflowConfig
}

func NewWorkflowConfigHolder(log *zap.Logger) (*WorkflowConfigHolder, error) {
	log = log.Named("workflow.config")
	v := viper.New()

	v.SetConfigName("workflow")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/poolops/config")
	v.AddConfigPath("/etc/poolops")
	v.AddConfigPath(".")

	v.SetEnvPrefix("POOLOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultWorkflowConfig()
	v.SetDefault("workflow.approvalTokenTTLDays", defaults.ApprovalTokenTTLDays)
	v.SetDefault("workflow.sweepIntervalMinutes", defaults.SweepIntervalMinutes)
	v.SetDefault("workflow.sweepBatchSize", defaults.SweepBatchSize)
	v.SetDefault("workflow.defaultDeadlineHours", defaults.DefaultDeadlineHours)
	v.SetDefault("workflow.defaultTaxRateBps", defaults.DefaultTaxRateBps)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg WorkflowConfig
	if err := v.UnmarshalKey("workflow", &cfg); err != nil {
		return nil, err
	}
	if err := validateWorkflowConfig(cfg); err != nil {
		return nil, err
	}

	holder := &WorkflowConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated WorkflowConfig
		if err := v.UnmarshalKey("workflow", &updated); err != nil {
			log.Warn("reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		if err := validateWorkflowConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("workflow config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticWorkflowConfigHolder wraps a fixed config, used by tests.
func NewStaticWorkflowConfigHolder(cfg WorkflowConfig) *WorkflowConfigHolder {
	holder := &WorkflowConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *WorkflowConfigHolder) Current() WorkflowConfig {
	return h.current.Load().(WorkflowConfig)
}

func validateWorkflowConfig(cfg WorkflowConfig) error {
	if cfg.ApprovalTokenTTLDays <= 0 {
		return errors.New("workflow: approvalTokenTTLDays must be positive")
	}
	if cfg.SweepIntervalMinutes <= 0 {
		return errors.New("workflow: sweepIntervalMinutes must be positive")
	}
	if cfg.SweepBatchSize <= 0 {
		return errors.New("workflow: sweepBatchSize must be positive")
	}
	if cfg.DefaultTaxRateBps < 0 || cfg.DefaultTaxRateBps > 10000 {
		return errors.New("workflow: defaultTaxRateBps out of range")
	}
	return nil
}
