package filteruniversities

import (
	"fmt"
	"time"

	"studyabroad-workers/internal/common/config"
	"studyabroad-workers/internal/discovery"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	// DefaultQuery applies to every filter the job does not set.
	DefaultQuery discovery.Query
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 10,
		Timeout:       20 * time.Second,
		DefaultQuery:  discovery.DefaultQuery(),
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.DefaultQuery.BudgetCeiling < 0 {
		return fmt.Errorf("default budget must not be negative")
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[TaskType]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
			}
		}
		if appConfig.Discovery.DefaultBudget > 0 {
			cfg.DefaultQuery.BudgetCeiling = appConfig.Discovery.DefaultBudget
		}
		if len(appConfig.Discovery.Regions) > 0 {
			cfg.DefaultQuery.Regions = append([]string(nil), appConfig.Discovery.Regions...)
		}
	}
	return cfg
}
