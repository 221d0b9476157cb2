package scheduler

import (
	"time"

	"github.com/smallbiznis/frontdesk/internal/config"
)

// Config controls scheduler intervals.
type Config struct {
	RunInterval time.Duration
	// RecoveryThreshold is how long a run may stay running before the
	// recovery sweep marks it interrupted.
	RecoveryThreshold time.Duration
	JobTimeout        time.Duration
	EnabledJobs       []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:       time.Minute,
		RecoveryThreshold: time.Hour,
		JobTimeout:        30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.RecoveryThreshold <= 0 {
		c.RecoveryThreshold = defaults.RecoveryThreshold
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

// ProvideConfig derives the loop interval and job list from the audit
// auto-run settings. A run older than the lock TTL can no longer hold the
// guard, so that is the recovery threshold.
func ProvideConfig(holder *config.AuditConfigHolder) Config {
	audit := holder.Get()
	cfg := Config{
		RunInterval:       audit.AutoRun.Interval,
		RecoveryThreshold: audit.LockTTL,
		EnabledJobs:       append([]string(nil), audit.AutoRun.Jobs...),
	}
	return cfg.withDefaults()
}
