package config

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	ProgressBackendMemory = "memory"
	ProgressBackendRedis  = "redis"

	ReportFormatPDF  = "pdf"
	ReportFormatXLSX = "xlsx"
)

// AuditConfig tunes the night audit run. It is hot-reloaded, so values are
// read once per run rather than cached by callers.
type AuditConfig struct {
	StepTimeout          time.Duration `mapstructure:"stepTimeout" validate:"gt=0"`
	StepDelay            time.Duration `mapstructure:"stepDelay" validate:"gte=0"`
	LockTTL              time.Duration `mapstructure:"lockTTL" validate:"gt=0"`
	ProgressBackend      string        `mapstructure:"progressBackend" validate:"oneof=memory redis"`
	ProgressTTL          time.Duration `mapstructure:"progressTTL" validate:"gte=0"`
	ReportFormats        []string      `mapstructure:"reportFormats" validate:"dive,oneof=pdf xlsx"`
	AvailabilityCacheTTL time.Duration `mapstructure:"availabilityCacheTTL" validate:"gte=0"`
	AutoRun              AutoRunConfig `mapstructure:"autoRun"`
}

type AutoRunConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	At       string        `mapstructure:"at" validate:"required_if=Enabled true"`
	Location string        `mapstructure:"location"`
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
	// Jobs limits the scheduler to the named jobs; empty runs all of them.
	Jobs []string `mapstructure:"jobs" validate:"dive,oneof=night_audit recover_runs"`
}

// WantsFormat reports whether the report format is enabled. PDF is always on.
func (c AuditConfig) WantsFormat(format string) bool {
	if format == ReportFormatPDF {
		return true
	}
	for _, f := range c.ReportFormats {
		if strings.EqualFold(strings.TrimSpace(f), format) {
			return true
		}
	}
	return false
}

// ClockTime parses AutoRun.At as hour and minute.
func (c AutoRunConfig) ClockTime() (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(c.At))
	if err != nil {
		return 0, 0, fmt.Errorf("audit.autoRun.at: %w", err)
	}
	return t.Hour(), t.Minute(), nil
}

func (c AutoRunConfig) TimeLocation() (*time.Location, error) {
	name := strings.TrimSpace(c.Location)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		StepTimeout:          30 * time.Second,
		StepDelay:            0,
		LockTTL:              15 * time.Minute,
		ProgressBackend:      ProgressBackendMemory,
		ProgressTTL:          72 * time.Hour,
		ReportFormats:        []string{ReportFormatPDF},
		AvailabilityCacheTTL: 0,
		AutoRun: AutoRunConfig{
			Enabled:  false,
			At:       "02:00",
			Location: "UTC",
			Interval: time.Minute,
		},
	}
}

type AuditConfigHolder struct {
	current atomic.Value // holds AuditConfig
}

// NewStaticAuditConfigHolder returns a holder that never reloads.
func NewStaticAuditConfigHolder(cfg AuditConfig) *AuditConfigHolder {
	holder := &AuditConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewAuditConfigHolder(log *zap.Logger) (*AuditConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("audit.config")

	v := viper.New()

	v.SetConfigName("audit")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/frontdesk/config")
	v.AddConfigPath("/etc/frontdesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FRONTDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setAuditDefaults(v, DefaultAuditConfig())

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := decodeAuditConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticAuditConfigHolder(cfg)
	if !fileFound {
		log.Info("audit config file not found, using defaults")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeAuditConfig(v)
		if err != nil {
			log.Warn("audit config reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("audit config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *AuditConfigHolder) Get() AuditConfig {
	if h == nil {
		return DefaultAuditConfig()
	}
	cfg, ok := h.current.Load().(AuditConfig)
	if !ok {
		return DefaultAuditConfig()
	}
	return cfg
}

func setAuditDefaults(v *viper.Viper, d AuditConfig) {
	v.SetDefault("audit.stepTimeout", d.StepTimeout)
	v.SetDefault("audit.stepDelay", d.StepDelay)
	v.SetDefault("audit.lockTTL", d.LockTTL)
	v.SetDefault("audit.progressBackend", d.ProgressBackend)
	v.SetDefault("audit.progressTTL", d.ProgressTTL)
	v.SetDefault("audit.reportFormats", d.ReportFormats)
	v.SetDefault("audit.availabilityCacheTTL", d.AvailabilityCacheTTL)
	v.SetDefault("audit.autoRun.enabled", d.AutoRun.Enabled)
	v.SetDefault("audit.autoRun.at", d.AutoRun.At)
	v.SetDefault("audit.autoRun.location", d.AutoRun.Location)
	v.SetDefault("audit.autoRun.interval", d.AutoRun.Interval)
}

func decodeAuditConfig(v *viper.Viper) (AuditConfig, error) {
	var cfg AuditConfig
	if err := v.UnmarshalKey("audit", &cfg); err != nil {
		return AuditConfig{}, err
	}
	cfg.ProgressBackend = strings.ToLower(strings.TrimSpace(cfg.ProgressBackend))
	if err := ValidateAuditConfig(cfg); err != nil {
		return AuditConfig{}, err
	}
	return cfg, nil
}

var validate = validator.New()

func ValidateAuditConfig(cfg AuditConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid audit config: %w", err)
	}
	// The run lock is only refreshed between steps.
	if cfg.LockTTL <= cfg.StepTimeout+cfg.StepDelay {
		return fmt.Errorf("invalid audit config: lockTTL %s must exceed stepTimeout + stepDelay (%s)",
			cfg.LockTTL, cfg.StepTimeout+cfg.StepDelay)
	}
	if cfg.AutoRun.Enabled {
		if _, _, err := cfg.AutoRun.ClockTime(); err != nil {
			return err
		}
		if _, err := cfg.AutoRun.TimeLocation(); err != nil {
			return fmt.Errorf("audit.autoRun.location: %w", err)
		}
	}
	return nil
}
