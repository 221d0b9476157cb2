package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultAuditConfigIsValid(t *testing.T) {
	cfg := DefaultAuditConfig()
	require.NoError(t, ValidateAuditConfig(cfg))
	assert.True(t, cfg.WantsFormat(ReportFormatPDF))
	assert.False(t, cfg.WantsFormat(ReportFormatXLSX))
}

func TestValidateAuditConfigRejectsBadValues(t *testing.T) {
	cfg := DefaultAuditConfig()
	cfg.StepTimeout = 0
	assert.Error(t, ValidateAuditConfig(cfg))

	cfg = DefaultAuditConfig()
	cfg.ProgressBackend = "etcd"
	assert.Error(t, ValidateAuditConfig(cfg))

	cfg = DefaultAuditConfig()
	cfg.ReportFormats = []string{"docx"}
	assert.Error(t, ValidateAuditConfig(cfg))

	cfg = DefaultAuditConfig()
	cfg.AutoRun.Enabled = true
	cfg.AutoRun.At = "25:61"
	assert.Error(t, ValidateAuditConfig(cfg))
}

func TestValidateAuditConfigLockOutlivesStep(t *testing.T) {
	cfg := DefaultAuditConfig()
	cfg.StepTimeout = 30 * time.Second
	cfg.StepDelay = 5 * time.Second
	cfg.LockTTL = 35 * time.Second
	err := ValidateAuditConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lockTTL")

	cfg.LockTTL = 36 * time.Second
	assert.NoError(t, ValidateAuditConfig(cfg))
}

func TestNewAuditConfigHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`audit:
  stepTimeout: 5s
  progressBackend: redis
  reportFormats: [pdf, xlsx]
  autoRun:
    enabled: true
    at: "03:30"
    location: UTC
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "audit.yml"), content, 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	holder, err := NewAuditConfigHolder(zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 5*time.Second, cfg.StepTimeout)
	assert.Equal(t, ProgressBackendRedis, cfg.ProgressBackend)
	assert.True(t, cfg.WantsFormat(ReportFormatXLSX))
	assert.Equal(t, 15*time.Minute, cfg.LockTTL)

	hour, minute, err := cfg.AutoRun.ClockTime()
	require.NoError(t, err)
	assert.Equal(t, 3, hour)
	assert.Equal(t, 30, minute)
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var holder *AuditConfigHolder
	assert.Equal(t, DefaultAuditConfig().StepTimeout, holder.Get().StepTimeout)
}
