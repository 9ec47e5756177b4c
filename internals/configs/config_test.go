package configs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormLogger "gorm.io/gorm/logger"
)

func TestLoadEnvReadsDebugFromDotEnv(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_DEBUG=true\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("RAILWAY_ENVIRONMENT", "")
	t.Setenv("APP_DEBUG", "")
	require.NoError(t, os.Unsetenv("APP_DEBUG"))

	LoadEnv()

	assert.True(t, Logger.Core().Enabled(zapcore.DebugLevel))
}

func TestGormLoggerQueriesAtInfo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := &GormLogger{SlowThreshold: time.Minute, LogLevel: gormLogger.Info, log: zap.New(core)}

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "[QUERY]", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestGormLoggerWarnLevelSkipsQueries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &GormLogger{SlowThreshold: time.Minute, LogLevel: gormLogger.Warn, log: zap.New(core)}

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)

	assert.Zero(t, logs.Len())
}
