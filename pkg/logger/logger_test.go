package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}

func TestLogPath(t *testing.T) {
	t.Setenv("LOG_PATH", "")
	t.Setenv("APP_DATA_DIR", "")

	assert.Equal(t, "/tmp/custom.log", logPath(Options{Path: "/tmp/custom.log"}))

	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "app.log"), logPath(Options{AppDataDir: dir}))

	t.Setenv("LOG_PATH", "/var/log/admin.log")
	assert.Equal(t, "/var/log/admin.log", logPath(Options{}))
}

func TestNew(t *testing.T) {
	log := New(Options{Level: "debug", Path: filepath.Join(t.TempDir(), "app.log")})

	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	log.Info("logger ready")
}
