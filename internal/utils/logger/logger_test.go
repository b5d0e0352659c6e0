package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/exp/slog"

	"fieldinspect/internal/app/server/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		expectedLevel slog.Level
	}{
		{
			name:          "local environment",
			env:           config.EnvLocal,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "dev environment",
			env:           config.EnvDev,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "prod environment",
			env:           config.EnvProd,
			expectedLevel: slog.LevelInfo,
		},
		{
			name:          "unknown environment",
			env:           "staging",
			expectedLevel: slog.LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.env)
			require.NotNil(t, logger)
			ctx := context.Background()
			assert.Equal(t, tt.expectedLevel <= slog.LevelDebug, logger.Enabled(ctx, slog.LevelDebug))
			assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
		})
	}
}

func TestSetupPrettySlog(t *testing.T) {
	logger := setupPrettySlog()
	require.NotNil(t, logger)

	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestPrettyHandler_WritesMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.EnvLocal, WithOutput(&buf)).With("component", "sync_engine")

	log.Info("cycle finished", slog.Int("pushed", 3))

	out := buf.String()
	assert.Contains(t, out, "cycle finished")
	assert.Contains(t, out, `"component": "sync_engine"`)
	assert.Contains(t, out, `"pushed": 3`)
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.EnvProd, WithOutput(&buf))

	log.Debug("hidden")
	log.Warn("push failed", "local_id", "abc")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"local_id":"abc"`)
}

func TestWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inspectctl.log")
	var buf bytes.Buffer

	log := New(config.EnvDev, WithOutput(&buf), WithFile(path))
	log.Info("record created", "local_id", "r-1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "record created")
	assert.Contains(t, buf.String(), "record created")
}
