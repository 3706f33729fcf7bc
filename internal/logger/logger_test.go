package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(Options{Level: "info", File: path})
	require.NoError(t, err)

	log.Debug("skipped")
	log.Info("task created", zap.String("task_id", "t1"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"task created"`)
	assert.Contains(t, string(data), `"task_id":"t1"`)
	assert.NotContains(t, string(data), "skipped")
}
