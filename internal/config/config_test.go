package config

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vtree/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()
	assert.Equal(t, DefaultInspectAddr, cfg.Inspect.Addr)
	assert.Equal(t, DefaultHistory, cfg.Inspect.History)
	assert.Equal(t, "disk", cfg.Snapshot.Backend)
	assert.Equal(t, DefaultSnapshotDir, cfg.Snapshot.Dir)
	assert.NoError(t, cfg.Validate())
}

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(`
log:
  level: DEBUG
  format: json
inspect:
  addr: 0.0.0.0:9000
  history: 50
snapshot:
  backend: s3
  bucket: views
  prefix: ci/
telemetry:
  metrics: false
`))
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "0.0.0.0:9000", cfg.Inspect.Addr)
	assert.Equal(t, 50, cfg.Inspect.History)
	assert.Equal(t, 60.0, cfg.Inspect.Rate, "unset fields keep defaults")
	assert.Equal(t, "views", cfg.Snapshot.Bucket)
	assert.False(t, cfg.Telemetry.Metrics)
}

func TestParseJSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"inspect": {"addr": "localhost:8081", "rate": 5}}`))
	require.NoError(t, err)
	assert.Equal(t, "localhost:8081", cfg.Inspect.Addr)
	assert.Equal(t, 5.0, cfg.Inspect.Rate)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad level", "log: {level: loud}"},
		{"bad format", "log: {format: xml}"},
		{"bad addr", "inspect: {addr: nope}"},
		{"zero history", "inspect: {history: 0}"},
		{"negative rate", "inspect: {rate: -1}"},
		{"s3 without bucket", "snapshot: {backend: s3}"},
		{"unknown backend", "snapshot: {backend: ftp}"},
		{"bad endpoint", "snapshot: {backend: s3, bucket: b, endpoint: '::'}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			var e *errors.Error
			require.True(t, stderrors.As(err, &e))
			assert.Equal(t, "E302", e.Code)
			assert.NotEmpty(t, e.Detail)
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse([]byte("log: [unterminated"))
	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, "E301", e.Code)
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, Exists(dir))

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, os.ErrNotExist))

	cfg, err := LoadOrDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)

	cfg.Inspect.History = 7
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, cfg.Save(path))
	assert.True(t, Exists(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Inspect.History)
	assert.Equal(t, path, loaded.Path())
}

func TestLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		cfg := New()
		cfg.Log.Level = in
		assert.Equal(t, want, cfg.Level(), in)
	}
}
