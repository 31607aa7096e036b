package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/paracord/pkg/config"
	"github.com/Sumatoshi-tech/paracord/pkg/observability"
	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
)

// Test constants.
const (
	testShards     = 16
	testCapacity   = 1000
	testPort       = 9090
	testChunkBytes = 65536
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".paracord.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultHasher, cfg.Interner.Hasher)
	assert.Equal(t, config.DefaultShards, cfg.Interner.Shards)
	assert.Equal(t, config.DefaultArenaChunk, cfg.Interner.ArenaChunk)
	assert.Equal(t, config.DefaultHost, cfg.Server.Host)
	assert.Equal(t, config.DefaultPort, cfg.Server.Port)
	assert.Equal(t, config.DefaultReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, config.DefaultLogFormat, cfg.Logging.Format)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
}

func TestLoadConfig_ValidFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `interner:
  hasher: fnv
  shards: 16
  capacity: 1000
  arena_chunk: 64KiB
server:
  host: 0.0.0.0
  port: 9090
  read_timeout: 3s
logging:
  level: debug
  format: json
telemetry:
  otlp_endpoint: localhost:4317
  otlp_headers: "a=b"
  sample_ratio: 0.5
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, config.HasherFNV, cfg.Interner.Hasher)
	assert.Equal(t, testShards, cfg.Interner.Shards)
	assert.Equal(t, testCapacity, cfg.Interner.Capacity)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())

	chunk, err := cfg.Interner.ChunkElems()
	require.NoError(t, err)
	assert.Equal(t, testChunkBytes, chunk)

	level, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	obs := cfg.Observability(observability.ModeServe, "v1")
	assert.True(t, obs.LogJSON)
	assert.Equal(t, observability.ModeServe, obs.Mode)
	assert.Equal(t, "v1", obs.ServiceVersion)
	assert.Equal(t, "localhost:4317", obs.OTLPEndpoint)
	assert.Equal(t, map[string]string{"a": "b"}, obs.OTLPHeaders)
	assert.InDelta(t, 0.5, obs.SampleRatio, 1e-9)
	assert.Equal(t, slog.LevelDebug, obs.LogLevel)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PARACORD_SERVER_PORT", "9090")
	t.Setenv("PARACORD_INTERNER_HASHER", "fnv")

	cfg, err := config.LoadConfig(writeConfig(t, "server:\n  port: 7070\n"))
	require.NoError(t, err)

	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, config.HasherFNV, cfg.Interner.Hasher)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "server: [\n"))
	assert.Error(t, err)
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"hasher", "interner:\n  hasher: sha1\n", config.ErrInvalidHasher},
		{"shards", "interner:\n  shards: -1\n", config.ErrInvalidShards},
		{"too_many_shards", "interner:\n  shards: 70000\n", config.ErrInvalidShards},
		{"capacity", "interner:\n  capacity: -5\n", config.ErrInvalidCapacity},
		{"huge_capacity", "interner:\n  capacity: 5000000000\n", config.ErrInvalidCapacity},
		{"chunk", "interner:\n  arena_chunk: lots\n", config.ErrInvalidSize},
		{"huge_chunk", "interner:\n  arena_chunk: 1TiB\n", config.ErrInvalidSize},
		{"body", "server:\n  max_body_size: 2PB\n", config.ErrInvalidSize},
		{"port", "server:\n  port: 70000\n", config.ErrInvalidPort},
		{"timeout", "server:\n  idle_timeout: -1s\n", config.ErrInvalidTimeout},
		{"level", "logging:\n  level: loud\n", config.ErrInvalidLogLevel},
		{"format", "logging:\n  format: xml\n", config.ErrInvalidLogFormat},
		{"ratio", "telemetry:\n  sample_ratio: 2\n", config.ErrInvalidSampleRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())

	limit, err := cfg.Server.BodyLimit()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<20), limit)
}

func TestInternerOptions(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Interner.Hasher = config.HasherFNV
	cfg.Interner.Shards = 2

	strs := paracord.NewStrings(cfg.InternerOptions(slog.New(slog.DiscardHandler))...)
	k := strs.GetOrIntern("configured")

	assert.Equal(t, "configured", strs.Resolve(k))
	assert.Equal(t, 2, strs.Stats().Shards)
}

func TestInternerOptions_Seeded(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Interner.Seed = 42

	opts := cfg.InternerOptions(nil)
	strs := paracord.NewStrings(opts...)

	assert.Equal(t, strs.GetOrIntern("x"), strs.GetOrIntern("x"))
}
