package support

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func loadsDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Banner)
	assert.Equal(t, ":9080", cfg.HTTPAddr)
	assert.Equal(t, MemoryJournal, cfg.Journal)
	assert.Equal(t, "wee-counter", cfg.JournalTable)
	assert.Equal(t, NoTraces, cfg.TraceExporter)
	assert.Equal(t, JSONLogs, cfg.LogFormat)
}

func readsEnvironment(t *testing.T) {
	t.Setenv("COUNTER_BANNER", "Hola <mundo>")
	t.Setenv("COUNTER_HTTP_ADDR", "127.0.0.1:8080")
	t.Setenv("COUNTER_JOURNAL", "none")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "Hola <mundo>", cfg.Banner)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTPAddr)
	assert.Equal(t, NoJournal, cfg.Journal)
}

func readsDotenvFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("COUNTER_BANNER=from file\nCOUNTER_JOURNAL_TABLE=file-table\n"), 0o600))

	// t.Setenv restores the variables the dotenv file sets
	t.Setenv("COUNTER_BANNER", "")
	os.Unsetenv("COUNTER_BANNER")
	t.Setenv("COUNTER_JOURNAL_TABLE", "from env")

	cfg, err := LoadConfig(file, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "from file", cfg.Banner)
	assert.Equal(t, "from env", cfg.JournalTable)
}

func rejectsUnknownValues(t *testing.T) {
	cases := map[string]string{
		"COUNTER_JOURNAL":        "postgres",
		"COUNTER_TRACE_EXPORTER": "zipkin",
		"COUNTER_LOG_FORMAT":     "xml",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func requiresHoneycombTeam(t *testing.T) {
	t.Setenv("COUNTER_TRACE_EXPORTER", "honeycomb")
	t.Setenv("HONEYCOMB_TEAM", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	t.Run("loads defaults", loadsDefaults)
	t.Run("reads the environment", readsEnvironment)
	t.Run("reads dotenv files", readsDotenvFiles)
	t.Run("rejects unknown values", rejectsUnknownValues)
	t.Run("requires a honeycomb team", requiresHoneycombTeam)
}

func TestLogger(t *testing.T) {
	t.Run("applies the configured level", func(t *testing.T) {
		var out bytes.Buffer
		log := NewLogger(Config{LogLevel: "warn", LogFormat: JSONLogs}, &out)

		log.Info().Msg("hidden")
		log.Warn().Msg("shown")

		assert.NotContains(t, out.String(), "hidden")
		assert.Contains(t, out.String(), `"message":"shown"`)
	})

	t.Run("falls back to info", func(t *testing.T) {
		log := NewLogger(Config{LogLevel: "chatty", LogFormat: ConsoleLogs}, &bytes.Buffer{})

		assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
	})
}

func TestTracing(t *testing.T) {
	t.Run("leaves the no-op provider without an exporter", func(t *testing.T) {
		before := otel.GetTracerProvider()

		shutdown, err := InstallTracing(context.Background(), Config{TraceExporter: NoTraces}, &bytes.Buffer{})
		require.NoError(t, err)

		assert.Equal(t, before, otel.GetTracerProvider())
		assert.NoError(t, shutdown(context.Background()))
	})

	t.Run("writes spans to the console exporter", func(t *testing.T) {
		var out bytes.Buffer
		shutdown, err := InstallTracing(context.Background(), Config{TraceExporter: ConsoleTraces}, &out)
		require.NoError(t, err)

		_, span := otel.Tracer("support-test").Start(context.Background(), "probe")
		span.End()

		require.NoError(t, shutdown(context.Background()))
		assert.Contains(t, out.String(), "probe")
	})
}
