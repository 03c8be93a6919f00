package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ledgerEnvKeys = []string{
	"LEDGER_APP_NAME",
	"LEDGER_APP_ENV",
	"LEDGER_APP_PORT",
	"LEDGER_DATABASE_HOST",
	"LEDGER_DATABASE_PORT",
	"LEDGER_DATABASE_PASSWORD",
	"LEDGER_DATABASE_SSLMODE",
	"LEDGER_DATABASE_MAX_OPEN_CONNS",
	"LEDGER_DATABASE_MAX_IDLE_CONNS",
	"LEDGER_JWT_SECRET",
	"LEDGER_LEDGER_DEFAULT_CURRENCY",
	"LEDGER_LEDGER_PAGE_SIZE_DEFAULT",
	"LEDGER_LEDGER_PAGE_SIZE_MAX",
	"LEDGER_LEDGER_SUMMARY_CACHE_TTL",
	"LEDGER_EVENT_KAFKA_ENABLED",
	"LEDGER_EVENT_KAFKA_BROKERS",
	"LEDGER_TELEMETRY_SAMPLING_RATIO",
	"LEDGER_TELEMETRY_DB_LOG_FULL_SQL",
	"LEDGER_TELEMETRY_LOGS_ENABLED",
	"LEDGER_TELEMETRY_PROFILING_ENABLED",
	"LEDGER_TELEMETRY_PROFILER_ADDRESS",
	"LEDGER_TELEMETRY_PROFILE_TYPES",
}

// clearEnv blanks every key for the duration of the test; t.Setenv restores them
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range ledgerEnvKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "shopledger", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "shopledger", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "USD", cfg.Ledger.DefaultCurrency)
		assert.Equal(t, 20, cfg.Ledger.PageSizeDefault)
		assert.Equal(t, 100, cfg.Ledger.PageSizeMax)
		assert.Equal(t, 5*time.Minute, cfg.Ledger.SummaryCacheTTL)
		assert.Equal(t, "ledger.events", cfg.Event.KafkaTopic)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "shopledger", cfg.Telemetry.ServiceName)
	})

	t.Run("loads values from environment variables with LEDGER prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_APP_PORT", "9000")
		t.Setenv("LEDGER_DATABASE_HOST", "db.internal")
		t.Setenv("LEDGER_DATABASE_PORT", "5433")
		t.Setenv("LEDGER_LEDGER_DEFAULT_CURRENCY", "eur")
		t.Setenv("LEDGER_LEDGER_SUMMARY_CACHE_TTL", "30s")
		t.Setenv("LEDGER_EVENT_KAFKA_ENABLED", "true")
		t.Setenv("LEDGER_EVENT_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "EUR", cfg.Ledger.DefaultCurrency)
		assert.Equal(t, 30*time.Second, cfg.Ledger.SummaryCacheTTL)
		assert.True(t, cfg.Event.KafkaEnabled)
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Event.KafkaBrokers)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("LEDGER_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown default currency", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_LEDGER_DEFAULT_CURRENCY", "XYZQ")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger.default_currency")
	})

	t.Run("rejects default page size above max", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_LEDGER_PAGE_SIZE_DEFAULT", "50")
		t.Setenv("LEDGER_LEDGER_PAGE_SIZE_MAX", "10")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "page_size_default")
	})

	t.Run("kafka sink needs brokers", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_EVENT_KAFKA_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kafka_brokers")
	})

	t.Run("sampling ratio out of range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})

	t.Run("profiling needs a server address", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_TELEMETRY_PROFILING_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profiler_address")
	})

	t.Run("profile types default and parse from a list", func(t *testing.T) {
		clearEnv(t)
		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.Telemetry.ProfilingEnabled)
		assert.False(t, cfg.Telemetry.LogsEnabled)
		assert.Equal(t, []string{"cpu", "alloc_space", "inuse_space", "goroutines"}, cfg.Telemetry.ProfileTypes)

		t.Setenv("LEDGER_TELEMETRY_PROFILING_ENABLED", "true")
		t.Setenv("LEDGER_TELEMETRY_PROFILER_ADDRESS", "http://pyroscope:4040")
		t.Setenv("LEDGER_TELEMETRY_PROFILE_TYPES", "cpu, mutex_count")
		cfg, err = Load()
		require.NoError(t, err)
		assert.Equal(t, "http://pyroscope:4040", cfg.Telemetry.ProfilerAddress)
		assert.Equal(t, []string{"cpu", "mutex_count"}, cfg.Telemetry.ProfileTypes)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_APP_ENV", "production")
		t.Setenv("LEDGER_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("LEDGER_DATABASE_PASSWORD", "secure-password")
		t.Setenv("LEDGER_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"requires jwt.secret", "LEDGER_JWT_SECRET", "", "jwt.secret is required in production"},
		{"requires long jwt.secret", "LEDGER_JWT_SECRET", "short-secret", "at least 32 characters"},
		{"requires database.password", "LEDGER_DATABASE_PASSWORD", "", "database.password is required"},
		{"requires SSL", "LEDGER_DATABASE_SSLMODE", "disable", "sslmode cannot be 'disable'"},
		{"forbids full SQL logging", "LEDGER_TELEMETRY_DB_LOG_FULL_SQL", "true", "db_log_full_sql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidProductionBase(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is not an error", func(t *testing.T) {
		require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("loads variables without overriding existing ones", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LEDGER_APP_NAME", "from-env")
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("LEDGER_APP_NAME=from-file\nLEDGER_APP_PORT=7070\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("LEDGER_APP_PORT") })

		require.NoError(t, LoadDotEnv(path))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.App.Name)
		assert.Equal(t, "7070", cfg.App.Port)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "/testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
