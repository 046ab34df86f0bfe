package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearPOSEnv unsets every POS_ variable for the duration of the test
func clearPOSEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "POS_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearPOSEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "posledger", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "posledger", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 200*time.Millisecond, cfg.Database.SlowThreshold)
	assert.Empty(t, cfg.Redis.Host)
	assert.Equal(t, 2, cfg.Scheduler.TillAuditHour)
	assert.Equal(t, 48*time.Hour, cfg.Scheduler.TillAuditLookback)
	assert.True(t, cfg.Ledger.VarianceWarningAbsolute.Equal(decimal.NewFromInt(5)))
	assert.True(t, cfg.Ledger.VarianceWarningPercent.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 24*time.Hour, cfg.Ledger.IdempotencyTTL)
	assert.Equal(t, "posledger", cfg.Telemetry.ServiceName)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearPOSEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("POS_APP_PORT", "9000")
	t.Setenv("POS_DATABASE_HOST", "db.internal")
	t.Setenv("POS_DATABASE_MAX_OPEN_CONNS", "50")
	t.Setenv("POS_REDIS_HOST", "cache.internal")
	t.Setenv("POS_SCHEDULER_TILL_AUDIT_HOUR", "4")
	t.Setenv("POS_LEDGER_VARIANCE_WARNING_ABSOLUTE", "2.50")
	t.Setenv("POS_LEDGER_IDEMPOTENCY_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, "cache.internal:6379", cfg.Redis.Addr())
	assert.Equal(t, 4, cfg.Scheduler.TillAuditHour)
	assert.Equal(t, "2.5", cfg.Ledger.VarianceWarningAbsolute.String())
	assert.Equal(t, 2*time.Hour, cfg.Ledger.IdempotencyTTL)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearPOSEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("POS_DATABASE_DBNAME=from_dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("POS_DATABASE_DBNAME") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from_dotenv", cfg.Database.DBName)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"idle above open", map[string]string{"POS_DATABASE_MAX_OPEN_CONNS": "5", "POS_DATABASE_MAX_IDLE_CONNS": "10"}, "cannot exceed"},
		{"audit hour out of range", map[string]string{"POS_SCHEDULER_TILL_AUDIT_HOUR": "24"}, "till_audit_hour"},
		{"bad variance threshold", map[string]string{"POS_LEDGER_VARIANCE_WARNING_PERCENT": "abc"}, "variance_warning_percent"},
		{"negative threshold", map[string]string{"POS_LEDGER_VARIANCE_WARNING_ABSOLUTE": "-1"}, "cannot be negative"},
		{"sampling ratio", map[string]string{"POS_TELEMETRY_SAMPLING_RATIO": "1.5"}, "sampling_ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearPOSEnv(t)
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ProductionValidation(t *testing.T) {
	base := map[string]string{
		"POS_APP_ENV":           "production",
		"POS_JWT_SECRET":        strings.Repeat("s", 32),
		"POS_DATABASE_PASSWORD": "secret",
		"POS_DATABASE_SSLMODE":  "require",
	}
	tests := []struct {
		name     string
		override map[string]string
		want     string
	}{
		{"valid production config", nil, ""},
		{"missing jwt secret", map[string]string{"POS_JWT_SECRET": ""}, "jwt.secret is required"},
		{"short jwt secret", map[string]string{"POS_JWT_SECRET": "short"}, "at least 32 characters"},
		{"missing database password", map[string]string{"POS_DATABASE_PASSWORD": ""}, "database.password"},
		{"ssl disabled", map[string]string{"POS_DATABASE_SSLMODE": "disable"}, "sslmode"},
		{"full sql in traces", map[string]string{"POS_TELEMETRY_DB_LOG_FULL_SQL": "true"}, "db_log_full_sql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearPOSEnv(t)
			t.Chdir(t.TempDir())
			for k, v := range base {
				t.Setenv(k, v)
			}
			for k, v := range tt.override {
				t.Setenv(k, v)
			}
			_, err := Load()
			if tt.want == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "pos", Password: "pw", DBName: "posledger", SSLMode: "disable"}
		assert.Equal(t, "postgres://pos:pw@localhost:5432/posledger?sslmode=disable", cfg.DSN())
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss:w/rd", DBName: "x", SSLMode: "require"}
		assert.Contains(t, cfg.DSN(), "p%40ss%3Aw%2Frd")
	})
}
