package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_API", "http://gateway.local/translate")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":5001", cfg.BasicConfig.ServerAddress)
	assert.Equal(t, "uploads", cfg.BasicConfig.UploadDir)
	assert.Equal(t, "memory", cfg.BasicConfig.SessionStore)
	assert.Equal(t, 24*time.Hour, cfg.BasicConfig.SessionTTL)
	assert.Equal(t, int64(10<<20), cfg.BasicConfig.MaxUploadBytes)
	assert.Equal(t, "nhngobhz_bucket", cfg.Gateway.BucketName)
	assert.Equal(t, "en", cfg.Gateway.TargetLanguage)
	assert.Equal(t, 2*time.Minute, cfg.Gateway.Timeout)
	assert.Equal(t, "postgres", cfg.Database.DriverName())
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 6379, cfg.Redis.Port)
}

func TestLoadRequiresGateway(t *testing.T) {
	t.Setenv("BACKEND_API", "")
	os.Unsetenv("BACKEND_API")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_API")
}

func TestLoadReadsEnvFile(t *testing.T) {
	t.Setenv("BACKEND_API", "")
	os.Unsetenv("BACKEND_API")
	t.Setenv("DB_NAME", "from-process")

	path := filepath.Join(t.TempDir(), "app.env")
	content := strings.Join([]string{
		"BACKEND_API=http://10.0.0.5:8080/process",
		"DB_NAME=from-file",
		"DB_USER=translator",
		"SESSION_STORE=redis",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("BACKEND_API")
		os.Unsetenv("DB_USER")
		os.Unsetenv("SESSION_STORE")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8080/process", cfg.Gateway.URL)
	assert.Equal(t, "from-process", cfg.Database.DBName, "process env wins over file")
	assert.Equal(t, "translator", cfg.Database.Username)
	assert.Equal(t, "redis", cfg.BasicConfig.SessionStore)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("BACKEND_API", "http://gateway.local/translate")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestDatabaseDSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", DBName: "texts", Username: "u", Password: "p@ss", Host: "db", Port: 5432, SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/texts?sslmode=disable", pg.DSN())
	assert.Equal(t, pg.DSN(), pg.MigrationURL())

	my := DatabaseConfig{Driver: "mysql", DBName: "texts", Username: "u", Password: "p", Host: "db", Port: 3306}
	assert.True(t, strings.HasPrefix(my.DSN(), "u:p@tcp(db:3306)/texts"))
	assert.Equal(t, "mysql://"+my.DSN(), my.MigrationURL())

	lite := DatabaseConfig{Driver: "sqlite", Path: "/tmp/t.db"}
	assert.Equal(t, "sqlite3", lite.DriverName())
	assert.Equal(t, "/tmp/t.db", lite.DSN())
	assert.Equal(t, "sqlite3:///tmp/t.db", lite.MigrationURL())
}
