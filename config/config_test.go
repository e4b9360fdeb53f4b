package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/go-fireorm/validation"
)

func TestLoadDefaultsRequireProject(t *testing.T) {
	_, err := Load("")
	verrs, ok := validation.AsValidationErrors(err)
	require.True(t, ok, "got %v", err)
	assert.True(t, verrs.HasField(KeyProjectID))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FIREORM_TEST_MODE", "true")
	t.Setenv("FIREORM_OFFLINE_BACKEND", "SQLite")
	t.Setenv("FIREORM_OFFLINE_PATH", "/tmp/fireorm.db")

	c, err := Load("")
	require.NoError(t, err)
	assert.True(t, c.TestMode)
	assert.Equal(t, BackendSQLite, c.Offline.Backend)
	assert.Equal(t, "/tmp/fireorm.db", c.Offline.Path)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fireorm.yaml")
	content := `
project_id: demo
database_id: orders
offline:
  backend: redis
  redis_addr: localhost:6379
  redis_db: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.False(t, c.TestMode)
	assert.Equal(t, "demo", c.ProjectID)
	assert.Equal(t, "orders", c.DatabaseID)
	assert.Equal(t, BackendRedis, c.Offline.Backend)
	assert.Equal(t, 2, c.Offline.RedisDB)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fireorm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project_id: from-file\n"), 0644))
	t.Setenv("FIREORM_PROJECT_ID", "from-env")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.ProjectID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"live needs project", Config{}, KeyProjectID},
		{"unknown backend", Config{TestMode: true, Offline: OfflineConfig{Backend: "mongo"}}, KeyBackend},
		{"file needs path", Config{TestMode: true, Offline: OfflineConfig{Backend: BackendFile}}, KeyPath},
		{"sqlite needs path", Config{TestMode: true, Offline: OfflineConfig{Backend: BackendSQLite}}, KeyPath},
		{"redis needs addr", Config{TestMode: true, Offline: OfflineConfig{Backend: BackendRedis}}, KeyRedisAddr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verrs, ok := validation.AsValidationErrors(tt.cfg.Validate())
			require.True(t, ok)
			assert.True(t, verrs.HasField(tt.field), "errors: %v", verrs)
		})
	}

	assert.NoError(t, TestConfig().Validate())
	assert.NoError(t, Config{ProjectID: "p"}.Validate())
}
