package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"novel-reader/shared/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSecrets(t *testing.T, secrets map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for name, value := range secrets {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value), 0o600))
	}
	t.Setenv(utils.SecretsDirEnv, dir)
}

func TestLoad_Defaults(t *testing.T) {
	writeSecrets(t, map[string]string{
		"db_password":          "pw",
		"jwt_secret":           "jwt",
		"inter_service_secret": "svc",
	})
	t.Setenv("STORAGE_DRIVER", StorageDriverPostgres)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, time.Hour, cfg.GraphCacheTTL)
	assert.Equal(t, "pw", cfg.DBPassword)
	assert.Equal(t, "jwt", cfg.JWTSecret)
	assert.Equal(t, "svc", cfg.InterServiceSecret)
}

func TestLoad_MemoryDriverSkipsDBPassword(t *testing.T) {
	writeSecrets(t, map[string]string{
		"jwt_secret":           "jwt",
		"inter_service_secret": "svc",
	})
	t.Setenv("STORAGE_DRIVER", StorageDriverMemory)
	t.Setenv("GRAPH_CACHE_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.DBPassword)
	assert.Equal(t, 90*time.Second, cfg.GraphCacheTTL)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		writeSecrets(t, map[string]string{"jwt_secret": "jwt", "inter_service_secret": "svc"})
		t.Setenv("STORAGE_DRIVER", "sqlite")
		_, err := Load()
		assert.ErrorContains(t, err, "STORAGE_DRIVER")
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		writeSecrets(t, map[string]string{"inter_service_secret": "svc"})
		t.Setenv("STORAGE_DRIVER", StorageDriverMemory)
		_, err := Load()
		assert.ErrorContains(t, err, "jwt_secret")
	})

	t.Run("bad duration", func(t *testing.T) {
		writeSecrets(t, map[string]string{"jwt_secret": "jwt", "inter_service_secret": "svc"})
		t.Setenv("STORAGE_DRIVER", StorageDriverMemory)
		t.Setenv("GRAPH_CACHE_TTL", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
}
