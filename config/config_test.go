package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir into an empty directory so no stray config.yaml is picked up
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestReadConfig_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := ReadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "X-Forwarded-User", cfg.Server.UserHeader)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "coursecart.db", cfg.Database.SQLite.ConnectionString)
	assert.Equal(t, "sections", cfg.Database.Firestore.SectionCollectionID)
	assert.Equal(t, "http://luthers-list.herokuapp.com", cfg.Catalog.BaseURL)
	assert.Equal(t, 4, cfg.Catalog.SyncConcurrency)
	assert.Equal(t, 15*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "noop", cfg.Notifications.Type)
	assert.Equal(t, 587, cfg.Notifications.EmailSmtp.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestReadConfig_FileAndEnv(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
server:
  addr: ":9090"
database:
  type: firestore
  firestore:
    project_id: playground
catalog:
  sync_concurrency: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CATALOG_TIMEOUT", "3s")
	t.Setenv("SERVER_TRIGGER_TOKEN", "s3cret")

	cfg, err := ReadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "firestore", cfg.Database.Type)
	assert.Equal(t, "playground", cfg.Database.Firestore.ProjectID)
	assert.Equal(t, 8, cfg.Catalog.SyncConcurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "s3cret", cfg.Server.TriggerToken)
}

func TestReadConfig_BadFile(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unterminated"), 0o600))

	_, err := ReadConfig()
	assert.Error(t, err)
}
