package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notesync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "notesync.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Device)
	assert.Equal(t, RemoteOffline, cfg.Remote.Kind)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
db_path: /var/lib/notesync/notes.db
port: "9090"
device: laptop
log:
  level: debug
remote:
  s3:
    endpoint: http://localhost:9000
    bucket: notes
    access_key: minio
    secret_key: minio-secret
`)
	t.Setenv("NOTESYNC_PORT", "7070")
	t.Setenv("NOTESYNC_LOG_FILE", "/tmp/notesync.log")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/notesync/notes.db", cfg.DBPath)
	assert.Equal(t, "7070", cfg.Port, "env overrides file")
	assert.Equal(t, "laptop", cfg.Device)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/notesync.log", cfg.Log.File)
	assert.Equal(t, RemoteS3, cfg.Remote.Kind, "s3 chosen when a bucket is configured")
	assert.Equal(t, "http://localhost:9000", cfg.Remote.S3.Endpoint)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"NOTESYNC_DB_PATH":       "env.db",
		"NOTESYNC_REMOTE":        "Memory",
		"NOTESYNC_S3_REGION":     "eu-west-1",
		"NOTESYNC_S3_ACCESS_KEY": "",
	}
	cfg := Default()
	cfg.Remote.S3.AccessKey = "from-file"
	applyEnv(&cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "env.db", cfg.DBPath)
	assert.Equal(t, "eu-west-1", cfg.Remote.S3.Region)
	assert.Equal(t, "from-file", cfg.Remote.S3.AccessKey, "empty env values are ignored")

	require.NoError(t, cfg.resolveRemote())
	assert.Equal(t, RemoteMemory, cfg.Remote.Kind)
}

func TestResolveRemoteErrors(t *testing.T) {
	cfg := Default()
	cfg.Remote.Kind = "ftp"
	assert.Error(t, cfg.resolveRemote())

	cfg = Default()
	cfg.Remote.Kind = RemoteS3
	assert.Error(t, cfg.resolveRemote())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeFile(t, "port: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}
