package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: \"\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "buffers", cfg.Data.BuffersDir)
	assert.Equal(t, "media", cfg.Data.MediaDir)
	assert.Equal(t, "annotated", cfg.Data.AnnotatedDir)
	assert.Equal(t, "./data/tags.db", cfg.Data.TagsDBPath)
	assert.Equal(t, "http://localhost:8001", cfg.Extractor.URL)
	assert.Equal(t, 30, cfg.Extractor.TimeoutSeconds)
	assert.Equal(t, 300, cfg.Extractor.CacheTTLSeconds)
	assert.False(t, cfg.Pipeline.AllowMissingDate)
	assert.False(t, cfg.AccessControl.Enabled)
	assert.Equal(t, "https://users.roblox.com/v1/usernames/users", cfg.Identity.VerifyURL)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
server:
  port: "9000"
data:
  buffers_dir: /srv/buffers
extractor:
  timeout_seconds: 5
pipeline:
  allow_missing_date: true
`))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "/srv/buffers", cfg.Data.BuffersDir)
	assert.Equal(t, 5, cfg.Extractor.TimeoutSeconds)
	assert.True(t, cfg.Pipeline.AllowMissingDate)
}

func TestLoadConfigExpandsSecrets(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "sekrit")
	t.Setenv("TEST_PW_HASH", "$argon2id$stub")

	cfg, err := LoadConfig(writeConfig(t, `
access_control:
  enabled: true
  jwt_secret: ${TEST_JWT_SECRET}
  reviewer_password_hash: ${TEST_PW_HASH}
`))
	require.NoError(t, err)

	assert.Equal(t, "sekrit", cfg.AccessControl.JWTSecret)
	assert.Equal(t, "$argon2id$stub", cfg.AccessControl.ReviewerPasswordHash)
}

func TestLoadConfigAccessControlRequiresSecrets(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "access_control:\n  enabled: true\n"))
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
