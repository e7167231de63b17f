package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.AppPort)
	assert.Equal(t, filepath.Join("public", "images"), cfg.ImagesRoot)
	assert.Equal(t, []string{"fullstack"}, cfg.ListedProjectTypes)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes())
	assert.Equal(t, 30*time.Minute, cfg.StagingTTL())
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.ImageServerURL)
}

func TestLoadFromJSONThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"app": {"AppPort": "9000", "ImageServerURL": "https://img.example.com"},
		"storage": {"ImagesRoot": "/srv/images", "MaxUploadMB": 4, "ListedProjectTypes": ["fullstack", "mobile"]},
		"log": {"Level": "debug", "Compress": true}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv("PORT", "7000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.AppPort)
	assert.Equal(t, "https://img.example.com", cfg.ImageServerURL)
	assert.Equal(t, "/srv/images", cfg.ImagesRoot)
	assert.Equal(t, int64(4*1024*1024), cfg.MaxUploadBytes())
	assert.Equal(t, []string{"fullstack", "mobile"}, cfg.ListedProjectTypes)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogCompress)
}

func TestLoadFromRejectsBadInteger(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "lots")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_UPLOAD_MB")
}

func TestLoadFromRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}
