package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// It is built once during boot and passed by value to whoever needs it.
type AppConfig struct {
	AppPort string
	// Public base URL of this server, handed to the gallery for absolute copy links.
	ImageServerURL string
	// Storage layout
	ImagesRoot         string
	PublicDir          string
	MaxUploadMB        int
	ListedProjectTypes []string
	StagingTTLMinutes  int
	// HTTP
	RateLimitPerMinute int
	AllowedOrigins     []string
	ShutdownTimeoutSec int
	// Gin framework configuration
	GinMode string
	GinPath string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// MaxUploadBytes is the largest request body accepted by the upload endpoint.
func (c AppConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// StagingTTL is how old a leftover staging file must be before the sweeper removes it.
func (c AppConfig) StagingTTL() time.Duration {
	return time.Duration(c.StagingTTLMinutes) * time.Minute
}

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
func (c AppConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

// Load reads .env, config/config.json and the environment, in that order.
func Load() (AppConfig, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return LoadFrom(filepath.Join("config", "config.json"))
}

// LoadFrom builds the configuration from the given JSON file (optional),
// defaults and environment overrides.
//
// Precedence: JSON file -> defaults -> environment variable overrides.
func LoadFrom(path string) (AppConfig, error) {
	var cfg AppConfig

	if err := loadJSONConfig(path, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config: %w", err)
	}

	if cfg.MaxUploadMB <= 0 {
		return AppConfig{}, errors.New("config: MAX_UPLOAD_MB must be positive")
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.ImageServerURL = getString(app, "ImageServerURL")
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
		if v := getInt(app, "ShutdownTimeoutSec"); v != 0 {
			out.ShutdownTimeoutSec = v
		}
	}

	if st, ok := raw["storage"].(map[string]any); ok {
		out.ImagesRoot = getString(st, "ImagesRoot")
		out.PublicDir = getString(st, "PublicDir")
		if v := getInt(st, "MaxUploadMB"); v != 0 {
			out.MaxUploadMB = v
		}
		if list := getStringSlice(st, "ListedProjectTypes"); len(list) > 0 {
			out.ListedProjectTypes = list
		}
		if v := getInt(st, "StagingTTLMinutes"); v != 0 {
			out.StagingTTLMinutes = v
		}
	}

	if g, ok := raw["gin"].(map[string]any); ok {
		if v := getString(g, "Mode"); v != "" {
			out.GinMode = v
		}
		if v := getString(g, "LogPath"); v != "" {
			out.GinPath = v
		}
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v := getString(lg, "Level"); v != "" {
			out.LogLevel = v
		}
		if v := getString(lg, "Path"); v != "" {
			out.LogPath = v
		}
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress = getBool(lg, "Compress")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "3001"
	}
	if c.ImagesRoot == "" {
		c.ImagesRoot = filepath.Join("public", "images")
	}
	if c.PublicDir == "" {
		c.PublicDir = "public"
	}
	if c.MaxUploadMB == 0 {
		c.MaxUploadMB = 10
	}
	if len(c.ListedProjectTypes) == 0 {
		c.ListedProjectTypes = []string{"fullstack"}
	}
	if c.StagingTTLMinutes == 0 {
		c.StagingTTLMinutes = 30
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 120
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.ShutdownTimeoutSec == 0 {
		c.ShutdownTimeoutSec = 30
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	var err error
	setInt := func(key string, dst *int) {
		v := getEnv(key, "")
		if v == "" || err != nil {
			return
		}
		i, perr := strconv.Atoi(v)
		if perr != nil {
			err = fmt.Errorf("invalid integer value %s=%q: %w", key, v, perr)
			return
		}
		*dst = i
	}

	// PORT matches what the gallery deployment scripts already export.
	if v := getEnv("PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("IMAGE_SERVER_URL", ""); v != "" {
		c.ImageServerURL = v
	}
	if v := getEnv("IMAGES_ROOT", ""); v != "" {
		c.ImagesRoot = v
	}
	if v := getEnv("PUBLIC_DIR", ""); v != "" {
		c.PublicDir = v
	}
	setInt("MAX_UPLOAD_MB", &c.MaxUploadMB)
	c.ListedProjectTypes = readListEnv("LISTED_PROJECT_TYPES", c.ListedProjectTypes)
	setInt("STAGING_TTL_MINUTES", &c.StagingTTLMinutes)
	setInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	setInt("SHUTDOWN_TIMEOUT_SEC", &c.ShutdownTimeoutSec)
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	// Logging env overrides
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	setInt("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	setInt("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	setInt("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	return err
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		if items := splitAndTrim(raw); len(items) > 0 {
			return items
		}
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
