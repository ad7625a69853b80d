package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/xxxsen/common/logger"
)

type Config struct {
	DBPath                 string           `json:"db_path"`
	Port                   int              `json:"port"`
	MaxUploadSize          int64            `json:"max_upload_size"`
	CORSOrigins            []string         `json:"cors_origins"`
	CleanupCron            string           `json:"cleanup_cron"`
	StagingMaxAgeHours     int              `json:"staging_max_age_hours"`
	SessionCacheSize       int              `json:"session_cache_size"`
	SessionCacheTTLMinutes int              `json:"session_cache_ttl_minutes"`
	LogConfig              logger.LogConfig `json:"log_config"`
	FileStore              FileStoreConfig  `json:"file_store"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxUploadSize == 0 {
		c.MaxUploadSize = 32 * 1024 * 1024
	}
	if c.CleanupCron == "" {
		c.CleanupCron = "*/30 * * * *"
	}
	if c.StagingMaxAgeHours == 0 {
		c.StagingMaxAgeHours = 6
	}
	if c.SessionCacheSize == 0 {
		c.SessionCacheSize = 64
	}
	if c.SessionCacheTTLMinutes == 0 {
		c.SessionCacheTTLMinutes = 10
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if c.FileStore.Type == "" {
		c.FileStore.Type = "local"
	}
	if c.FileStore.Type == "local" && c.FileStore.Data == nil && c.DBPath != "" {
		c.FileStore.Data = map[string]interface{}{
			"dir": filepath.Join(filepath.Dir(c.DBPath), "resources"),
		}
	}
}

func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DBPath, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.MaxUploadSize, validation.Min(int64(1))),
		validation.Field(&c.StagingMaxAgeHours, validation.Min(1)),
	); err != nil {
		return err
	}
	switch c.FileStore.Type {
	case "local", "s3":
	default:
		return fmt.Errorf("file_store.type must be local or s3")
	}
	if c.FileStore.Data == nil {
		return fmt.Errorf("file_store.data is required")
	}
	return nil
}
