package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Data struct {
		BuffersDir    string `yaml:"buffers_dir"`
		MediaDir      string `yaml:"media_dir"`
		ThumbnailsDir string `yaml:"thumbnails_dir"`
		AnnotatedDir  string `yaml:"annotated_dir"`
		TagsDBPath    string `yaml:"tags_db_path"`
	} `yaml:"data"`

	Extractor struct {
		URL             string `yaml:"url"`
		TimeoutSeconds  int    `yaml:"timeout_seconds"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"extractor"`

	Pipeline struct {
		// AllowMissingDate keeps messages with no resolvable date in the
		// passing set. Off by default: a dated record is the point.
		AllowMissingDate bool `yaml:"allow_missing_date"`
	} `yaml:"pipeline"`

	Identity struct {
		Enabled   bool   `yaml:"enabled"`
		VerifyURL string `yaml:"verify_url"`
	} `yaml:"identity"`

	AccessControl struct {
		Enabled              bool   `yaml:"enabled"`
		JWTSecret            string `yaml:"jwt_secret"`
		ReviewerPasswordHash string `yaml:"reviewer_password_hash"`
	} `yaml:"access_control"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	// Set defaults
	if config.Server.Port == "" {
		config.Server.Port = "8000"
	}

	if config.Data.BuffersDir == "" {
		config.Data.BuffersDir = "buffers"
	}
	if config.Data.MediaDir == "" {
		config.Data.MediaDir = "media"
	}
	if config.Data.ThumbnailsDir == "" {
		config.Data.ThumbnailsDir = "thumbnails"
	}
	if config.Data.AnnotatedDir == "" {
		config.Data.AnnotatedDir = "annotated"
	}
	if config.Data.TagsDBPath == "" {
		config.Data.TagsDBPath = "./data/tags.db"
	}

	if config.Extractor.URL == "" {
		config.Extractor.URL = "http://localhost:8001"
	}
	if config.Extractor.TimeoutSeconds == 0 {
		config.Extractor.TimeoutSeconds = 30
	}
	if config.Extractor.CacheTTLSeconds == 0 {
		config.Extractor.CacheTTLSeconds = 300
	}

	if config.Identity.VerifyURL == "" {
		config.Identity.VerifyURL = "https://users.roblox.com/v1/usernames/users"
	}

	// Expand environment variables in secrets
	config.AccessControl.JWTSecret = os.ExpandEnv(config.AccessControl.JWTSecret)
	config.AccessControl.ReviewerPasswordHash = os.ExpandEnv(config.AccessControl.ReviewerPasswordHash)

	if config.AccessControl.Enabled {
		if config.AccessControl.JWTSecret == "" {
			return nil, fmt.Errorf("access control enabled but jwt_secret is empty")
		}
		if config.AccessControl.ReviewerPasswordHash == "" {
			return nil, fmt.Errorf("access control enabled but reviewer_password_hash is empty")
		}
	}

	return config, nil
}
