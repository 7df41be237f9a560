// Package config loads runtime settings. Values come from built-in
// defaults, then an optional YAML file, then NOTESYNC_* environment
// variables, each layer overriding the one before.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dukerupert/notesync/internal/remote"
)

// Remote modes.
const (
	RemoteS3      = "s3"
	RemoteMemory  = "memory"
	RemoteOffline = "offline"
)

type Config struct {
	DBPath string    `yaml:"db_path"`
	Port   string    `yaml:"port"`
	Device string    `yaml:"device"`
	Log    LogConfig `yaml:"log"`
	Remote Remote    `yaml:"remote"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Remote selects the remote store. An empty Kind picks s3 when a bucket is
// configured and offline otherwise.
type Remote struct {
	Kind string          `yaml:"kind"`
	S3   remote.S3Config `yaml:"s3"`
}

// Default returns the built-in settings. Device is left empty so the name
// recorded in the database, or else the hostname, is used.
func Default() Config {
	return Config{
		DBPath: "notesync.db",
		Port:   "8080",
		Log:    LogConfig{Level: "info"},
	}
}

// Load builds the configuration. A missing file at path is not an error;
// an empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg, os.LookupEnv)

	if err := cfg.resolveRemote(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("NOTESYNC_DB_PATH", &cfg.DBPath)
	set("NOTESYNC_PORT", &cfg.Port)
	set("NOTESYNC_DEVICE", &cfg.Device)
	set("NOTESYNC_LOG_LEVEL", &cfg.Log.Level)
	set("NOTESYNC_LOG_FILE", &cfg.Log.File)
	set("NOTESYNC_REMOTE", &cfg.Remote.Kind)
	set("NOTESYNC_S3_ENDPOINT", &cfg.Remote.S3.Endpoint)
	set("NOTESYNC_S3_BUCKET", &cfg.Remote.S3.Bucket)
	set("NOTESYNC_S3_REGION", &cfg.Remote.S3.Region)
	set("NOTESYNC_S3_ACCESS_KEY", &cfg.Remote.S3.AccessKey)
	set("NOTESYNC_S3_SECRET_KEY", &cfg.Remote.S3.SecretKey)
}

func (c *Config) resolveRemote() error {
	c.Remote.Kind = strings.ToLower(strings.TrimSpace(c.Remote.Kind))
	switch c.Remote.Kind {
	case "":
		if c.Remote.S3.Configured() {
			c.Remote.Kind = RemoteS3
		} else {
			c.Remote.Kind = RemoteOffline
		}
	case RemoteS3:
		if !c.Remote.S3.Configured() {
			return fmt.Errorf("remote kind s3 requires bucket, access key and secret key")
		}
	case RemoteMemory, RemoteOffline:
	default:
		return fmt.Errorf("unknown remote kind %q", c.Remote.Kind)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}
