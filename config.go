package main

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const defaultFeedURL = "https://www.wroclaw.pl/open-data/datastore/dump/a9b3841d-e977-474e-9e86-8789e470a85a"

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" validate:"gt=0,lte=65535"`
	StaticDir       string        `yaml:"static_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// FeedConfig describes the polled CSV dump
type FeedConfig struct {
	URL      string        `yaml:"url" validate:"required,url"`
	Interval time.Duration `yaml:"interval" validate:"gt=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
}

// StoreConfig bounds the per-vehicle track
type StoreConfig struct {
	MaxHistory int `yaml:"max_history" validate:"min=1,max=1000"`
}

// ValidationConfig controls which feed rows are accepted
type ValidationConfig struct {
	UnknownLine  string  `yaml:"unknown_line"`
	CheckBounds  bool    `yaml:"check_bounds"`
	ReferenceLat float64 `yaml:"reference_lat" validate:"gte=-90,lte=90"`
	ReferenceLon float64 `yaml:"reference_lon" validate:"gte=-180,lte=180"`
	Tolerance    float64 `yaml:"tolerance" validate:"gt=0"`
}

// VisibilityConfig controls the foreground flag. Initial only applies when
// FollowClients is off; otherwise the flag starts hidden until a page connects.
type VisibilityConfig struct {
	Initial       bool `yaml:"initial"`
	FollowClients bool `yaml:"follow_clients"`
}

// LogConfig controls logrus output
type LogConfig struct {
	Level      string `yaml:"level" validate:"oneof=DEBUG INFO WARN ERROR"`
	FilePath   string `yaml:"file_path"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Feed       FeedConfig       `yaml:"feed"`
	Store      StoreConfig      `yaml:"store"`
	Validation ValidationConfig `yaml:"validation"`
	Visibility VisibilityConfig `yaml:"visibility"`
	Log        LogConfig        `yaml:"log"`
}

func DefaultConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Port:            8080,
			StaticDir:       "./static",
			ShutdownTimeout: 10 * time.Second,
		},
		Feed: FeedConfig{
			URL:      defaultFeedURL,
			Interval: 5 * time.Second,
			Timeout:  10 * time.Second,
		},
		Store: StoreConfig{MaxHistory: 10},
		Validation: ValidationConfig{
			UnknownLine:  "None",
			CheckBounds:  true,
			ReferenceLat: 52.0,
			ReferenceLon: 16.0,
			Tolerance:    10.0,
		},
		Visibility: VisibilityConfig{
			Initial:       true,
			FollowClients: true,
		},
		Log: LogConfig{
			Level:      "INFO",
			MaxAgeDays: 7,
		},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path yields the defaults.
func LoadConfig(path string) (AppConfig, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrap(err, "parse config")
		}
	}
	return cfg, cfg.Validate()
}

func (c AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

func (c LogConfig) GetLogLevel() log.Level {
	switch c.Level {
	case "DEBUG":
		return log.DebugLevel
	case "WARN":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
