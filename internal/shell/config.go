// Package shell serves what the native WebView wrapper needs at startup: its
// packaging config and the status bar calls to run on launch.
package shell

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PlatformConfig is the per-platform WebView look.
type PlatformConfig struct {
	BackgroundColor string `yaml:"background_color" json:"backgroundColor"`
	ContentInset    string `yaml:"content_inset" json:"contentInset,omitempty"`
}

type ServerConfig struct {
	URL       string `yaml:"url" json:"url"`
	Cleartext bool   `yaml:"cleartext" json:"cleartext"`
}

// Config is the native shell packaging config.
type Config struct {
	AppID   string         `yaml:"app_id" json:"appId"`
	AppName string         `yaml:"app_name" json:"appName"`
	WebDir  string         `yaml:"web_dir" json:"webDir"`
	Server  ServerConfig   `yaml:"server" json:"server"`
	IOS     PlatformConfig `yaml:"ios" json:"ios"`
	Android PlatformConfig `yaml:"android" json:"android"`
}

// Load reads the YAML config at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shell config: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML config and fills defaults.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse shell config: %w", err)
	}

	if cfg.WebDir == "" {
		cfg.WebDir = "out"
	}
	if cfg.IOS.BackgroundColor == "" {
		cfg.IOS.BackgroundColor = "#ffffff"
	}
	if cfg.IOS.ContentInset == "" {
		cfg.IOS.ContentInset = "automatic"
	}
	if cfg.Android.BackgroundColor == "" {
		cfg.Android.BackgroundColor = "#ffffff"
	}

	if cfg.AppID == "" {
		return nil, errors.New("app_id is required")
	}
	if cfg.AppName == "" {
		return nil, errors.New("app_name is required")
	}
	return &cfg, nil
}
