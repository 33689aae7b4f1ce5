package app

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	BackendURL        string `yaml:"backend_url"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
	TypingIntervalMs  int    `yaml:"typing_interval_ms"`
	LessonsDir        string `yaml:"lessons_dir"`
	Python            string `yaml:"python"`
}

func DefaultConfig() Config {
	return Config{
		BackendURL:        "http://localhost:8000/api/chat",
		RequestTimeoutSec: 60,
		TypingIntervalMs:  15,
		LessonsDir:        "problems",
		Python:            "python3",
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = "http://localhost:8000/api/chat"
	}
	if cfg.RequestTimeoutSec <= 0 {
		cfg.RequestTimeoutSec = 60
	}
	if cfg.TypingIntervalMs <= 0 {
		cfg.TypingIntervalMs = 15
	}
	if cfg.LessonsDir == "" {
		cfg.LessonsDir = "problems"
	}
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "codepeer", "config.yml")
}
