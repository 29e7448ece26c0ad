package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // analytics timezone on hosts without zoneinfo

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Bank struct {
		Source string `yaml:"source"` // file or postgres
		Path   string `yaml:"path"`
	} `yaml:"bank"`
	ExamResults struct {
		Path string `yaml:"path"`
	} `yaml:"exam_results"`
	Analytics Analytics `yaml:"analytics"`
	Auth      struct {
		Secret   string `yaml:"secret"`
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"auth"`
}

// Analytics holds the windows the statistics read over.
type Analytics struct {
	WeakWindow             int    `yaml:"weak_window"`
	HistoryLimit           int    `yaml:"history_limit"`
	LeaderboardWindow      int    `yaml:"leaderboard_window"`
	LeaderboardMinAnswered int    `yaml:"leaderboard_min_answered"`
	LeaderboardLimit       int    `yaml:"leaderboard_limit"`
	LeaderboardTTL         string `yaml:"leaderboard_ttl"`
	Timezone               string `yaml:"timezone"`
}

const (
	BankSourceFile     = "file"
	BankSourcePostgres = "postgres"
)

// Load reads YAML config from path, fills defaults and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if secret := os.Getenv("QUIZ_AUTH_SECRET"); secret != "" {
		c.Auth.Secret = secret
	}
}

func (c *Config) withDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Bank.Source == "" {
		c.Bank.Source = BankSourceFile
	}
	if c.Bank.Path == "" {
		c.Bank.Path = "config/questions.yaml"
	}
	if c.ExamResults.Path == "" {
		c.ExamResults.Path = "config/exam_results.yaml"
	}
	if c.Analytics.WeakWindow <= 0 {
		c.Analytics.WeakWindow = 30
	}
	if c.Analytics.HistoryLimit <= 0 {
		c.Analytics.HistoryLimit = 20
	}
	if c.Analytics.LeaderboardWindow <= 0 {
		c.Analytics.LeaderboardWindow = 200
	}
	if c.Analytics.LeaderboardMinAnswered == 0 {
		c.Analytics.LeaderboardMinAnswered = 10
	}
	if c.Analytics.LeaderboardLimit == 0 {
		c.Analytics.LeaderboardLimit = 20
	}
	if c.Analytics.Timezone == "" {
		c.Analytics.Timezone = "Asia/Tokyo"
	}
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Bank.Source {
	case BankSourceFile:
	case BankSourcePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("bank source postgres requires postgres.url")
		}
	default:
		return fmt.Errorf("unknown bank source %q", c.Bank.Source)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the analytics timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Analytics.Timezone)
	if err != nil {
		return nil, fmt.Errorf("analytics timezone %q: %w", c.Analytics.Timezone, err)
	}
	return loc, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
