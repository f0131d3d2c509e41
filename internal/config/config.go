package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Store struct {
		// Driver is memory, redis or sqlite.
		Driver     string `yaml:"driver"`
		TTL        string `yaml:"ttl"`
		SQLitePath string `yaml:"sqlitePath"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TimerSeconds   int    `yaml:"timerSeconds"`
		MaxHearts      int    `yaml:"maxHearts"`
		RevealDelay    string `yaml:"revealDelay"`
		CorrectDelay   string `yaml:"correctDelay"`
		IncorrectDelay string `yaml:"incorrectDelay"`
		TimeoutDelay   string `yaml:"timeoutDelay"`
		QuestionTTL    string `yaml:"questionTTL"`
	} `yaml:"quiz"`
	Backend struct {
		Enabled   bool   `yaml:"enabled"`
		URL       string `yaml:"url"`
		LearnerID string `yaml:"learnerId"`
		TestID    string `yaml:"testId"`
		Gender    string `yaml:"gender"`
		School    string `yaml:"school"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"backend"`
}

// Default returns the configuration used for unset keys.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Store.Driver = "memory"
	cfg.Store.TTL = "24h"
	cfg.Store.SQLitePath = "data/sessions.db"
	cfg.Redis.TTL = "10m"
	cfg.Quiz.TimerSeconds = 45
	cfg.Quiz.MaxHearts = 5
	cfg.Quiz.RevealDelay = "300ms"
	cfg.Quiz.CorrectDelay = "3s"
	cfg.Quiz.IncorrectDelay = "2500ms"
	cfg.Quiz.TimeoutDelay = "2s"
	cfg.Quiz.QuestionTTL = "10m"
	cfg.Backend.URL = "http://localhost:3001"
	cfg.Backend.LearnerID = "A070000011"
	cfg.Backend.TestID = "A070000043"
	cfg.Backend.Gender = "M"
	cfg.Backend.School = "S01"
	cfg.Backend.Timeout = "5s"
	return cfg
}

// Load reads YAML config from path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
