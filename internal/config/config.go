package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		APIURL    string `yaml:"api_url"`
		SocketURL string `yaml:"socket_url"`
	} `yaml:"server"`
	Auth struct {
		TokenFile string `yaml:"token_file"`
	} `yaml:"auth"`
	Play struct {
		Rejoin     bool   `yaml:"rejoin"`
		WrongPulse string `yaml:"wrong_pulse"`
	} `yaml:"play"`
	Cache struct {
		QuizTTL string `yaml:"quiz_ttl"`
	} `yaml:"cache"`
	History struct {
		Path string `yaml:"path"`
	} `yaml:"history"`
	Simulate struct {
		Port            string `yaml:"port"`
		QuizFile        string `yaml:"quiz_file"`
		QuestionSeconds int    `yaml:"question_seconds"`
		Redis           struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			TTL      string `yaml:"ttl"`
		} `yaml:"redis"`
	} `yaml:"simulate"`
}

// Load reads YAML config from path. A missing file is not an error: the
// client must run with zero setup, so defaults apply.
func Load(path string) (Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaults() Config {
	cfg := Config{}
	cfg.Server.APIURL = "http://localhost:5000"
	cfg.Server.SocketURL = "ws://localhost:5000/ws"
	cfg.Auth.TokenFile = defaultStatePath("token")
	cfg.History.Path = defaultStatePath("history.db")
	cfg.Simulate.Port = "5000"
	cfg.Simulate.QuestionSeconds = 30
	return cfg
}

// DefaultPath is where the client looks for its config when no flag or env
// override is given.
func DefaultPath() string {
	return defaultStatePath("config.yaml")
}

func defaultStatePath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return home + "/.quizmon/" + name
}

// Duration parses a duration string or returns the fallback if empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
