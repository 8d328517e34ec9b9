package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Port           int
	Token          string
	DBPath         string
	ModelsDir      string
	BackendBaseURL string
	BackendToken   string

	// Orchestration loop bounds; zero means the built-in default.
	MaxTurns            int
	WallClockBudgetSec  int
	ModelCallTimeoutSec int
	HistoryCharBudget   int

	ConfigPath string
	PrintToken bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:           8765,
		BackendBaseURL: "http://127.0.0.1:3000",
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	cfg.ConfigPath = filepath.Join(homeDir, ".config", "seometrics", "config")
	cfg.DBPath = filepath.Join(homeDir, ".config", "seometrics", "seometrics.db")
	cfg.ModelsDir = filepath.Join(homeDir, ".config", "seometrics", "models")

	if err := cfg.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	flag.IntVar(&cfg.Port, "port", cfg.Port, "server port (1-65535)")
	flag.StringVar(&cfg.Token, "token", cfg.Token, "authentication token (auto-generated if empty)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	flag.StringVar(&cfg.ModelsDir, "models-dir", cfg.ModelsDir, "model variant config directory")
	flag.StringVar(&cfg.BackendBaseURL, "backend", cfg.BackendBaseURL, "capability backend base URL")
	flag.StringVar(&cfg.BackendToken, "backend-token", cfg.BackendToken, "capability backend bearer token")
	flag.IntVar(&cfg.MaxTurns, "max-turns", cfg.MaxTurns, "max orchestration turns per request (0 = default)")
	flag.BoolVar(&cfg.PrintToken, "print-token", false, "print token to stdout (for local debugging)")
	flag.Parse()

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 1 and 65535", cfg.Port)
	}

	if cfg.Token == "" {
		token, err := generateToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}
		cfg.Token = token
		if err := cfg.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) loadFromFile() error {
	data, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return err
	}
	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		switch key {
		case "Token":
			c.Token = value
		case "Port":
			if err := parseIntValue(key, value, &c.Port); err != nil {
				return err
			}
		case "DBPath":
			c.DBPath = value
		case "ModelsDir":
			c.ModelsDir = value
		case "BackendBaseURL":
			c.BackendBaseURL = value
		case "BackendToken":
			c.BackendToken = value
		case "MaxTurns":
			if err := parseIntValue(key, value, &c.MaxTurns); err != nil {
				return err
			}
		case "WallClockBudgetSec":
			if err := parseIntValue(key, value, &c.WallClockBudgetSec); err != nil {
				return err
			}
		case "ModelCallTimeoutSec":
			if err := parseIntValue(key, value, &c.ModelCallTimeoutSec); err != nil {
				return err
			}
		case "HistoryCharBudget":
			if err := parseIntValue(key, value, &c.HistoryCharBudget); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseIntValue(key string, value string, dst *int) error {
	var parsed int
	if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	*dst = parsed
	return nil
}

func (c *Config) saveToFile() error {
	dir := filepath.Dir(c.ConfigPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data := fmt.Sprintf("Port=%d\nToken=%s\nDBPath=%s\nModelsDir=%s\nBackendBaseURL=%s\n",
		c.Port, c.Token, c.DBPath, c.ModelsDir, c.BackendBaseURL)
	return os.WriteFile(c.ConfigPath, []byte(data), 0600)
}

func generateToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
