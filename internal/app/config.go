package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

type Config struct {
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`

	Sessions struct {
		RedisURL    string `toml:"redis_url"`
		TokenHeader string `toml:"token_header"`
		TTLHours    int    `toml:"ttl_hours"`
	} `toml:"sessions"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Scoring struct {
		TieBreak        string `toml:"tie_break"`
		DefaultCategory string `toml:"default_category"`
	} `toml:"scoring"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}
	if config.Sessions.TokenHeader == "" {
		config.Sessions.TokenHeader = "Authorization"
	}
	if config.Sessions.TTLHours <= 0 {
		config.Sessions.TTLHours = 12
	}

	logger.Debug.Printf("Loaded scoring config: %+v", config.Scoring)

	return &config, nil
}
