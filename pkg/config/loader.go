package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DotEnvFiles lists the dotenv files consulted by LoadDotEnv, in priority
// order. Values already present in the process environment always win.
var DotEnvFiles = []string{".env.local", ".env"}

// Load parses environment variables into the provided struct using `env`
// tags. Dotenv files are read first so local development does not need
// exported variables.
//
//	type Config struct {
//	    Port     int    `env:"MBOOK_HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := LoadDotEnv(DotEnvFiles...); err != nil {
		return err
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadDotEnv merges the given dotenv files into the process environment.
// Missing files are skipped; malformed files are reported.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load dotenv %s: %w", f, err)
		}
	}
	return nil
}
