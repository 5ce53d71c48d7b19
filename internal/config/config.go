// Package config loads peer configuration from the environment, generalizing
// the teacher's hardcoded loadConfig() into an env-var-driven one.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-envparse"
)

// Config holds every knob a Host, Joiner, or Spectator process needs.
type Config struct {
	ListenPort      int
	MaxRetries      int
	RetryInterval   time.Duration
	MaxStickerBytes int64
	LogLevel        int
}

// Defaults mirrors the teacher's loadConfig() literal, just expressed as a
// function instead of a struct literal buried in main().
func Defaults() Config {
	return Config{
		ListenPort:      8888,
		MaxRetries:      3,
		RetryInterval:   500 * time.Millisecond,
		MaxStickerBytes: 10 * 1024 * 1024,
		LogLevel:        1, // logger.LevelInfo
	}
}

// Load reads an optional .env-style file (if path is non-empty and exists)
// via hashicorp/go-envparse, then overlays process environment variables,
// starting from Defaults(). Recognized keys: POKEDUEL_PORT,
// POKEDUEL_MAX_RETRIES, POKEDUEL_RETRY_INTERVAL_MS, POKEDUEL_MAX_STICKER_BYTES,
// POKEDUEL_LOG_LEVEL.
func Load(path string) (Config, error) {
	cfg := Defaults()

	env := map[string]string{}
	if path != "" {
		if f, err := os.Open(path); err == nil {
			defer f.Close()
			parsed, err := envparse.Parse(f)
			if err != nil {
				return cfg, err
			}
			env = parsed
		}
	}
	for _, key := range []string{
		"POKEDUEL_PORT", "POKEDUEL_MAX_RETRIES", "POKEDUEL_RETRY_INTERVAL_MS",
		"POKEDUEL_MAX_STICKER_BYTES", "POKEDUEL_LOG_LEVEL",
	} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}

	if v, ok := env["POKEDUEL_PORT"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ListenPort = n
		}
	}
	if v, ok := env["POKEDUEL_MAX_RETRIES"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRetries = n
		}
	}
	if v, ok := env["POKEDUEL_RETRY_INTERVAL_MS"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RetryInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v, ok := env["POKEDUEL_MAX_STICKER_BYTES"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxStickerBytes = n
		}
	}
	if v, ok := env["POKEDUEL_LOG_LEVEL"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LogLevel = n
		}
	}

	return cfg, nil
}
