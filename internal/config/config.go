// Package config resolves dashboard settings from defaults, a .env file,
// CARDIODASH_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/luki/cardiodash/internal/api"
)

const envPrefix = "CARDIODASH_"

// Config holds the settings shared by all subcommands.
type Config struct {
	BaseURL   string
	PatientID string
	ChatPath  string
	Timeout   time.Duration
	Simulate  bool
	SimDelay  time.Duration
	SimPeriod time.Duration
	LogFile   string
	ExportDir string
	Open      bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:   "http://localhost:5000",
		ChatPath:  api.DefaultChatPath,
		Timeout:   10 * time.Second,
		Simulate:  true,
		SimDelay:  3 * time.Second,
		SimPeriod: 5 * time.Second,
		LogFile:   "cardiodash.log",
		ExportDir: "exports",
	}
}

// Load builds the configuration for the named subcommand from args.
// A missing .env file is not an error.
func Load(name string, args []string, stderr io.Writer) (Config, error) {
	envFile := os.Getenv(envPrefix + "ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "backend base URL")
	fs.StringVar(&cfg.PatientID, "patient", cfg.PatientID, "patient id")
	fs.StringVar(&cfg.ChatPath, "chat-path", cfg.ChatPath, "chatbot analysis endpoint path")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	fs.BoolVar(&cfg.Simulate, "simulate", cfg.Simulate, "append simulated live readings")
	fs.DurationVar(&cfg.SimDelay, "sim-delay", cfg.SimDelay, "delay before the simulated feed starts")
	fs.DurationVar(&cfg.SimPeriod, "sim-period", cfg.SimPeriod, "interval between simulated readings")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file (the terminal belongs to the dashboard)")
	fs.StringVar(&cfg.ExportDir, "out", cfg.ExportDir, "export directory")
	fs.BoolVar(&cfg.Open, "open", cfg.Open, "open the exported chart in a browser")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings needed to talk to the backend.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("backend URL is required (--url or CARDIODASH_BASE_URL)")
	}
	if c.PatientID == "" {
		return errors.New("patient id is required (--patient or CARDIODASH_PATIENT)")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.SimPeriod <= 0 {
		return fmt.Errorf("sim-period must be positive, got %s", c.SimPeriod)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = d
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("BASE_URL", &c.BaseURL)
	str("PATIENT", &c.PatientID)
	str("CHAT_PATH", &c.ChatPath)
	str("LOG_FILE", &c.LogFile)
	str("EXPORT_DIR", &c.ExportDir)

	for key, dst := range map[string]*time.Duration{
		"TIMEOUT":    &c.Timeout,
		"SIM_DELAY":  &c.SimDelay,
		"SIM_PERIOD": &c.SimPeriod,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}
	if err := boolean("SIMULATE", &c.Simulate); err != nil {
		return err
	}
	return boolean("OPEN", &c.Open)
}
