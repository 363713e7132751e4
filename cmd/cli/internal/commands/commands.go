package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/puntualdev/puntual/internal/gateway"
	"github.com/puntualdev/puntual/internal/rule"
	"github.com/puntualdev/puntual/internal/session"
)

type Globals struct {
	Debug   bool
	Version string
}

// clientFlags are the connection flags shared by every command that talks
// to the gateway. Precedence: flag/env, then config file, then defaults.
type clientFlags struct {
	Server      string `help:"Gateway base URL" env:"PUNTUAL_SERVER"`
	Dir         string `help:"Local state directory (default ~/.puntual)" env:"PUNTUAL_DIR"`
	Config      string `help:"YAML config file path" env:"PUNTUAL_CONFIG"`
	CountryCode string `help:"Default country calling code for phone numbers" env:"PUNTUAL_COUNTRY_CODE"`
}

// fileConfig is the optional ~/.puntual/config.yaml.
type fileConfig struct {
	Server              string `yaml:"server"`
	CountryCode         string `yaml:"country_code"`
	ExpiryMarginSeconds int    `yaml:"expiry_margin_seconds"`
	MaxTries            uint   `yaml:"max_tries"`
}

func (f *clientFlags) loadFileConfig() (fileConfig, error) {
	var cfg fileConfig

	path := f.Config
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".puntual", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && f.Config == "" {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// connect builds the session manager and gateway client from the resolved
// configuration.
func (f *clientFlags) connect(globals *Globals) (*gateway.Client, *session.Manager, error) {
	fileCfg, err := f.loadFileConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := session.NewStore(f.Dir)
	if err != nil {
		return nil, nil, err
	}

	policy := session.DefaultPolicy()
	if fileCfg.ExpiryMarginSeconds > 0 {
		policy.ExpiryMargin = time.Duration(fileCfg.ExpiryMarginSeconds) * time.Second
	}

	cfg := gateway.DefaultConfig()
	cfg.BaseURL = firstNonEmpty(f.Server, fileCfg.Server, cfg.BaseURL)
	cfg.Phone = rule.PhoneOptions{CallingCode: firstNonEmpty(f.CountryCode, fileCfg.CountryCode, "")}
	if fileCfg.MaxTries > 0 {
		cfg.MaxTries = fileCfg.MaxTries
	}

	manager := session.NewManager(store, cfg.BaseURL, session.WithPolicy(policy))
	return gateway.New(cfg, manager), manager, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// friendlyError translates the session layer's authorization failures into
// an actionable message; everything else passes through.
func friendlyError(err error) error {
	var authErr *session.AuthorizationError
	if errors.As(err, &authErr) {
		return fmt.Errorf("not logged in or session expired; run 'puntual login <email>'")
	}
	return err
}
