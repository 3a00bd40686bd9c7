// Package config provides configuration loading with multiple sources.
// The loading order, from lowest to highest priority:
//  1. Default values (in code)
//  2. Base configuration file (base.yaml)
//  3. Environment-specific file (e.g. production.yaml)
//  4. Environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles loading configuration from multiple sources.
type Loader struct {
	basePath    string
	environment Environment
	sources     []string
}

// NewLoader creates a configuration loader rooted at basePath.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}
	return &Loader{basePath: basePath, environment: env}
}

// Load builds the effective configuration from the source hierarchy.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	cfg.Environment = l.environment
	l.sources = []string{"defaults"}

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	l.loadEnvironmentVariables(cfg)
	l.sources = append(l.sources, "environment")

	cfg.LoadedFrom = l.sources

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv is the entrypoint used by main: it resolves the environment
// from APP_ENV and loads the hierarchy rooted at CONFIG_PATH.
func LoadFromEnv() (*Config, error) {
	env := Environment(strings.ToLower(os.Getenv("APP_ENV")))
	switch env {
	case Development, Staging, Production:
	default:
		env = Development
	}
	return NewLoader(os.Getenv("CONFIG_PATH"), env).Load()
}

func (l *Loader) loadFile(name string, cfg *Config) error {
	path := filepath.Join(l.basePath, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	l.sources = append(l.sources, path)
	return nil
}

// loadEnvironmentVariables applies env overrides. Only settings an operator
// plausibly changes per deployment get an env knob; weights are tuned
// through the yaml files so they stay reviewable.
func (l *Loader) loadEnvironmentVariables(cfg *Config) {
	setString := func(key string, target *string) {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}
	setString("AWS_REGION", &cfg.AWS.Region)
	setString("TABLE_NAME", &cfg.AWS.TableName)
	setString("MEMBER_INDEX", &cfg.AWS.MemberIndex)
	setString("EVENT_BUS_NAME", &cfg.AWS.EventBusName)
	setString("EVENT_SOURCE", &cfg.AWS.EventSource)
	setString("SUPABASE_URL", &cfg.Supabase.URL)
	setString("SUPABASE_ANON_KEY", &cfg.Supabase.AnonKey)
	setString("SUPABASE_MEMBERS_TABLE", &cfg.Supabase.MembersTable)

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}
	if v := os.Getenv("ENABLE_METRICS"); v != "" {
		cfg.Features.EnableMetrics = v == "true"
	}
	if v := os.Getenv("ENABLE_WEBSOCKET"); v != "" {
		cfg.Features.EnableWebSocket = v == "true"
	}
	if v := os.Getenv("ENABLE_HOT_RELOAD"); v != "" {
		cfg.Features.EnableHotReload = v == "true"
	}
}
