package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vfa-khuongdv/lazy-prune/internal/scheduler"
	"github.com/vfa-khuongdv/lazy-prune/pkg/retention"
)

// LookupFunc resolves an environment variable, like os.LookupEnv
type LookupFunc func(key string) (string, bool)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// expandEnvVars replaces $(VAR) with the variable's value
func expandEnvVars(s string, lookup LookupFunc) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		value, _ := lookup(envPattern.FindStringSubmatch(m)[1])
		return value
	})
}

// Load reads a YAML config file on top of the defaults.
// An empty path returns the defaults.
func Load(path string, lookup LookupFunc) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading config file: %w", retention.ErrConfiguration, err)
	}

	expanded := expandEnvVars(string(data), lookup)
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshalling yaml: %w", retention.ErrConfiguration, err)
	}

	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if v, ok := lookup(EnvName); ok && v != "" {
		cfg.Name = v
	}
	if v, ok := lookup(EnvCredentialsJSON); ok && v != "" {
		cfg.CredentialsJSON = v
	}
	if v, ok := lookup(EnvCredentialsFile); ok && v != "" {
		cfg.CredentialsFile = v
	}
	if v, ok := lookup(EnvFolderID); ok && v != "" {
		cfg.FolderID = v
	}
	if v, ok := lookup(EnvBackend); ok && v != "" {
		cfg.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(EnvKeep); ok && v != "" {
		keep, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer, got %q", retention.ErrConfiguration, EnvKeep, v)
		}
		cfg.Keep = keep
	}
	if v, ok := lookup(EnvDryRun); ok && v != "" {
		dryRun, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s must be a boolean, got %q", retention.ErrConfiguration, EnvDryRun, v)
		}
		cfg.DryRun = dryRun
	}
	if v, ok := lookup(EnvContinueOnError); ok && v != "" {
		cont, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s must be a boolean, got %q", retention.ErrConfiguration, EnvContinueOnError, v)
		}
		cfg.ContinueOnError = cont
	}
	if v, ok := lookup(EnvSchedule); ok && v != "" {
		cfg.Schedule = v
	}
	if v, ok := lookup(EnvHistoryDSN); ok && v != "" {
		cfg.HistoryDSN = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok && v != "" {
		cfg.MetricsAddr = v
	}
	return nil
}

// FromEnv builds a config from an optional file plus the environment
func FromEnv(path string, lookup LookupFunc) (*Config, error) {
	cfg, err := Load(path, lookup)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveCredentials returns the service account key, reading CredentialsFile if needed
func (c *Config) ResolveCredentials() ([]byte, error) {
	if c.CredentialsJSON != "" {
		return []byte(c.CredentialsJSON), nil
	}
	if c.CredentialsFile == "" {
		return nil, fmt.Errorf("%w: %s is required", retention.ErrConfiguration, EnvCredentialsJSON)
	}

	data, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: reading credentials file: %w", retention.ErrConfiguration, err)
	}
	return data, nil
}

// Validate checks the configuration without touching the network
func (c *Config) Validate() error {
	credentials, err := c.ResolveCredentials()
	if err != nil {
		return err
	}
	if !json.Valid(credentials) {
		return fmt.Errorf("%w: %s is not valid JSON", retention.ErrConfiguration, EnvCredentialsJSON)
	}

	if strings.TrimSpace(c.FolderID) == "" {
		return fmt.Errorf("%w: %s is required", retention.ErrConfiguration, EnvFolderID)
	}

	switch c.Backend {
	case BackendDrive, BackendGCS:
	default:
		return fmt.Errorf("%w: unsupported backend %q", retention.ErrConfiguration, c.Backend)
	}

	if c.Keep < 1 {
		return fmt.Errorf("%w: keep must be at least 1, got %d", retention.ErrConfiguration, c.Keep)
	}

	if c.Schedule != "" {
		if err := scheduler.ValidateCronExpression(c.Schedule); err != nil {
			return fmt.Errorf("%w: invalid schedule %q: %w", retention.ErrConfiguration, c.Schedule, err)
		}
	}

	for _, n := range c.Notifications {
		if n.Name == "" {
			return fmt.Errorf("%w: notification name is required", retention.ErrConfiguration)
		}
	}

	return nil
}
