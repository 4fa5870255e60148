package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var envRef = regexp.MustCompile(`\$\{[^}]+\}`)

// expandEnvVars resolves ${VAR} and ${VAR:default} references. An unset
// variable without a default becomes the empty string.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		name, fallback, _ := strings.Cut(ref[2:len(ref)-1], ":")
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return fallback
	})
}

// LoadFile decodes one YAML file into dest after resolving environment
// references. Fields absent from the file keep the values already in dest.
func LoadFile(path string, dest any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(raw))), dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Loader reads the configuration directory once at process start. The
// returned values must be treated as read-only afterwards.
type Loader struct {
	configDir string
	cfg       *Config
	profiles  *ProfilesConfig
	providers *ProvidersConfig
	logger    *slog.Logger
}

func NewLoader(configDir string, logger *slog.Logger) *Loader {
	return &Loader{
		configDir: configDir,
		logger:    logger,
	}
}

// Load reads orchestrator.yaml, profiles.yaml and providers.yaml. A missing file
// keeps the built-in defaults; a malformed one is an error.
func (l *Loader) Load() error {
	cfg, profiles, providers := DefaultConfig(), DefaultProfiles(), DefaultProviders()

	files := []struct {
		name string
		dest any
	}{
		{"orchestrator.yaml", cfg},
		{"profiles.yaml", profiles},
		{"providers.yaml", providers},
	}
	for _, f := range files {
		path := filepath.Join(l.configDir, f.name)
		err := LoadFile(path, f.dest)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			l.logger.Info("config file absent, keeping defaults", "file", path)
		case err != nil:
			return fmt.Errorf("load %s: %w", f.name, err)
		}
	}

	l.cfg, l.profiles, l.providers = cfg, profiles, providers
	l.logger.Info("configuration loaded", "dir", l.configDir)
	return nil
}

func (l *Loader) Config() *Config {
	return l.cfg
}

func (l *Loader) Profiles() *ProfilesConfig {
	return l.profiles
}

func (l *Loader) Providers() *ProvidersConfig {
	return l.providers
}
