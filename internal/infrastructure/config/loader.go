package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sheetql/sheetql/assets"
	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/ports"
)

// FileLoader loads YAML configuration from ~/.sheetql/config.yaml
// (overridable via SHEETQL_CONFIG or an explicit path).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider. A missing file is created with
// defaults on first run.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := defaultConfig()
			if err := writeDefault(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}

	return hydrateDefaults(cfg), nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv("SHEETQL_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(userHomeDir(), ".sheetql", "config.yaml")
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func defaultConfig() domain.Config {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		// minimal fallback if the embedded YAML is ever corrupted
		cfg = domain.Config{ConfigFormatVersion: "1"}
	}
	return hydrateDefaults(cfg)
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	home := userHomeDir()
	if cfg.Provider.Endpoint == "" {
		cfg.Provider.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.Provider.ModelID == "" {
		cfg.Provider.ModelID = "gpt-4-turbo"
	}
	if cfg.Provider.MaxTokens == 0 {
		cfg.Provider.MaxTokens = 500
	}
	if cfg.Provider.Temperature == 0 {
		cfg.Provider.Temperature = 0.2
	}
	if cfg.Provider.TimeoutSeconds == 0 {
		cfg.Provider.TimeoutSeconds = 60
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = filepath.Join(home, ".sheetql", "data.db")
	}
	if cfg.Database.CatalogPath == "" {
		if cfg.Database.Driver == "sqlite" && cfg.Database.DSN != "" {
			cfg.Database.CatalogPath = cfg.Database.DSN
		} else {
			cfg.Database.CatalogPath = filepath.Join(home, ".sheetql", "data.db")
		}
	}
	if cfg.Database.MaxRows == 0 {
		cfg.Database.MaxRows = 1000
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = "127.0.0.1:8093"
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = filepath.Join(home, ".sheetql", "audit.db")
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(userHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

func userHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
