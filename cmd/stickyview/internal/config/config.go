// Package config resolves the optional stickyview.yaml project file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/stickyview/pkg/logging"
	"github.com/go-drift/stickyview/pkg/view"
)

// FileName is the project configuration file looked up in the project
// directory.
const FileName = "stickyview.yaml"

// Config represents the optional stickyview.yaml configuration.
type Config struct {
	App     AppConfig     `yaml:"app"`
	View    ViewConfig    `yaml:"view"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
}

// ViewConfig contains view controller settings.
type ViewConfig struct {
	MarkerClass string `yaml:"marker_class,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string `yaml:"level,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root        string
	ModulePath  string
	AppName     string
	MarkerClass string
	LogLevel    slog.Level
	Verbose     bool
	Metrics     bool
}

// LoadOptional reads stickyview.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}

// Resolve loads stickyview.yaml (if present) and resolves defaults. A go.mod
// in dir, when present, names the app.
func Resolve(dir string) (*Resolved, error) {
	modulePath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	appName := strings.TrimSpace(cfg.App.Name)
	if appName == "" {
		appName = defaultAppName(modulePath, dir)
	}

	markerClass := strings.TrimSpace(cfg.View.MarkerClass)
	if markerClass == "" {
		markerClass = view.DefaultMarkerClass
	}
	if err := validateClassName(markerClass); err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if cfg.Log.Level != "" {
		if level, err = logging.ParseLevel(cfg.Log.Level); err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
	}

	return &Resolved{
		Root:        dir,
		ModulePath:  modulePath,
		AppName:     appName,
		MarkerClass: markerClass,
		LogLevel:    level,
		Verbose:     cfg.Log.Verbose,
		Metrics:     cfg.Metrics.Enabled,
	}, nil
}

// modulePath returns the module path declared in dir/go.mod, or "" when
// there is no go.mod.
func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	if err := module.CheckPath(path); err != nil {
		return "", fmt.Errorf("invalid module path in go.mod: %w", err)
	}
	return path, nil
}

func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modulePath != "" {
		if modName, _, ok := module.SplitPathVersion(modulePath); ok {
			parts := strings.Split(modName, "/")
			base = parts[len(parts)-1]
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "stickyview_app"
	}
	return base
}

// validateClassName accepts class names usable in a CSS class selector
// without escaping.
func validateClassName(class string) error {
	if class[0] >= '0' && class[0] <= '9' {
		return fmt.Errorf("view.marker_class cannot start with a digit (%q)", class)
	}
	if strings.HasPrefix(class, "--") || (class[0] == '-' && len(class) > 1 && class[1] >= '0' && class[1] <= '9') {
		return fmt.Errorf("view.marker_class has an invalid prefix (%q)", class)
	}
	for _, r := range class {
		if !(r == '_' || r == '-' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("view.marker_class contains invalid character %q in %q", r, class)
		}
	}
	return nil
}
