package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	dxerrors "github.com/standardbeagle/dextract/internal/errors"
	"github.com/standardbeagle/dextract/internal/languages"
	"github.com/standardbeagle/dextract/internal/types"
)

// Validator validates configuration and sets smart defaults
type Validator struct {
	registry *languages.Registry
}

// NewValidator creates a validator checking language names against the
// built-in registry
func NewValidator() *Validator {
	return &Validator{registry: languages.Default()}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
// Failures are *errors.ConfigError.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return dxerrors.NewConfigError("project", "", err)
	}

	if err := v.validateScanConfig(&cfg.Scan); err != nil {
		return dxerrors.NewConfigError("scan", "", err)
	}

	if err := v.validateLanguages(cfg.Languages); err != nil {
		return err
	}

	if err := validateExtensions(cfg.IgnoredExtensions); err != nil {
		return dxerrors.NewConfigError("ignored_extensions", "", err)
	}

	for _, group := range []struct {
		field    string
		patterns []string
	}{
		{"include", cfg.Include},
		{"exclude", cfg.Exclude},
	} {
		for _, p := range group.patterns {
			if !doublestar.ValidatePattern(p) {
				return dxerrors.NewConfigError(group.field, p, errors.New("invalid glob pattern"))
			}
		}
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateScanConfig(s *Scan) error {
	if s.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", s.MaxFileSize)
	}
	if s.MaxFileSize > types.MaxAllowedFileSize {
		return fmt.Errorf("max_file_size must be at most %d bytes, got %d", types.MaxAllowedFileSize, s.MaxFileSize)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", s.Workers)
	}
	if s.WatchDebounceMs < 0 {
		return fmt.Errorf("watch_debounce_ms cannot be negative, got %d", s.WatchDebounceMs)
	}
	return nil
}

func (v *Validator) validateLanguages(names []string) error {
	_, err := v.registry.Subset(names...)
	return err
}

func validateExtensions(exts []string) error {
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	return nil
}

func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Scan.MaxFileSize == 0 {
		cfg.Scan.MaxFileSize = types.DefaultMaxFileSize
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = runtime.NumCPU()
	}
	if cfg.Scan.WatchDebounceMs == 0 {
		cfg.Scan.WatchDebounceMs = 300
	}
}

// ValidateConfig runs the default validator
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
