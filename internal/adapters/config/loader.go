// Package config loads the client configuration from tillsync.yaml and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader reads Settings from a YAML file, applies TILLSYNC_* environment overrides and validates
// the result.
type Loader struct {
	Logger   ports.Logger
	validate *validator.Validate
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{
		Logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Load discovers tillsync.yaml from cwd upwards. Without a file, defaults and the environment
// must be enough to pass validation.
func (l *Loader) Load(cwd string) (*Settings, error) {
	path, found := findFile(cwd)
	if !found {
		l.Logger.Info(fmt.Sprintf("no %s found, using defaults and environment", FileName))
		return l.build(Defaults(), "")
	}
	return l.LoadFile(path)
}

// LoadFile reads the settings from path. The file must exist.
func (l *Loader) LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, domain.Tag(zerr.Wrap(errors.Join(domain.ErrConfigReadFailed, err), "load config"), "path", path)
	}

	s := Defaults()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, domain.Tag(zerr.Wrap(errors.Join(domain.ErrConfigParseFailed, err), "decode yaml"), "path", path)
	}
	return l.build(s, path)
}

func (l *Loader) build(s Settings, path string) (*Settings, error) {
	if err := env.ParseWithOptions(&s, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrConfigParseFailed, err), "apply environment")
	}

	if err := l.validate.Struct(s); err != nil {
		return nil, invalid(err)
	}
	s.Path = path
	return &s, nil
}

func invalid(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return zerr.Wrap(errors.Join(domain.ErrConfigInvalid, err), "validate")
	}
	first := verrs[0]
	wrapped := zerr.Wrap(errors.Join(domain.ErrConfigInvalid, err), "validate")
	return domain.Tag(domain.Tag(wrapped, "field", first.Namespace()), "rule", first.Tag())
}

func findFile(cwd string) (string, bool) {
	dir := cwd
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", false
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
