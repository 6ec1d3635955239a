package browser

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/internal/config"
)

// Constructor builds a Backend for one backend kind. The indirection keeps
// this package free of the steel and local imports, which both depend on it.
type Constructor func(cfg config.BrowserConfig, logger *zap.Logger) (Backend, error)

// NewFromRegistry selects the constructor matching cfg.Backend.
func NewFromRegistry(cfg config.BrowserConfig, logger *zap.Logger, registry map[config.BrowserBackendKind]Constructor) (Backend, error) {
	ctor, ok := registry[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("no browser backend registered for %q", cfg.Backend)
	}
	backend, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building %s browser backend: %w", cfg.Backend, err)
	}
	return backend, nil
}
