package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var ErrMapNotFound = errors.New("no such map in the registry")

// CustomURLFunc translates slippy-map coordinates into a full upstream URL.
// Implementations must be deterministic and side-effect free.
type CustomURLFunc func(z, x, y int) (string, error)

var (
	customFuncsMu sync.RWMutex
	customFuncs   = make(map[string]CustomURLFunc)
)

// RegisterCustomFunc makes a translation function available to layers with
// mode "custom" under the given name. Must be called before the registry is
// built, typically from an init function of the embedding program.
func RegisterCustomFunc(name string, fn CustomURLFunc) {
	customFuncsMu.Lock()
	defer customFuncsMu.Unlock()
	customFuncs[name] = fn
}

// CustomFunc looks up a registered translation function by name.
func CustomFunc(name string) (CustomURLFunc, bool) {
	customFuncsMu.RLock()
	defer customFuncsMu.RUnlock()
	fn, ok := customFuncs[name]
	return fn, ok
}

// Registry is the static, validated collection of map configurations. It is
// built once at startup and read-only afterwards.
type Registry struct {
	maps map[string]*MapConfig
}

// New validates every configuration and builds the registry. A single invalid
// map fails the whole load so a misconfigured process never starts serving.
func New(configs []*MapConfig) (*Registry, error) {
	validate := validator.New()

	maps := make(map[string]*MapConfig, len(configs))
	for _, cfg := range configs {
		if cfg.TileSize == 0 {
			cfg.TileSize = 256
		}
		if cfg.MaxZoom == 0 {
			cfg.MaxZoom = 20
		}
		if err := validate.Struct(cfg); err != nil {
			return nil, fmt.Errorf("map %q failed validation: %w", cfg.ID, err)
		}
		if err := checkLayers(cfg); err != nil {
			return nil, fmt.Errorf("map %q: %w", cfg.ID, err)
		}
		if _, exists := maps[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate map id %q", cfg.ID)
		}
		maps[cfg.ID] = cfg
	}

	return &Registry{maps: maps}, nil
}

// checkLayers enforces the per-mode structural requirements that struct tags
// cannot express.
func checkLayers(cfg *MapConfig) error {
	for i := range cfg.Layers {
		layer := &cfg.Layers[i]
		if layer.Mode == "" {
			layer.Mode = ModeIdentity
		}
		if layer.Protocol == "" {
			layer.Protocol = "https"
		}

		switch layer.Mode {
		case ModeIdentity, ModeTMS:
			if len(layer.Servers) == 0 || layer.URLTemplate == "" {
				return fmt.Errorf("layer %d: mode %s requires servers and url_template", i, layer.Mode)
			}
		case ModeWMTS:
			if len(layer.Servers) == 0 || layer.URLTemplate == "" {
				return fmt.Errorf("layer %d: mode wmts requires servers and url_template", i)
			}
			if len(layer.Matrices) == 0 {
				return fmt.Errorf("layer %d: mode wmts requires a tile matrix set", i)
			}
		case ModeWMS:
			if len(layer.Servers) == 0 || layer.WMS == nil {
				return fmt.Errorf("layer %d: mode wms requires servers and wms parameters", i)
			}
		case ModeCustom:
			if layer.CustomFunc == "" {
				return fmt.Errorf("layer %d: mode custom requires custom_func", i)
			}
			if _, ok := CustomFunc(layer.CustomFunc); !ok {
				return fmt.Errorf("layer %d: custom_func %q is not registered", i, layer.CustomFunc)
			}
		}
	}
	return nil
}

// Lookup returns the configuration for a map identifier.
func (r *Registry) Lookup(id string) (*MapConfig, error) {
	cfg, ok := r.maps[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMapNotFound, id)
	}
	return cfg, nil
}

// IDs returns the identifiers of every registered map.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.maps))
	for id := range r.maps {
		ids = append(ids, id)
	}
	return ids
}
