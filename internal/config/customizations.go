package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Customizations is the parsed customization file. Per-device overrides
// live under the top-level "devices" key, keyed by device name:
//
//	devices:
//	  Porch Light:
//	    name: Front Porch
//	    icon: mdi:outdoor-lamp
type Customizations map[string]any

// Named is anything that can be looked up in the customization table
type Named interface {
	Name() string
}

// LoadCustomizations loads the customization file at path.
//
// A path that is not an existing regular file is logged and yields an empty
// table. Read and parse failures are logged and returned.
func LoadCustomizations(path string, logger *zap.Logger) (Customizations, error) {
	logger.Debug("Loading customization file", zap.String("path", path))

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		logger.Error("Unable to find customization file", zap.String("path", path))
		return Customizations{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Failed to read customization file", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to read customization file: %w", err)
	}

	var customizations Customizations
	if err := yaml.Unmarshal(data, &customizations); err != nil {
		logger.Error("Failed to parse customization file", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to parse customization file: %w", err)
	}

	if customizations == nil {
		customizations = Customizations{}
	}

	logger.Info("Customization file loaded successfully",
		zap.String("path", path),
		zap.Int("devices", customizations.DeviceCount()))
	return customizations, nil
}

// DeviceCount returns the number of entries under "devices"
func (c Customizations) DeviceCount() int {
	return len(asStringMap(c["devices"]))
}

// OverridesFor returns a copy of the customization overrides for dev. The
// result is never nil; devices without overrides get an empty map.
func (c *Config) OverridesFor(dev Named) map[string]any {
	devices := asStringMap(c.Customizations["devices"])
	if devices == nil {
		return map[string]any{}
	}

	overrides := asStringMap(devices[dev.Name()])
	if overrides == nil {
		return map[string]any{}
	}
	return copyMap(overrides)
}

// GetOverridesForDevice is shorthand for cfg.OverridesFor(dev).
func GetOverridesForDevice(cfg *Config, dev Named) map[string]any {
	return cfg.OverridesFor(dev)
}

// ApplyOverrides returns generated with overrides layered on top. Nested
// mappings are merged key by key. Neither argument is modified.
func ApplyOverrides(generated, overrides map[string]any) (map[string]any, error) {
	merged := copyMap(generated)
	if err := mergo.Merge(&merged, copyMap(overrides), mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to apply overrides: %w", err)
	}
	return merged, nil
}

// asStringMap converts a decoded YAML mapping to map[string]any, or returns
// nil when v is not a mapping.
func asStringMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case Customizations:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out
	}
	return nil
}

func copyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		if nested := asStringMap(v); nested != nil {
			dst[k] = copyMap(nested)
			continue
		}
		dst[k] = v
	}
	return dst
}
