package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"forecast-backend/application/query"
	appversioning "forecast-backend/application/versioning"
	"forecast-backend/domain/versioning"

	"gopkg.in/yaml.v3"
)

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values. Unknown keys are rejected.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := decodeYAML(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// HandlerDescriptors builds the registry entries for the declared versions.
func (c *Config) HandlerDescriptors() ([]appversioning.HandlerDescriptor, error) {
	descs := make([]appversioning.HandlerDescriptor, 0, len(c.Versions))
	for _, vc := range c.Versions {
		v, err := versioning.Parse(vc.Version)
		if err != nil {
			return nil, err
		}

		variant := query.Variant{Name: vc.Variant, UnsupportedKeys: vc.UnsupportedKeys}
		if vc.Variant == VariantRewrite {
			strip, err := ParseDirectives(vc.StripDirectives)
			if err != nil {
				return nil, err
			}
			if len(strip) == 0 {
				strip = []query.DirectiveKind{query.DirectiveTop, query.DirectiveSkip}
			}
			variant.Rewrite = query.StripDirectives(strip...)
		}

		descs = append(descs, appversioning.HandlerDescriptor{
			Version:    v,
			Deprecated: vc.Deprecated,
			Variant:    variant,
		})
	}
	return descs, nil
}

// AllowedDirectives returns the per-version allowed sets for versions that declare one.
func (c *Config) AllowedDirectives() (map[versioning.APIVersion][]query.DirectiveKind, error) {
	allowed := make(map[versioning.APIVersion][]query.DirectiveKind)
	for _, vc := range c.Versions {
		if len(vc.AllowedDirectives) == 0 {
			continue
		}
		v, err := versioning.Parse(vc.Version)
		if err != nil {
			return nil, err
		}
		kinds, err := ParseDirectives(vc.AllowedDirectives)
		if err != nil {
			return nil, err
		}
		allowed[v] = kinds
	}
	return allowed, nil
}

// Constraints builds the frozen query policy.
func (c *Config) Constraints() (*query.Constraints, error) {
	allowed, err := c.AllowedDirectives()
	if err != nil {
		return nil, err
	}
	defaults, err := ParseDirectives(c.Query.DefaultAllowedDirectives)
	if err != nil {
		return nil, err
	}
	return query.NewConstraints(c.Query.MaxTop, allowed, defaults)
}

// DefaultVersion parses the configured default version.
func (c *Config) DefaultVersion() (versioning.APIVersion, error) {
	return versioning.Parse(c.Query.DefaultVersion)
}
