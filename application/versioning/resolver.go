package versioning

import (
	"fmt"
	"strings"

	"forecast-backend/domain/versioning"
	pkgerrors "forecast-backend/pkg/errors"
)

// Resolution is the outcome of resolving one request's version token.
type Resolution struct {
	Descriptor HandlerDescriptor
	Report     Report
	// Defaulted is true when no token was given and the default version was used.
	Defaulted bool
}

// Resolver picks the handler descriptor for a version token.
type Resolver struct {
	registry       *Registry
	assumeDefault  bool
	defaultVersion versioning.APIVersion
}

// NewResolver creates a resolver. When assumeDefault is set the default
// version must be registered.
func NewResolver(registry *Registry, assumeDefault bool, defaultVersion versioning.APIVersion) (*Resolver, error) {
	if assumeDefault {
		if _, ok := registry.Lookup(defaultVersion); !ok {
			return nil, fmt.Errorf("default api version %s is not registered", defaultVersion)
		}
	}
	return &Resolver{
		registry:       registry,
		assumeDefault:  assumeDefault,
		defaultVersion: defaultVersion,
	}, nil
}

// Registry exposes the registered descriptors.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve matches token exactly on major.minor. An empty token resolves to
// the default version only when assumeDefault is enabled. The returned
// Resolution always carries the version report, also on error.
func (r *Resolver) Resolve(token string) (Resolution, error) {
	res := Resolution{Report: r.registry.Report()}
	token = strings.TrimSpace(token)

	if token == "" {
		if !r.assumeDefault {
			return res, pkgerrors.NewUnresolvedVersionError("")
		}
		d, _ := r.registry.Lookup(r.defaultVersion)
		res.Descriptor = d
		res.Defaulted = true
		return res, nil
	}

	v, err := versioning.Parse(token)
	if err != nil {
		return res, pkgerrors.NewUnresolvedVersionError(token).WithCause(err)
	}

	d, ok := r.registry.Lookup(v)
	if !ok {
		return res, pkgerrors.NewUnresolvedVersionError(token)
	}
	res.Descriptor = d
	return res, nil
}
