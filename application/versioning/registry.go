// Package versioning maps inbound version tokens onto registered handler
// variants and reports the supported and deprecated version sets.
package versioning

import (
	"fmt"

	"forecast-backend/application/query"
	"forecast-backend/domain/versioning"
)

// HandlerDescriptor is one registered version of the query endpoint.
type HandlerDescriptor struct {
	Version    versioning.APIVersion
	Deprecated bool
	Variant    query.Variant
}

// Registry is an explicit map from version to handler descriptor.
type Registry struct {
	descriptors map[versioning.APIVersion]HandlerDescriptor
	ordered     []HandlerDescriptor
	report      Report
}

// NewRegistry builds a registry. Registering the same major.minor twice is an error.
func NewRegistry(descriptors ...HandlerDescriptor) (*Registry, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("at least one api version must be registered")
	}

	r := &Registry{descriptors: make(map[versioning.APIVersion]HandlerDescriptor, len(descriptors))}
	versions := make([]versioning.APIVersion, 0, len(descriptors))
	for _, d := range descriptors {
		key := d.Version.Key()
		if _, exists := r.descriptors[key]; exists {
			return nil, fmt.Errorf("api version %s registered more than once", d.Version)
		}
		r.descriptors[key] = d
		versions = append(versions, d.Version)
	}

	versioning.Sort(versions)
	for _, v := range versions {
		d := r.descriptors[v.Key()]
		r.ordered = append(r.ordered, d)
		if d.Deprecated {
			r.report.Deprecated = append(r.report.Deprecated, d.Version)
		} else {
			r.report.Supported = append(r.report.Supported, d.Version)
		}
	}
	return r, nil
}

// Lookup finds the descriptor for v, ignoring its status.
func (r *Registry) Lookup(v versioning.APIVersion) (HandlerDescriptor, bool) {
	d, ok := r.descriptors[v.Key()]
	return d, ok
}

// Descriptors lists every registered descriptor in ascending version order.
func (r *Registry) Descriptors() []HandlerDescriptor {
	out := make([]HandlerDescriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Report is the full registered set partitioned by deprecation.
func (r *Registry) Report() Report {
	return r.report.clone()
}

// Report carries the version lists attached to every versioned response.
type Report struct {
	Supported  []versioning.APIVersion
	Deprecated []versioning.APIVersion
}

// SupportedHeader formats the api-supported-versions value.
func (r Report) SupportedHeader() string {
	return versioning.Join(r.Supported)
}

// DeprecatedHeader formats the api-deprecated-versions value.
func (r Report) DeprecatedHeader() string {
	return versioning.Join(r.Deprecated)
}

func (r Report) clone() Report {
	return Report{
		Supported:  append([]versioning.APIVersion(nil), r.Supported...),
		Deprecated: append([]versioning.APIVersion(nil), r.Deprecated...),
	}
}
