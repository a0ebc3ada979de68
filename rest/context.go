package rest

import (
	"context"
	"fmt"
	"maps"
)

// reservedProperties are engine settings that never reach templates.
var reservedProperties = map[string]bool{
	"model":          true,
	"fun":            true,
	"caseSensitive":  true,
	"quotedCasing":   true,
	"unquotedCasing": true,
}

// RequestContext is the scan-local state templates are rendered against.
// A new one is built for every scan and never shared between scans.
type RequestContext struct {
	// Values is the template data: offset, limit, name, properties,
	// projects, filters and the bound field values.
	Values map[string]any

	// Bound holds the literal of the last pushed predicate per field.
	// Request-only fields take their row value from here.
	Bound map[string]any
}

// BuildRequestContext assembles the template data for a scan of t.
//
// offset, limit and name are always present. Every property except the
// reserved engine settings is added as a string. projects is added when
// non-empty, de-duplicated in order. filters is added when groups is
// non-empty as a list of lists of {name, operator, value} maps. Finally each
// pushed predicate's value is bound under its field name, so templates can
// use {{.region}} directly. A bound value replaces any key of the same name,
// including offset, limit, name and caller properties.
func BuildRequestContext(t *Table, props map[string]any, groups []FilterGroup, projects []string, offset int64) *RequestContext {
	values := map[string]any{
		"offset": offset,
		"limit":  t.config.PageSize,
		"name":   t.name,
	}

	for k, v := range props {
		if reservedProperties[k] || v == nil {
			continue
		}
		values[k] = fmt.Sprint(v)
	}

	if len(projects) > 0 {
		seen := make(map[string]bool, len(projects))
		names := make([]string, 0, len(projects))
		for _, p := range projects {
			if !seen[p] {
				seen[p] = true
				names = append(names, p)
			}
		}
		values["projects"] = names
	}

	bound := make(map[string]any)
	if len(groups) > 0 {
		filters := make([][]map[string]any, 0, len(groups))
		for _, g := range groups {
			group := make([]map[string]any, 0, len(g))
			for _, p := range g {
				group = append(group, map[string]any{
					"name":     p.Field,
					"operator": p.Operator,
					"value":    p.Value,
				})
				bound[p.Field] = p.Value
			}
			filters = append(filters, group)
		}
		values["filters"] = filters
	}
	maps.Copy(values, bound)

	return &RequestContext{Values: values, Bound: bound}
}

type propertiesKey struct{}

// WithProperties returns a context carrying caller properties for the
// request context of scans made with it. Later calls add to and override
// earlier ones.
func WithProperties(ctx context.Context, props map[string]any) context.Context {
	merged := maps.Clone(PropertiesFromContext(ctx))
	if merged == nil {
		merged = make(map[string]any, len(props))
	}
	maps.Copy(merged, props)
	return context.WithValue(ctx, propertiesKey{}, merged)
}

// PropertiesFromContext returns the properties set by WithProperties.
// The map must not be modified.
func PropertiesFromContext(ctx context.Context) map[string]any {
	props, _ := ctx.Value(propertiesKey{}).(map[string]any)
	return props
}
