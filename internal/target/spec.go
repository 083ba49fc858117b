package target

import (
	"errors"
	"fmt"
	"strings"
)

// AllSpec selects every timeline of every tenant.
const AllSpec = "ALL"

const specSeparator = ":"

// ErrMalformedSpec is returned for a work specification that is neither
// ALL, a tenant id, nor a tenant:timeline pair.
var ErrMalformedSpec = errors.New("malformed work specification")

// SpecKind tells how a work specification expands.
type SpecKind int

const (
	// SpecAll expands to all timelines of all tenants
	SpecAll SpecKind = iota
	// SpecTenant expands to all timelines of one tenant
	SpecTenant
	// SpecTimeline is a single explicit timeline
	SpecTimeline
)

// Spec is a parsed work specification.
type Spec struct {
	Kind       SpecKind
	TenantID   string
	TimelineID string
}

// ParseSpec parses a single work specification.
func ParseSpec(s string) (Spec, error) {
	comps := strings.Split(s, specSeparator)
	switch {
	case len(comps) == 1 && comps[0] == AllSpec:
		return Spec{Kind: SpecAll}, nil
	case len(comps) == 1 && comps[0] != "":
		return Spec{Kind: SpecTenant, TenantID: comps[0]}, nil
	case len(comps) == 2 && comps[0] != "" && comps[1] != "":
		return Spec{Kind: SpecTimeline, TenantID: comps[0], TimelineID: comps[1]}, nil
	default:
		return Spec{}, fmt.Errorf("%w: %q", ErrMalformedSpec, s)
	}
}

// ParseSpecs parses every specification, failing on the first malformed one.
func ParseSpecs(specs []string) ([]Spec, error) {
	parsed := make([]Spec, 0, len(specs))
	for _, s := range specs {
		p, err := ParseSpec(s)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, p)
	}
	return parsed, nil
}
