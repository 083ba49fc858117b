package target

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -destination=mocks/mock_enumerator.go -package=mocks -source=resolver.go Enumerator

// defaultFanOut bounds concurrent timeline listings while expanding ALL.
const defaultFanOut = 16

// ErrResolutionFailed is matched by every error caused by a failed remote enumeration.
var ErrResolutionFailed = errors.New("target resolution failed")

// ResolutionError wraps the remote error that aborted a resolution.
type ResolutionError struct {
	Spec string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %q: %v", e.Spec, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrResolutionFailed) hold for every ResolutionError.
func (*ResolutionError) Is(target error) bool {
	return target == ErrResolutionFailed
}

// Enumerator lists what exists on the remote side.
type Enumerator interface {
	ListTenants(ctx context.Context) ([]string, error)
	ListTimelines(ctx context.Context, tenantID string) ([]string, error)
}

// Resolver expands work specifications into target sets.
type Resolver struct {
	enumerator Enumerator
	fanOut     int
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFanOut limits how many tenants have their timelines listed at once when expanding ALL.
func WithFanOut(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.fanOut = n
		}
	}
}

// NewResolver returns a Resolver that enumerates through e.
func NewResolver(e Enumerator, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		enumerator: e,
		fanOut:     defaultFanOut,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the union of the targets selected by specs.
// Every spec is parsed before the first remote call, so a malformed spec
// never costs a round trip.
func (r *Resolver) Resolve(ctx context.Context, specs []string) (Set, error) {
	parsed, err := ParseSpecs(specs)
	if err != nil {
		return nil, err
	}

	desired := make(Set)
	for i, spec := range parsed {
		switch spec.Kind {
		case SpecAll:
			if err := r.resolveAll(ctx, desired); err != nil {
				return nil, &ResolutionError{Spec: specs[i], Err: err}
			}
		case SpecTenant:
			if err := r.resolveTenant(ctx, spec.TenantID, desired); err != nil {
				return nil, &ResolutionError{Spec: specs[i], Err: err}
			}
		case SpecTimeline:
			desired.Add(NewKey(spec.TenantID, spec.TimelineID))
		}
	}

	return desired, nil
}

func (r *Resolver) resolveTenant(ctx context.Context, tenantID string, into Set) error {
	timelines, err := r.enumerator.ListTimelines(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to list timelines of tenant %s: %w", tenantID, err)
	}
	for _, tl := range timelines {
		into.Add(NewKey(tenantID, tl))
	}
	return nil
}

func (r *Resolver) resolveAll(ctx context.Context, into Set) error {
	tenants, err := r.enumerator.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}

	// one slot per tenant, so the goroutines never share a slice element
	timelines := make([][]string, len(tenants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.fanOut)
	for i, tenantID := range tenants {
		g.Go(func() error {
			tls, err := r.enumerator.ListTimelines(gctx, tenantID)
			if err != nil {
				return fmt.Errorf("failed to list timelines of tenant %s: %w", tenantID, err)
			}
			timelines[i] = tls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, tenantID := range tenants {
		for _, tl := range timelines[i] {
			into.Add(NewKey(tenantID, tl))
		}
	}
	return nil
}
