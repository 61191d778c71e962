// Package rdns performs best-effort reverse DNS (PTR) lookups. A missing
// PTR record is an expected outcome, not an error.
package rdns

import (
	"context"
	"net"
	"time"
)

// Resolver resolves an address to its PTR name through the operating
// environment's resolver.
type Resolver struct {
	timeout time.Duration

	// injectable for tests
	lookup func(ctx context.Context, addr string) ([]string, error)
}

// NewResolver creates a resolver with the given per-lookup timeout.
func NewResolver(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	r := &net.Resolver{}
	return &Resolver{
		timeout: timeout,
		lookup:  r.LookupAddr,
	}
}

// Resolve returns the first PTR name for addr with the trailing dot
// stripped, or "" when the address has no PTR record or the lookup fails.
func (r *Resolver) Resolve(ctx context.Context, addr string) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	names, err := r.lookup(ctx, addr)
	if err != nil || len(names) == 0 {
		return ""
	}
	name := names[0]
	if len(name) > 0 && name[len(name)-1] == '.' {
		name = name[:len(name)-1]
	}
	return name
}
