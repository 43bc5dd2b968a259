package access

import (
	"context"
	"fmt"
)

// Gate checks profile permissions for users identified by U. The zero value
// of U stands for "no user".
type Gate[U comparable] struct {
	resolver Resolver[U]
}

func NewGate[U comparable](resolver Resolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver}
}

// Authorize returns nil when user may perform action on resource,
// ErrUnauthenticated for the zero user and ErrDenied when the profile lacks
// the permission. Resolver failures are returned as they are.
func (g *Gate[U]) Authorize(ctx context.Context, user U, resource string, action Action) error {
	var zero U
	if user == zero {
		return ErrUnauthenticated
	}
	p, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return fmt.Errorf("resolve profile: %w", err)
	}
	perm := NewPermission(resource, action)
	if p == nil || !p.Allows(perm) {
		return fmt.Errorf("%w: %s", ErrDenied, perm)
	}
	return nil
}

func (g *Gate[U]) Can(ctx context.Context, user U, resource string, action Action) bool {
	return g.Authorize(ctx, user, resource, action) == nil
}
