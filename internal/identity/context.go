// internal/identity/context.go
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the resolved caller identity threaded through request
// contexts by the auth middleware. Exactly one of Member or Staff is set.
type Principal struct {
	AccountID uuid.UUID
	Member    *Member
	Staff     *Staff
}

func (p *Principal) IsStaff() bool {
	return p != nil && p.Staff != nil
}

type principalKey struct{}

// WithPrincipal attaches the caller identity to the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the caller identity set by the auth middleware.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}
