// Package identity supplies the authenticated principal of a request.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidToken     = errors.New("invalid token")
)

// Role is the coarse permission level of a principal.
type Role string

const (
	RoleMember   Role = "member"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

// Principal is the current authenticated user.
type Principal struct {
	ID             string            `json:"id"`
	Email          string            `json:"email"`
	OrganizationID string            `json:"organization_id"`
	Role           Role              `json:"role"`
	Attributes     map[string]string `json:"attributes,omitempty"`

	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// CanReview reports whether the principal may approve or reject articles.
func (p *Principal) CanReview() bool {
	return p.Role == RoleReviewer || p.Role == RoleAdmin
}

// IsAdmin reports whether the principal may edit anyone's articles.
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Provider resolves the principal behind a request context.
type Provider interface {
	// CurrentUser returns ErrNotAuthenticated when the context carries no valid principal.
	CurrentUser(ctx context.Context) (*Principal, error)
	SignOut(ctx context.Context) error
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// Static is a Provider that always answers with the same principal, or
// ErrNotAuthenticated when it is nil. Useful for tools and tests.
type Static struct {
	Principal *Principal
}

func (s Static) CurrentUser(context.Context) (*Principal, error) {
	if s.Principal == nil {
		return nil, ErrNotAuthenticated
	}
	return s.Principal, nil
}

func (s Static) SignOut(context.Context) error { return nil }
