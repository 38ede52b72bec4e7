// Package auth carries the authenticated caller through a request.
package auth

import (
	"context"
	"strings"
)

// Role is what a caller may do.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// ParseRole converts s into a Role. ok is false for unknown roles.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return r, true
	}
	return "", false
}

// Principal is the user on whose behalf a request runs.
type Principal struct {
	UserID int64
	Role   Role
}

// IsStaff reports whether the principal may work the shop floor. Admins
// are staff too.
func (p Principal) IsStaff() bool {
	return p.Role == RoleStaff || p.Role == RoleAdmin
}

// IsAdmin reports whether the principal has unrestricted access.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
