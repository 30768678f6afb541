package domain

import (
	"context"
	"errors"
)

// Role represents a user's access level
type Role string

const (
	// RoleUser can move money on their own account
	RoleUser Role = "user"

	// RoleAdmin can settle transactions and manage every account
	RoleAdmin Role = "admin"
)

// Valid roles
var validRoles = map[Role]bool{
	RoleUser:  true,
	RoleAdmin: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	AccountID string
	Email     string
	Roles     []Role
}

// HasRole checks whether the principal holds role r.
func (p *Principal) HasRole(r Role) bool {
	for _, role := range p.Roles {
		if role == r {
			return true
		}
	}
	return false
}

type principalKey struct{}

// ContextWithPrincipal returns a copy of ctx carrying p.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
