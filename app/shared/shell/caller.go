package shell

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

// Roles known to the ledger.
const (
	RoleBorrower = "borrower"
	RoleAdmin    = "admin"
)

// ErrUnauthenticated is returned when a request carries no caller.
var ErrUnauthenticated = errors.New("no authenticated caller")

// Caller is the authenticated identity a request runs on behalf of.
// It is established once per request by the authentication collaborator.
type Caller struct {
	BorrowerID uuid.UUID
	Role       string
}

// IsAdmin reports whether the caller may mutate the catalog.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

type callerKey struct{}

// WithCaller returns a context carrying the caller.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom extracts the caller from the context.
func CallerFrom(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)

	return caller, ok
}

// RequireCaller returns the caller or ErrUnauthenticated.
func RequireCaller(ctx context.Context) (Caller, error) {
	caller, ok := CallerFrom(ctx)
	if !ok || caller.BorrowerID == uuid.Nil {
		return Caller{}, ErrUnauthenticated
	}

	return caller, nil
}

// RequireAdmin returns the caller if it has the admin role.
func RequireAdmin(ctx context.Context) (Caller, error) {
	caller, err := RequireCaller(ctx)
	if err != nil {
		return Caller{}, err
	}

	if !caller.IsAdmin() {
		return Caller{}, ledger.ErrPermissionDenied
	}

	return caller, nil
}
