package shell_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/ledger"
)

func Test_CallerFrom_ReturnsTheAttachedCaller(t *testing.T) {
	// arrange
	caller := shell.Caller{BorrowerID: uuid.New(), Role: shell.RoleBorrower}
	ctx := shell.WithCaller(context.Background(), caller)

	// act
	got, ok := shell.CallerFrom(ctx)

	// assert
	assert.True(t, ok)
	assert.Equal(t, caller, got)
}

func Test_RequireCaller_Fails_WithoutCaller(t *testing.T) {
	// act
	_, errMissing := shell.RequireCaller(context.Background())
	_, errNilID := shell.RequireCaller(shell.WithCaller(context.Background(), shell.Caller{Role: shell.RoleAdmin}))

	// assert
	assert.ErrorIs(t, errMissing, shell.ErrUnauthenticated)
	assert.ErrorIs(t, errNilID, shell.ErrUnauthenticated)
}

func Test_RequireAdmin(t *testing.T) {
	// arrange
	admin := shell.Caller{BorrowerID: uuid.New(), Role: shell.RoleAdmin}
	borrower := shell.Caller{BorrowerID: uuid.New(), Role: shell.RoleBorrower}

	// act
	gotAdmin, adminErr := shell.RequireAdmin(shell.WithCaller(context.Background(), admin))
	_, borrowerErr := shell.RequireAdmin(shell.WithCaller(context.Background(), borrower))
	_, anonymousErr := shell.RequireAdmin(context.Background())

	// assert
	require.NoError(t, adminErr)
	assert.Equal(t, admin, gotAdmin)
	assert.ErrorIs(t, borrowerErr, ledger.ErrPermissionDenied)
	assert.ErrorIs(t, anonymousErr, shell.ErrUnauthenticated)
}
