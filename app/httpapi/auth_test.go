package httpapi_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger-go/app/httpapi"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	. "github.com/AntonStoeckl/lending-ledger-go/testutil/helper" //nolint:revive
)

func Test_Authenticator_RoundTrip(t *testing.T) {
	// setup
	authenticator, err := httpapi.NewAuthenticator([]byte("test-secret"))
	require.NoError(t, err)

	// arrange
	caller := shell.Caller{BorrowerID: GivenUniqueID(t), Role: shell.RoleAdmin}
	token, err := authenticator.IssueToken(caller, time.Hour)
	require.NoError(t, err)

	// act
	authenticated, err := authenticator.Authenticate(token)

	// assert
	require.NoError(t, err)
	assert.Equal(t, caller, authenticated)
}

func Test_NewAuthenticator_WithEmptySecret_Fails(t *testing.T) {
	// act
	_, err := httpapi.NewAuthenticator(nil)

	// assert
	assert.ErrorIs(t, err, httpapi.ErrEmptyJWTSecret)
}

func Test_Authenticator_RejectsUnusableTokens(t *testing.T) {
	// setup
	authenticator, err := httpapi.NewAuthenticator([]byte("test-secret"))
	require.NoError(t, err)

	otherAuthenticator, err := httpapi.NewAuthenticator([]byte("other-secret"))
	require.NoError(t, err)

	borrowerID := GivenUniqueID(t)

	expired, err := authenticator.IssueToken(shell.Caller{BorrowerID: borrowerID, Role: shell.RoleBorrower}, -time.Minute)
	require.NoError(t, err)

	foreign, err := otherAuthenticator.IssueToken(shell.Caller{BorrowerID: borrowerID, Role: shell.RoleBorrower}, time.Hour)
	require.NoError(t, err)

	unknownRole, err := authenticator.IssueToken(shell.Caller{BorrowerID: borrowerID, Role: "librarian"}, time.Hour)
	require.NoError(t, err)

	nilSubject, err := authenticator.IssueToken(shell.Caller{BorrowerID: uuid.Nil, Role: shell.RoleBorrower}, time.Hour)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, httpapi.Claims{
		Role: shell.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "lending-ledger",
			Subject:   borrowerID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expired},
		{name: "signed with another secret", token: foreign},
		{name: "unknown role", token: unknownRole},
		{name: "nil subject", token: nilSubject},
		{name: "unsigned", token: unsigned},
		{name: "garbage", token: "not-a-jwt"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := authenticator.Authenticate(tc.token)

			// assert
			assert.ErrorIs(t, err, httpapi.ErrInvalidToken)
		})
	}
}
