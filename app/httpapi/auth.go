package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
)

const (
	tokenCookieName = "token"
	tokenIssuer     = "lending-ledger"
)

var (
	// ErrEmptyJWTSecret is returned when an Authenticator is created without a secret.
	ErrEmptyJWTSecret = errors.New("jwt secret must not be empty")

	// ErrInvalidToken is returned for tokens that fail verification or carry unusable claims.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the JWT claims the ledger understands. The subject is the borrower id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 tokens.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator for the given shared secret.
func NewAuthenticator(secret []byte) (*Authenticator, error) {
	if len(secret) == 0 {
		return nil, ErrEmptyJWTSecret
	}

	return &Authenticator{secret: secret, now: time.Now}, nil
}

// IssueToken signs a token for the caller that expires after ttl.
func (a *Authenticator) IssueToken(caller shell.Caller, ttl time.Duration) (string, error) {
	now := a.now()

	claims := Claims{
		Role: caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   caller.BorrowerID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Authenticate verifies the token and turns its claims into a caller.
func (a *Authenticator) Authenticate(tokenString string) (shell.Caller, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return shell.Caller{}, errors.Join(ErrInvalidToken, err)
	}

	borrowerID, err := uuid.Parse(claims.Subject)
	if err != nil || borrowerID == uuid.Nil {
		return shell.Caller{}, errors.Join(ErrInvalidToken, errors.New("subject is not a borrower id"))
	}

	switch claims.Role {
	case shell.RoleBorrower, shell.RoleAdmin:
	default:
		return shell.Caller{}, errors.Join(ErrInvalidToken, errors.New("unknown role"))
	}

	return shell.Caller{BorrowerID: borrowerID, Role: claims.Role}, nil
}

// authenticate attaches the caller to the request context when a token is present.
// Requests without a token pass through; the use cases reject them with shell.ErrUnauthenticated.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)
		if tokenString == "" {
			next.ServeHTTP(w, r)
			return
		}

		caller, err := s.authenticator.Authenticate(tokenString)
		if err != nil {
			s.logger.DebugContext(r.Context(), "rejected token", "error", err.Error())
			s.writeError(w, r, err)

			return
		}

		next.ServeHTTP(w, r.WithContext(shell.WithCaller(r.Context(), caller)))
	})
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}

	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		return cookie.Value
	}

	return ""
}
