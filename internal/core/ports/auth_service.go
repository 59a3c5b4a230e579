package ports

import (
	"context"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
)

type AuthService interface {
	// Authenticate checks a username/password pair against the user store.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	// IssueToken signs a bearer token carrying the subject claim.
	IssueToken(subject string) (string, error)
	// ValidateToken verifies a bearer token and returns its subject.
	ValidateToken(token string) (string, error)
	// Resolve maps a token subject back to its identity. It runs on every
	// authenticated request.
	Resolve(ctx context.Context, subject string) (*domain.Identity, error)
}
