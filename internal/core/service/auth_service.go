package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
	"github.com/oncoscan/oncoscan-api/internal/core/ports"
)

const seedUsername = "doc_user"
const seedPassword = "securepass"

// AuthService implements credential checks, token issue/validate, and
// subject resolution against the single authoritative user store.
type AuthService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

// EnsureSeedUser writes the demo doctor account when it is absent. The seed
// hash uses the legacy pbkdf2 scheme so both verification paths stay
// exercised. Failures are logged, not fatal: the service still starts.
func (s *AuthService) EnsureSeedUser(ctx context.Context) {
	if _, err := s.repo.FindByUsername(ctx, seedUsername); err == nil {
		return
	}
	hash, err := LegacyHash(seedPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("seed user hash failed")
		return
	}
	_, err = s.repo.Create(ctx, &domain.User{
		Username:     seedUsername,
		FullName:     "Dr. Alice Onco",
		Role:         domain.RoleDoctor,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("seed user create failed")
		return
	}
	s.logger.Info().Str("username", seedUsername).Msg("seed user created")
}

func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		// Do not leak whether the username exists.
		return nil, domain.ErrInvalidCredentials
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if user.Disabled {
		return nil, domain.ErrInactiveAccount
	}
	return user, nil
}

func (s *AuthService) IssueToken(subject string) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(s.tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) ValidateToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", domain.ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", domain.ErrUnauthorized
	}
	return sub, nil
}

func (s *AuthService) Resolve(ctx context.Context, subject string) (*domain.Identity, error) {
	user, err := s.repo.FindByUsername(ctx, subject)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Disabled {
		return nil, domain.ErrInactiveAccount
	}
	display := user.FullName
	if display == "" {
		display = user.Username
	}
	return &domain.Identity{
		UserID:      user.Username,
		DisplayName: display,
		Role:        user.Role,
	}, nil
}
