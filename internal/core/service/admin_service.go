package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
	"github.com/oncoscan/oncoscan-api/internal/core/ports"
)

// AdminService implements user management and the singleton company profile.
type AdminService struct {
	users   ports.UserRepository
	company ports.CompanyRepository
	logger  zerolog.Logger
}

func NewAdminService(users ports.UserRepository, company ports.CompanyRepository, logger zerolog.Logger) *AdminService {
	return &AdminService{users: users, company: company, logger: logger}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *AdminService) CreateUser(ctx context.Context, username, password, fullName, role string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if role == "" {
		role = domain.RoleDoctor
	}
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		FullName:     fullName,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", username).Str("role", role).Msg("user created")
	return created, nil
}

func (s *AdminService) SetUserRole(ctx context.Context, username, role string) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidCredentials
	}
	user, err := s.users.UpdateRole(ctx, username, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("username", username).Str("role", role).Msg("user role updated")
	return user, nil
}

func (s *AdminService) GetCompany(ctx context.Context) (*domain.CompanyProfile, error) {
	return s.company.Get(ctx)
}

// UpsertCompany creates the profile on first call and mutates the single
// existing row on every call after that.
func (s *AdminService) UpsertCompany(ctx context.Context, name, address, contactEmail, logoURL string) (*domain.CompanyProfile, error) {
	profile, err := s.company.Upsert(ctx, &domain.CompanyProfile{
		Name:         name,
		Address:      address,
		ContactEmail: contactEmail,
		LogoURL:      logoURL,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("company", name).Msg("company profile upserted")
	return profile, nil
}
