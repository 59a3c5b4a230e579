package ports

import (
	"context"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
)

type AdminService interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	CreateUser(ctx context.Context, username, password, fullName, role string) (*domain.User, error)
	SetUserRole(ctx context.Context, username, role string) (*domain.User, error)
	GetCompany(ctx context.Context) (*domain.CompanyProfile, error)
	UpsertCompany(ctx context.Context, name, address, contactEmail, logoURL string) (*domain.CompanyProfile, error)
}
