package ports

import (
	"context"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
)

// UserRepository is the authoritative store of user records. There is no
// secondary lookup path; seed identities are written through Create at
// startup like any other user.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateRole(ctx context.Context, username, role string) (*domain.User, error)
}

// CompanyRepository persists the singleton company profile.
type CompanyRepository interface {
	Get(ctx context.Context) (*domain.CompanyProfile, error)
	Upsert(ctx context.Context, profile *domain.CompanyProfile) (*domain.CompanyProfile, error)
}
