package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
)

const companyCollection = "company_profile"

// CompanyRepository persists the singleton company profile. Upserts always
// target the first (and only) document, so repeated writes mutate one row.
type CompanyRepository struct {
	coll *mongo.Collection
}

func NewCompanyRepository(db *mongo.Database) *CompanyRepository {
	return &CompanyRepository{coll: db.Collection(companyCollection)}
}

type mongoCompany struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Address      string             `bson:"address,omitempty"`
	ContactEmail string             `bson:"contact_email,omitempty"`
	LogoURL      string             `bson:"logo_url,omitempty"`
	CreatedAt    int64              `bson:"created_at"`
}

func (r *CompanyRepository) Get(ctx context.Context) (*domain.CompanyProfile, error) {
	var mc mongoCompany
	if err := r.coll.FindOne(ctx, bson.M{}).Decode(&mc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("find company profile: %w", err)
	}
	return mc.toDomain(), nil
}

func (r *CompanyRepository) Upsert(ctx context.Context, profile *domain.CompanyProfile) (*domain.CompanyProfile, error) {
	update := bson.M{
		"$set": bson.M{
			"name":          profile.Name,
			"address":       profile.Address,
			"contact_email": profile.ContactEmail,
			"logo_url":      profile.LogoURL,
		},
		"$setOnInsert": bson.M{
			"created_at": profile.CreatedAt.Unix(),
		},
	}
	// Empty filter: the collection holds at most one document.
	_, err := r.coll.UpdateOne(ctx, bson.M{}, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("upsert company profile: %w", err)
	}
	return r.Get(ctx)
}

func (mc *mongoCompany) toDomain() *domain.CompanyProfile {
	return &domain.CompanyProfile{
		ID:           mc.ID.Hex(),
		Name:         mc.Name,
		Address:      mc.Address,
		ContactEmail: mc.ContactEmail,
		LogoURL:      mc.LogoURL,
		CreatedAt:    unixToTime(mc.CreatedAt),
	}
}
