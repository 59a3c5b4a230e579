// Command createadmin bootstraps an admin user. Intended for first-time
// setup; it refuses to overwrite an existing account.
//
//	createadmin -username ops_admin -password <secret> [-full-name "Jane Doe"]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
	"github.com/oncoscan/oncoscan-api/internal/core/service"
	"github.com/oncoscan/oncoscan-api/internal/infrastructure/config"
	mongodb "github.com/oncoscan/oncoscan-api/internal/infrastructure/db/mongo"
)

func main() {
	username := flag.String("username", "", "admin username (required)")
	password := flag.String("password", "", "admin password (required)")
	fullName := flag.String("full-name", "", "display name")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*username, *password, *fullName); err != nil {
		fmt.Fprintln(os.Stderr, "createadmin:", err)
		os.Exit(1)
	}
}

func run(username, password, fullName string) error {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	repo := mongodb.NewUserRepository(db)
	if _, err := repo.FindByUsername(ctx, username); err == nil {
		return fmt.Errorf("user %q already exists", username)
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}

	user, err := repo.Create(ctx, &domain.User{
		Username:     username,
		FullName:     fullName,
		Role:         domain.RoleAdmin,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("admin user %s created (id %s)\n", user.Username, user.ID)
	return nil
}
