// Command bootstrap-admin creates the first administrator, or promotes an
// existing reviewer, so invitations can be issued.
//
//	bootstrap-admin -email admin@example.com -password '...' -name "Site Admin"
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/truetone/api/internal/config"
	"github.com/truetone/api/internal/database"
	"github.com/truetone/api/internal/model"
	"github.com/truetone/api/internal/repository"
	"github.com/truetone/api/internal/service"
	"github.com/truetone/api/migrations"
)

func main() {
	email := flag.String("email", "", "Admin email (required)")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "Password for a new identity (default: $ADMIN_PASSWORD)")
	name := flag.String("name", "Administrator", "Display name for a new profile")
	migrate := flag.Bool("migrate", false, "Apply the embedded schema first")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "Error: -email is required")
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db := database.NewSurrealDB(database.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Namespace:      cfg.Database.Namespace,
		Database:       cfg.Database.Database,
		ConnectRetries: cfg.Database.ConnectRetries,
		RetryWait:      cfg.Database.RetryWait,
		Logger:         logger,
	})
	if err := db.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if *migrate {
		applied, err := database.ApplyMigrations(ctx, db, migrations.Files)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error applying migrations: %v\n", err)
			os.Exit(1)
		}
		for _, f := range applied {
			fmt.Fprintf(os.Stderr, "applied %s\n", f)
		}
	}

	userRepo := repository.NewUserRepository(db)
	admins := service.NewAdminService(service.AdminServiceConfig{
		UserRepo: userRepo,
		Provider: service.NewLocalAuthProvider(service.LocalAuthProviderConfig{UserRepo: userRepo}),
		Profiles: repository.NewProfileRepository(db),
		Logger:   logger,
	})

	profile, err := admins.EnsureAdmin(ctx, &model.BootstrapAdminRequest{
		Email:    *email,
		Password: *password,
		Name:     *name,
	})
	if err != nil {
		var problem *model.ProblemDetails
		if errors.As(err, &problem) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", problem.Detail)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(profile)
		return
	}

	fmt.Printf("%s is an administrator (user %s, profile %s)\n", profile.Email, profile.UserID, profile.ID)
}
