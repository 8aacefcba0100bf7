// Package main seeds a site with an admin user and demo catalogue data and
// prints a development access token.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"

	"trendzportal/internal/app"
	"trendzportal/internal/infrastructure/storage/postgres"
	"trendzportal/pkg/logger"
)

type seedConfig struct {
	Slug          string `envconfig:"SEED_SLUG" default:"demo"`
	DisplayName   string `envconfig:"SEED_NAME" default:"Demo store"`
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"changeme1"`
	Demo          bool   `envconfig:"SEED_DEMO_DATA" default:"true"`
	Migrate       bool   `envconfig:"SEED_MIGRATE" default:"true"`
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	var sc seedConfig
	if err := envconfig.Process("", &sc); err != nil {
		return err
	}
	log, err := cfg.Logger()
	if err != nil {
		return err
	}
	ctx = logger.WithLogger(ctx, log)

	rt, err := app.NewRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.RequirePostgres(); err != nil {
		return err
	}

	if sc.Migrate {
		if err := postgres.ApplySchema(ctx, rt.Pool); err != nil {
			return err
		}
	}

	res, err := app.Seed(ctx, rt.Sites, rt.Services, app.SeedInput{
		Slug:          sc.Slug,
		DisplayName:   sc.DisplayName,
		AdminUsername: sc.AdminUsername,
		AdminPassword: sc.AdminPassword,
		Demo:          sc.Demo,
	})
	if err != nil {
		return err
	}

	log.Infow("seeding completed", "tenant_id", res.Site.ID, "username", res.Admin.Username)
	fmt.Printf("X-Tenant-ID: %s\nAuthorization: Bearer %s\n", res.Site.ID, res.Token)
	return nil
}
