// Package main is the site (tenant) administration CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"trendzportal/internal/app"
	"trendzportal/internal/core/tenant"
	"trendzportal/internal/domain/identity"
	"trendzportal/internal/infrastructure/storage/postgres"
	"trendzportal/pkg/logger"
)

type cliConfig struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret   string `envconfig:"JWT_SECRET"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"warn"`
}

var rootCmd = &cobra.Command{
	Use:           "site",
	Short:         "Manage trendzportal sites",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(migrateCmd(), createCmd(), listCmd(),
		statusCmd("suspend", tenant.StatusSuspended), statusCmd("activate", tenant.StatusActive))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// connect opens the pool and hands it to fn.
func connect(ctx context.Context, fn func(ctx context.Context, cfg cliConfig, pool *postgres.Pool) error) error {
	var cfg cliConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return err
	}
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: true})
	if err != nil {
		return err
	}
	ctx = logger.WithLogger(ctx, log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, cfg, pool)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return connect(cmd.Context(), func(ctx context.Context, _ cliConfig, pool *postgres.Pool) error {
				if err := postgres.ApplySchema(ctx, pool); err != nil {
					return err
				}
				fmt.Println("schema applied")
				return nil
			})
		},
	}
}

func createCmd() *cobra.Command {
	var in tenant.CreateSiteInput
	var admin, password string

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Register a new site",
		Example: `  site create --slug main-store --name "Main store" --admin owner --password s3cret-pass`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.Validate(); err != nil {
				return err
			}
			return connect(cmd.Context(), func(ctx context.Context, cfg cliConfig, pool *postgres.Pool) error {
				registry := tenant.NewPostgresRegistry(pool.Pool)
				if admin == "" {
					s := &tenant.Site{Slug: in.Slug, DisplayName: in.DisplayName, Status: tenant.StatusActive}
					if err := registry.Create(ctx, s); err != nil {
						return err
					}
					fmt.Printf("site %s created: %s\n", s.Slug, s.ID)
					return nil
				}

				if cfg.JWTSecret == "" {
					return fmt.Errorf("JWT_SECRET is required to issue the admin token")
				}
				svc := app.NewServices(app.PostgresStorage(postgres.NewTxManager(pool)), app.Options{
					JWT: identity.DefaultJWTConfig(cfg.JWTSecret),
				})
				res, err := app.Seed(ctx, registry, svc, app.SeedInput{
					Slug:          in.Slug,
					DisplayName:   in.DisplayName,
					AdminUsername: admin,
					AdminPassword: password,
				})
				if err != nil {
					return err
				}
				fmt.Printf("site %s created: %s\nadmin %s token: %s\n", res.Site.Slug, res.Site.ID, res.Admin.Username, res.Token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Slug, "slug", "", "URL-safe site identifier")
	cmd.Flags().StringVar(&in.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&admin, "admin", "", "also create an admin user with this username")
	cmd.Flags().StringVar(&password, "password", "", "password of the admin user")
	_ = cmd.MarkFlagRequired("slug")
	_ = cmd.MarkFlagRequired("name")
	cmd.MarkFlagsRequiredTogether("admin", "password")
	return cmd
}

func listCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sites",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return connect(cmd.Context(), func(ctx context.Context, _ cliConfig, pool *postgres.Pool) error {
				registry := tenant.NewPostgresRegistry(pool.Pool)
				list := registry.ListActive
				if all {
					list = registry.ListAll
				}
				sites, err := list(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSLUG\tNAME\tSTATUS\tCREATED")
				for _, s := range sites {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						s.ID, s.Slug, s.DisplayName, s.Status, s.CreatedAt.Format("2006-01-02"))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include suspended and deleted sites")
	return cmd
}

func statusCmd(use string, status tenant.Status) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <site-id>",
		Short: fmt.Sprintf("Set a site's status to %s", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := tenant.ParseID(args[0])
			if err != nil {
				return err
			}
			return connect(cmd.Context(), func(ctx context.Context, _ cliConfig, pool *postgres.Pool) error {
				if err := tenant.NewPostgresRegistry(pool.Pool).UpdateStatus(ctx, siteID, status); err != nil {
					return err
				}
				fmt.Printf("site %s is now %s\n", siteID, status)
				return nil
			})
		},
	}
}
