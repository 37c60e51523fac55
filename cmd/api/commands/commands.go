package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/taskmate/core/internal/application/services"
	"github.com/taskmate/core/internal/infrastructure/config"
	"github.com/taskmate/core/internal/infrastructure/database"
	"github.com/taskmate/core/internal/infrastructure/identity"
	"github.com/taskmate/core/internal/infrastructure/logger"
	"github.com/taskmate/core/internal/infrastructure/metrics"
	"github.com/taskmate/core/internal/infrastructure/server"
	"github.com/taskmate/core/internal/ports"
)

// Set with -ldflags at build time
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "development"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the TaskMate API server",
		Long:  "Start the TaskMate API server using the storage backend selected by storage.driver",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage PostgreSQL schema migrations (up, down, version)",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			steps, _ := cmd.Flags().GetInt("steps")
			runMigration("up", steps)
		},
	}
	upCmd.Flags().Int("steps", 0, "Number of migrations to apply (0 = all)")

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Revert migrations",
		Run: func(cmd *cobra.Command, args []string) {
			steps, _ := cmd.Flags().GetInt("steps")
			runMigration("down", steps)
		},
	}
	downCmd.Flags().Int("steps", 0, "Number of migrations to revert (0 = all)")

	migrateCmd.AddCommand(upCmd, downCmd, &cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Inspect and deactivate user profiles",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print a user profile as JSON",
		Run: func(cmd *cobra.Command, args []string) {
			identityID, _ := cmd.Flags().GetString("identity")
			showUser(identityID)
		},
	}
	showCmd.Flags().String("identity", "", "Identity provider user ID (required)")
	_ = showCmd.MarkFlagRequired("identity")

	deactivateCmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Deactivate a user profile",
		Run: func(cmd *cobra.Command, args []string) {
			identityID, _ := cmd.Flags().GetString("identity")
			deactivateUser(identityID)
		},
	}
	deactivateCmd.Flags().String("identity", "", "Identity provider user ID (required)")
	_ = deactivateCmd.MarkFlagRequired("identity")

	userCmd.AddCommand(showCmd, deactivateCmd)
	return userCmd
}

// NewTokenCommand creates a command that signs identity tokens with the
// configured secret. Meant for local development against the API.
func NewTokenCommand() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development identity token",
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := cmd.Flags().GetString("identity")
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			issueToken(ports.Identity{ID: id, Email: email, EmailVerified: email != "", Name: name}, ttl)
		},
	}

	tokenCmd.Flags().String("identity", "", "Subject of the token (required)")
	tokenCmd.Flags().String("email", "", "Email claim")
	tokenCmd.Flags().String("name", "", "Display name claim")
	tokenCmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("identity")

	return tokenCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print TaskMate version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("TaskMate %s\n", Version)
			fmt.Printf("Build Date: %s\n", BuildDate)
			fmt.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}

func loadConfig() (*config.Config, *logger.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	return cfg, appLogger
}

func runServer() {
	cfg, appLogger := loadConfig()

	// validated by config.Load
	loc, _ := cfg.App.Location()

	stores, err := openStores(context.Background(), cfg, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to open storage", "error", err)
	}

	var (
		recorder    ports.MetricsRecorder
		promMetrics *metrics.Metrics
	)
	if cfg.Metrics.Enabled {
		promMetrics = metrics.New()
		recorder = promMetrics
	}

	srv := server.New(cfg, server.Dependencies{
		Tasks:     services.NewTaskService(stores.tasks, recorder, appLogger),
		Assistant: services.NewAssistantService(stores.tasks, stores.users, loc, recorder, appLogger),
		Users:     services.NewUserService(stores.users, appLogger),
		Verifier:  identity.NewJWTVerifier(cfg.Auth),
		Metrics:   promMetrics,
		Checks:    stores.checks,
		Stats:     stores.stats,
	}, appLogger)

	appLogger.Infow("Starting TaskMate API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"storage", cfg.Storage.Driver,
		"timezone", loc.String(),
	)

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Fatalw("Server failed to start", "error", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownGrace,
		map[string]gfshutdown.Operation{
			"taskmate": func(ctx context.Context) error {
				err := srv.Shutdown(ctx)
				stores.Close(ctx)
				appLogger.Infow("Shutdown complete")
				_ = appLogger.Close()
				return err
			},
		},
	)

	os.Exit(<-wait)
}

func newMigrator(cfg *config.Config) (*migrate.Migrate, *database.DB) {
	if cfg.Storage.Driver != config.DriverPostgres {
		log.Fatalf("Migrations only apply to the %s driver (storage.driver=%s)", config.DriverPostgres, cfg.Storage.Driver)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		log.Fatalf("Failed to create migration driver: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.Database.MigrationsPath, "postgres", driver)
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}

	return m, db
}

func runMigration(direction string, steps int) {
	cfg, _ := loadConfig()

	m, db := newMigrator(cfg)
	defer db.Close()

	var err error
	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to run")
		return
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	fmt.Printf("Migration %s completed successfully\n", direction)
}

func showMigrationVersion() {
	cfg, _ := loadConfig()

	m, db := newMigrator(cfg)
	defer db.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations applied")
		return
	}
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

func showUser(identityID string) {
	cfg, appLogger := loadConfig()
	ctx := context.Background()

	stores, err := openStores(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer stores.Close(ctx)

	user, err := stores.users.FindByIdentity(ctx, identityID)
	if err != nil {
		log.Fatalf("Failed to find user: %v", err)
	}

	out, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode user: %v", err)
	}
	fmt.Println(string(out))
}

func deactivateUser(identityID string) {
	cfg, appLogger := loadConfig()
	ctx := context.Background()

	stores, err := openStores(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer stores.Close(ctx)

	if err := services.NewUserService(stores.users, appLogger).Deactivate(ctx, identityID); err != nil {
		log.Fatalf("Failed to deactivate user: %v", err)
	}

	fmt.Printf("User %s deactivated\n", identityID)
}

func issueToken(id ports.Identity, ttl time.Duration) {
	cfg, _ := loadConfig()
	if cfg.App.IsProduction() {
		log.Fatal("Refusing to issue development tokens in production")
	}

	token, err := identity.NewJWTVerifier(cfg.Auth).Issue(id, ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
