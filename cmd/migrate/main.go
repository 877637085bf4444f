package main

import (
	"errors"
	"fmt"
	"os"

	traderconfig "stock-news-trader/internal/trader/config"
	pkgconfig "stock-news-trader/pkg/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var (
	configPath     string
	migrationsPath string
	downSteps      int
)

func postgresDSN(db pkgconfig.Database) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User, db.Password, db.Host, db.Port, db.DBName, db.SSLMode)
}

func openMigrator() (*migrate.Migrate, error) {
	cfg, err := traderconfig.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	m, err := migrate.New("file://"+migrationsPath, postgresDSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open migrator: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		fmt.Fprintf(os.Stderr, "migration source close: %v\n", srcErr)
	}
	if dbErr != nil {
		fmt.Fprintf(os.Stderr, "migration database close: %v\n", dbErr)
	}
}

func newUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending schema migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeMigrator(m)

			if err := m.Up(); err != nil {
				if errors.Is(err, migrate.ErrNoChange) {
					fmt.Println("Schema already up to date.")
					return nil
				}
				return fmt.Errorf("migration up failed: %w", err)
			}
			fmt.Println("Schema migrated.")
			return nil
		},
	}
}

func newDownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeMigrator(m)

			if err := m.Steps(-downSteps); err != nil {
				if errors.Is(err, migrate.ErrNoChange) {
					fmt.Println("Nothing to revert.")
					return nil
				}
				return fmt.Errorf("migration down failed: %w", err)
			}
			fmt.Printf("Reverted %d migration(s).\n", downSteps)
			return nil
		},
	}
	cmd.Flags().IntVar(&downSteps, "steps", 1, "How many migrations to revert")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeMigrator(m)

			version, dirty, err := m.Version()
			if err != nil {
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Println("No migrations applied yet.")
					return nil
				}
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			fmt.Printf("Schema version %d (dirty=%v)\n", version, dirty)
			return nil
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the trading database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-trader.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "Directory holding the migration files")
	rootCmd.AddCommand(newUpCmd(), newDownCmd(), newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
