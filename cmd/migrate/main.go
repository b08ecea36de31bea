// Command migrate applies or rolls back the SQL schema under migrations/ and
// takes database backups.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/adapters/media_storage"
	"github.com/khoahotran/folio/internal/application/usecase/backup"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
)

var (
	sourceURL string
	dsn       string
	appLogger = logger.NewZapLogger("development")
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the folio database schema",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(m *migrate.Migrate) error { return m.Up() })
	},
}

var downSteps int

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations (one step by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if downSteps <= 0 {
			return run(func(m *migrate.Migrate) error { return m.Down() })
		}
		return run(func(m *migrate.Migrate) error { return m.Steps(-downSteps) })
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(m *migrate.Migrate) error {
			v, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("no migrations applied")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("version %d (dirty: %t)\n", v, dirty)
			return nil
		})
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Dump the database with pg_dump and upload it to the backup bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("cannot load config: %w", err)
		}
		if dsn == "" {
			dsn = cfg.DB.DSN
		}
		storage, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
		if err != nil {
			return fmt.Errorf("cannot init object storage: %w", err)
		}

		uc := backup.NewBackupUseCase(dsn, cfg.Storage.BackupBucket, storage, backup.PgDump, appLogger)
		out, err := uc.Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(out.URL)
		return nil
	},
}

func run(step func(*migrate.Migrate) error) error {
	if dsn == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("cannot load config: %w", err)
		}
		dsn = cfg.DB.DSN
	}

	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return fmt.Errorf("cannot open migrations: %w", err)
	}
	defer m.Close()

	if err := step(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			appLogger.Info("Schema already up to date")
			return nil
		}
		return err
	}
	v, dirty, _ := m.Version()
	appLogger.Info("Migration finished", zap.Uint("version", v), zap.Bool("dirty", dirty))
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&sourceURL, "source", "file://migrations", "Migration source URL")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database DSN (default: db.dsn from config)")
	downCmd.Flags().IntVarP(&downSteps, "steps", "n", 1, "Number of migrations to roll back, 0 for all")

	rootCmd.AddCommand(upCmd, downCmd, versionCmd, backupCmd)

	if err := rootCmd.Execute(); err != nil {
		appLogger.Error("Migration failed", err)
		os.Exit(1)
	}
}
