package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-coursetests/internal/config"
	"github.com/mind-engage/mindengage-coursetests/internal/coursetest"
	"github.com/mind-engage/mindengage-coursetests/internal/db"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "coursectl",
	Short:         "Manage course tests, grade attempts and relay point requests",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		envFile, _ := cmd.Flags().GetString("env-file")
		if envFile != "" {
			cfg = config.Load(envFile)
		} else {
			cfg = config.Load()
		}
		if v, _ := cmd.Flags().GetString("db-driver"); v != "" {
			cfg.DBDriver = v
		}
		if v, _ := cmd.Flags().GetString("db-dsn"); v != "" {
			cfg.DBDSN = v
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "Read environment from this file instead of ./.env")
	rootCmd.PersistentFlags().String("db-driver", "", "Database driver: sqlite|postgres|libpq (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().String("db-dsn", "", "Database DSN (overrides DB_DSN)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(partCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(pointsCmd)
	rootCmd.AddCommand(relayCmd)
}

// openDB opens the configured database; the schema is applied on open.
func openDB(ctx context.Context) (*db.DB, error) {
	driver, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	d, err := db.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return d, nil
}

// withService opens the database and runs fn with a Service on it.
func withService(ctx context.Context, fn func(*coursetest.Service) error) error {
	d, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(coursetest.NewService(coursetest.NewSQLStore(d, cfg.PointsPerTest)))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
