package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake/store"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return err
	}
	db, dialect, err := store.Connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := store.New(db, dialect).Migrate(cmd.Context())
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d migration(s) applied\n", dialect, applied)
	return nil
}
