package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the tables and indexes the configured store needs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		driver := appInstance.Config.Database.Driver
		if err := appInstance.Store.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migrate %s store: %w", driver, err)
		}
		log.WithField("driver", driver).Info("Store schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
