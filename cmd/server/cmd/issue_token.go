package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fieldinspect/internal/domain/session"
	"fieldinspect/internal/infrastructure/storage/postgres"
)

var deviceName string

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Issue a bearer token for a device",
	Long: `Issue a bearer token for a device. The token is printed once; only its
hash is stored. Put it in the device's API_TOKEN.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if deviceName == "" {
			return errors.New("--device is required")
		}

		db, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		svc := session.NewService(postgres.NewSessionRepository(db, log), cfg.Auth.DeviceTokenTTL, log)
		token, err := svc.Create(cmd.Context(), deviceName)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	issueTokenCmd.Flags().StringVar(&deviceName, "device", "", "device name, recorded with every push")
}
