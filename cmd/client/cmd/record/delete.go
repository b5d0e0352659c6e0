package record

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fieldinspect/internal/app/client"
	"fieldinspect/internal/domain/inspection"
)

var force bool

var deleteCmd = &cobra.Command{
	Use:   "delete <local-id>",
	Short: "Delete a record from this device",
	Long: `Delete a record from the local store. Records with changes that were never
pushed are kept unless --force is given. The authority copy is not touched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		if force {
			err = app.Records.ForceDelete(cmd.Context(), args[0])
		} else {
			err = app.Records.Delete(cmd.Context(), args[0])
		}
		if errors.Is(err, inspection.ErrUnsynced) {
			return fmt.Errorf("%s has unsynced changes, sync first or use --force", args[0])
		}
		if err != nil {
			return fmt.Errorf("delete record: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVar(&force, "force", false, "delete even if changes were never pushed")
}
