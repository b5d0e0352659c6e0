package record

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fieldinspect/cmd/client/cmd/cmdutil"
	"fieldinspect/internal/app/client"
	"fieldinspect/internal/domain/inspection"
)

var editFile string

var editCmd = &cobra.Command{
	Use:   "edit <local-id>",
	Short: "Replace the payload of a record",
	Long: `Replace the payload of a record with a new JSON document. The version is
incremented and the record becomes pending sync. Conflicted records must be
resolved first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}
		if editFile == "" {
			return errors.New("--file is required")
		}

		payload, err := cmdutil.ReadPayload(editFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		rec, err := app.Records.Edit(cmd.Context(), args[0], payload)
		switch {
		case errors.Is(err, inspection.ErrConflicted):
			return fmt.Errorf("%s has an unresolved conflict, run: inspectctl conflicts resolve %s", args[0], args[0])
		case err != nil:
			return fmt.Errorf("edit record: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s to version %d\n", rec.LocalID, rec.Version)
		return nil
	},
}

func init() {
	editCmd.Flags().StringVarP(&editFile, "file", "f", "", `inspection JSON file ("-" for stdin)`)
}
