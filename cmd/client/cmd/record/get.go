package record

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"fieldinspect/cmd/client/cmd/cmdutil"
	"fieldinspect/internal/app/client"
)

var outputFormat string

var GetCmd = &cobra.Command{
	Use:   "get <local-id>",
	Short: "Show a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		rec, err := app.Records.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}

		out := cmd.OutOrStdout()
		if outputFormat == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}

		cmdutil.PrintRecord(out, rec)
		fmt.Fprintln(out)
		fmt.Fprintln(out, cmdutil.Indent(rec.Payload))
		if rec.SyncConflict {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Server copy (run 'inspectctl conflicts show' to compare):")
			fmt.Fprintln(out, cmdutil.Indent(rec.ConflictServerPayload))
		}
		return nil
	},
}

func init() {
	GetCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json)")
}
