package record

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fieldinspect/cmd/client/cmd/cmdutil"
	"fieldinspect/internal/app/client"
	"fieldinspect/internal/domain/inspection"
)

var (
	onlyPending   bool
	onlyConflicts bool
	onlySynced    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List local records",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		filter := inspection.Filter{}
		switch {
		case onlyPending:
			filter = inspection.UnsyncedFilter()
		case onlyConflicts:
			filter = inspection.ConflictFilter()
		case onlySynced:
			filter = inspection.SyncedFilter()
		}

		recs, err := app.Records.List(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("list records: %w", err)
		}
		if len(recs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No records")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LOCAL ID\tVERSION\tSERVER\tMODIFIED\tCLIENT\tSTATE")
		for _, rec := range recs {
			name := "?"
			if insp, err := inspection.DecodePayload(rec.Payload); err == nil {
				name = insp.ClientName
			}
			server := "-"
			if rec.ServerVersion != nil {
				server = fmt.Sprintf("v%d", *rec.ServerVersion)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
				rec.LocalID, rec.Version, server,
				rec.LastModified.Local().Format("2006-01-02 15:04"),
				name, cmdutil.StateLabel(rec))
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().BoolVar(&onlyPending, "pending", false, "only records waiting for sync")
	listCmd.Flags().BoolVar(&onlyConflicts, "conflicts", false, "only conflicted records")
	listCmd.Flags().BoolVar(&onlySynced, "synced", false, "only synced records")
	listCmd.MarkFlagsMutuallyExclusive("pending", "conflicts", "synced")
}
