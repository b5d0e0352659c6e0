package conflicts

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fieldinspect/internal/app/client"
)

// ConflictsCmd groups the conflict resolution commands.
var ConflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Inspect and resolve sync conflicts",
	Long: `A conflict means the authority holds a version this device never saw.
Both copies are kept until you pick one, or provide a merged document.`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conflicted records",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		recs, err := app.Resolver.ListConflicts(cmd.Context())
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No conflicts")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LOCAL ID\tLOCAL VERSION\tSERVER VERSION\tMODIFIED")
		for _, rec := range recs {
			server := "?"
			if rec.ConflictServerVersion != nil {
				server = fmt.Sprintf("%d", *rec.ConflictServerVersion)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", rec.LocalID, rec.Version, server,
				rec.LastModified.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	ConflictsCmd.AddCommand(listCmd)
	ConflictsCmd.AddCommand(showCmd)
	ConflictsCmd.AddCommand(resolveCmd)
}
