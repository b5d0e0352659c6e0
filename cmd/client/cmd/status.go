package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checkServer bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how many records wait for sync or resolution",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := app.Status.Status(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		line := st.String()
		switch {
		case st.Conflicts > 0:
			line = color.RedString(line)
		case st.Pending > 0:
			line = color.YellowString(line)
		default:
			line = color.GreenString(line)
		}
		fmt.Fprintln(out, line)
		fmt.Fprintf(out, "%d records in total, %d synced\n", st.Total, st.Synced)

		if checkServer {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := app.CheckConnection(ctx); err != nil {
				fmt.Fprintf(out, "Authority: %s\n", color.RedString("unreachable: %v", err))
			} else {
				fmt.Fprintf(out, "Authority: %s\n", color.GreenString("ok"))
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&checkServer, "check-server", false, "also ping the authority")
}
