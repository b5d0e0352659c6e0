package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Prepare the local record store and check the authority",
	Long: `init creates the local database (running its migrations) and checks
that the inspection authority answers. The store is usable offline even if
the check fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Local store: %s\n", app.Config.DataPath)

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		fmt.Fprintf(out, "Authority:   %s ... ", app.Config.BaseURL())
		if err := app.CheckConnection(ctx); err != nil {
			fmt.Fprintln(out, color.YellowString("unreachable (%v)", err))
			fmt.Fprintln(out, "Records will be kept locally until it is reachable.")
			return nil
		}
		fmt.Fprintln(out, color.GreenString("ok"))

		if app.Config.APIToken == "" {
			fmt.Fprintln(out, color.YellowString("API_TOKEN is not set; pushes will be refused."))
		}
		return nil
	},
}
