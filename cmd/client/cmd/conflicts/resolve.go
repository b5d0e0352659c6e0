package conflicts

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fieldinspect/cmd/client/cmd/cmdutil"
	"fieldinspect/internal/app/client"
	"fieldinspect/internal/domain/sync"
)

var (
	keep       string
	mergedFile string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <local-id>",
	Short: "Settle a conflict",
	Long: `Settle a conflict by keeping the local copy, keeping the server copy, or
supplying a merged document:

  inspectctl conflicts resolve a1 --keep local
  inspectctl conflicts resolve a1 --keep server
  inspectctl conflicts resolve a1 --merged merged.json

Without flags on a terminal, an interactive picker is shown.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		d, err := decision(cmd)
		if err != nil {
			return err
		}

		rec, err := app.Resolver.Resolve(cmd.Context(), args[0], d)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", args[0], err)
		}

		state := "pending sync"
		if rec.Synced {
			state = "synced"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Resolved %s: version %d, %s\n", rec.LocalID, rec.Version, state)
		return nil
	},
}

func decision(cmd *cobra.Command) (sync.Decision, error) {
	switch {
	case mergedFile != "":
		payload, err := cmdutil.ReadPayload(mergedFile, cmd.InOrStdin())
		if err != nil {
			return sync.Decision{}, err
		}
		return sync.Merged(payload), nil
	case keep == "local":
		return sync.KeepLocal(), nil
	case keep == "server":
		return sync.KeepServer(), nil
	case keep != "":
		return sync.Decision{}, fmt.Errorf("%w: --keep must be local or server", sync.ErrInvalidDecision)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return sync.Decision{}, errors.New("one of --keep or --merged is required")
	}
	return pick()
}

func pick() (sync.Decision, error) {
	var choice string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Which copy should win?").
			Options(
				huh.NewOption("Keep my local copy (pushed on next sync)", "local"),
				huh.NewOption("Keep the server copy (local edits are dropped)", "server"),
				huh.NewOption("Use a merged document from a file", "merged"),
			).
			Value(&choice),
	))
	if err := form.Run(); err != nil {
		return sync.Decision{}, err
	}

	switch choice {
	case "local":
		return sync.KeepLocal(), nil
	case "server":
		return sync.KeepServer(), nil
	}

	var path string
	if err := huh.NewInput().Title("Merged JSON file").Value(&path).Run(); err != nil {
		return sync.Decision{}, err
	}
	payload, err := cmdutil.ReadPayload(path, os.Stdin)
	if err != nil {
		return sync.Decision{}, err
	}
	return sync.Merged(payload), nil
}

func init() {
	resolveCmd.Flags().StringVar(&keep, "keep", "", "which copy wins: local or server")
	resolveCmd.Flags().StringVar(&mergedFile, "merged", "", `merged inspection JSON file ("-" for stdin)`)
	resolveCmd.MarkFlagsMutuallyExclusive("keep", "merged")
}
