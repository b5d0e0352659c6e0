package conflicts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fieldinspect/cmd/client/cmd/cmdutil"
	"fieldinspect/internal/app/client"
	"fieldinspect/internal/domain/sync"
	"fieldinspect/internal/report"
)

var renderDir string

var showCmd = &cobra.Command{
	Use:   "show <local-id>",
	Short: "Show both copies of a conflicted record",
	Long: `Print the local and the server copy of a conflicted record side by side.
With --render DIR both copies are also rendered as HTML reports into DIR.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		rec, err := app.Records.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !rec.SyncConflict {
			return fmt.Errorf("%s: %w", args[0], sync.ErrNotConflicted)
		}

		out := cmd.OutOrStdout()
		cmdutil.PrintRecord(out, rec)
		fmt.Fprintln(out)
		fmt.Fprintln(out, color.CyanString("--- local (version %d) ---", rec.Version))
		fmt.Fprintln(out, cmdutil.Indent(rec.Payload))
		fmt.Fprintln(out, color.MagentaString("--- server (version %d) ---", *rec.ConflictServerVersion))
		fmt.Fprintln(out, cmdutil.Indent(rec.ConflictServerPayload))

		if renderDir == "" {
			return nil
		}
		if err := os.MkdirAll(renderDir, 0o755); err != nil {
			return err
		}
		for name, payload := range map[string][]byte{"local": rec.Payload, "server": rec.ConflictServerPayload} {
			doc, err := app.Renderer.Render(cmd.Context(), payload, report.VariantHTML)
			if err != nil {
				return fmt.Errorf("render %s copy: %w", name, err)
			}
			path := filepath.Join(renderDir, fmt.Sprintf("%s-%s.html", rec.LocalID, name))
			if err := os.WriteFile(path, doc, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s\n", path)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&renderDir, "render", "", "render both copies as HTML into this directory")
}
