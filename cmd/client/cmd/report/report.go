package report

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fieldinspect/internal/app/client"
	"fieldinspect/internal/report"
)

var (
	variant string
	outFile string
	upload  bool
)

var ReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render inspection reports",
}

var exportCmd = &cobra.Command{
	Use:   "export <local-id>",
	Short: "Render a record as HTML or XLSX",
	Long: `Render the local copy of a record. The document is written to --out
(default: <local-id>-v<version>.<ext>) and, with --upload, stored in the
configured object storage under reports/<local-id>/v<version>.<ext>.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		v, err := report.ParseVariant(variant)
		if err != nil {
			return err
		}

		var doc *report.Document
		if upload {
			doc, err = app.Reports.Export(cmd.Context(), args[0], v)
			if errors.Is(err, report.ErrUploadDisabled) {
				return fmt.Errorf("%w: set MINIO_ENDPOINT and MINIO_BUCKET", err)
			}
		} else {
			doc, err = app.Reports.Render(cmd.Context(), args[0], v)
		}
		if err != nil {
			return err
		}

		path := outFile
		if path == "" {
			path = fmt.Sprintf("%s-v%d.%s", doc.LocalID, doc.Version, v.Ext())
		}
		if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Wrote %s (%d bytes)\n", path, len(doc.Data))
		if doc.Key != "" {
			fmt.Fprintf(out, "Uploaded to %s/%s\n", app.Config.Minio.Bucket, doc.Key)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&variant, "variant", string(report.VariantHTML), "html or xlsx")
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file")
	exportCmd.Flags().BoolVar(&upload, "upload", false, "also upload to object storage")

	ReportCmd.AddCommand(exportCmd)
}
