package record

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fieldinspect/cmd/client/cmd/cmdutil"
	"fieldinspect/internal/app/client"
	"fieldinspect/internal/domain/inspection"
)

var (
	payloadFile string
	clientName  string
	street      string
	city        string
	technician  string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new inspection record",
	Long: `Create a record from a JSON document (--file, "-" for stdin) or from the
minimal --client/--street/--city flags. The record starts at version 1 and
is pending sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		payload, err := createPayload(cmd)
		if err != nil {
			return err
		}

		rec, err := app.Records.Create(cmd.Context(), payload)
		if err != nil {
			return fmt.Errorf("create record: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (version %d, pending sync)\n", rec.LocalID, rec.Version)
		return nil
	},
}

func createPayload(cmd *cobra.Command) (json.RawMessage, error) {
	if payloadFile != "" {
		return cmdutil.ReadPayload(payloadFile, cmd.InOrStdin())
	}
	if clientName == "" {
		return nil, errors.New("either --file or --client is required")
	}

	return json.Marshal(inspection.Inspection{
		ClientName: clientName,
		Address:    inspection.Address{Street: street, City: city},
		Technician: technician,
	})
}

func init() {
	createCmd.Flags().StringVarP(&payloadFile, "file", "f", "", `inspection JSON file ("-" for stdin)`)
	createCmd.Flags().StringVar(&clientName, "client", "", "client name")
	createCmd.Flags().StringVar(&street, "street", "", "street address")
	createCmd.Flags().StringVar(&city, "city", "", "city")
	createCmd.Flags().StringVar(&technician, "technician", "", "technician name")
}
