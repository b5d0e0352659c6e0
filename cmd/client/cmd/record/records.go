package record

import (
	"github.com/spf13/cobra"
)

// RecordCmd is the parent of all local record operations.
var RecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manage local inspection records",
	Long: `Create, edit, inspect and delete inspection records on this device.
Changes are stored locally first and pushed by "inspectctl sync".`,
}

func init() {
	RecordCmd.AddCommand(createCmd)
	RecordCmd.AddCommand(editCmd)
	RecordCmd.AddCommand(GetCmd)
	RecordCmd.AddCommand(listCmd)
	RecordCmd.AddCommand(deleteCmd)
}
