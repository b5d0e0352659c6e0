// Package cmdutil holds helpers shared by inspectctl subcommands.
package cmdutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"fieldinspect/internal/domain/inspection"
)

// ReadPayload reads a JSON document from path, or from stdin when path is "-".
func ReadPayload(path string, stdin io.Reader) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", inspection.ErrInvalidPayload, path)
	}
	return json.RawMessage(data), nil
}

// Indent pretty-prints raw JSON, falling back to the raw text.
func Indent(raw json.RawMessage) string {
	var b bytes.Buffer
	if err := json.Indent(&b, raw, "", "  "); err != nil {
		return string(raw)
	}
	return b.String()
}

// StateLabel is a colored sync state for listings.
func StateLabel(rec *inspection.Record) string {
	switch rec.State() {
	case inspection.StateConflicted:
		return color.RedString(string(inspection.StateConflicted))
	case inspection.StateSynced:
		return color.GreenString(string(inspection.StateSynced))
	default:
		return color.YellowString(string(inspection.StatePending))
	}
}

// PrintRecord writes the metadata block of rec.
func PrintRecord(w io.Writer, rec *inspection.Record) {
	fmt.Fprintf(w, "Local ID:       %s\n", rec.LocalID)
	fmt.Fprintf(w, "Server ID:      %s\n", optional(rec.ServerID))
	fmt.Fprintf(w, "Version:        %d\n", rec.Version)
	fmt.Fprintf(w, "Server version: %s\n", optional(rec.ServerVersion))
	fmt.Fprintf(w, "Last modified:  %s\n", rec.LastModified.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "State:          %s\n", StateLabel(rec))
}

func optional(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
