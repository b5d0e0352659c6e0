// Package report turns an inspection payload into a shareable document.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/xuri/excelize/v2"

	"fieldinspect/internal/domain/inspection"
)

type Variant string

const (
	VariantHTML Variant = "html"
	VariantXLSX Variant = "xlsx"
)

var ErrUnknownVariant = errors.New("unknown report variant")

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(s)); v {
	case VariantHTML, VariantXLSX:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

func (v Variant) Ext() string {
	return string(v)
}

func (v Variant) ContentType() string {
	if v == VariantXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/html; charset=utf-8"
}

// Renderer produces document bytes from a payload. It never looks at sync metadata.
type Renderer struct {
	html *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{html: template.Must(template.New("report").Funcs(template.FuncMap{
		"date": formatDate,
	}).Parse(htmlTemplate))}
}

func (r *Renderer) Render(ctx context.Context, payload json.RawMessage, variant Variant) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	insp, err := inspection.DecodePayload(payload)
	if err != nil {
		return nil, err
	}

	switch variant {
	case VariantHTML:
		var buf bytes.Buffer
		if err := r.html.Execute(&buf, insp); err != nil {
			return nil, fmt.Errorf("render html: %w", err)
		}
		return buf.Bytes(), nil
	case VariantXLSX:
		return renderXLSX(insp)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
	}
}

func renderXLSX(insp *inspection.Inspection) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Inspection"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}

	rows := [][]any{
		{"Client", insp.ClientName},
		{"Phone", insp.ClientPhone},
		{"Address", insp.Address.Street},
		{"City", insp.Address.City},
		{"Postal code", insp.Address.PostalCode},
		{"Technician", insp.Technician},
		{"Visit date", formatDate(insp)},
		{"Product", insp.Product},
		{"Conclusion", insp.Conclusion},
	}
	if err := writeRows(f, summary, rows); err != nil {
		return nil, err
	}

	if len(insp.TileSpecs) > 0 {
		rows := [][]any{{"Model", "Color", "Batch", "Area (m2)", "Pitch (deg)"}}
		for _, s := range insp.TileSpecs {
			rows = append(rows, []any{s.Model, s.Color, s.Batch, s.AreaSqM, s.PitchDeg})
		}
		if err := writeSheet(f, "Tiles", rows); err != nil {
			return nil, err
		}
	}

	if len(insp.Issues) > 0 {
		rows := [][]any{{"Code", "Severity", "Description"}}
		for _, is := range insp.Issues {
			rows = append(rows, []any{is.Code, is.Severity, is.Description})
		}
		if err := writeSheet(f, "Issues", rows); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	return writeRows(f, name, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatDate(insp *inspection.Inspection) string {
	if insp.VisitDate == nil {
		return ""
	}
	return insp.VisitDate.Format("2006-01-02")
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Inspection - {{.ClientName}}</title></head>
<body>
<h1>Inspection report</h1>
<table>
<tr><th>Client</th><td>{{.ClientName}}</td></tr>
{{- with .ClientPhone}}<tr><th>Phone</th><td>{{.}}</td></tr>{{end}}
<tr><th>Address</th><td>{{.Address.Street}}, {{.Address.PostalCode}} {{.Address.City}}</td></tr>
{{- with .Technician}}<tr><th>Technician</th><td>{{.}}</td></tr>{{end}}
{{- with date .}}<tr><th>Visit date</th><td>{{.}}</td></tr>{{end}}
{{- with .Product}}<tr><th>Product</th><td>{{.}}</td></tr>{{end}}
</table>
{{- if .TileSpecs}}
<h2>Tiles</h2>
<table>
<tr><th>Model</th><th>Color</th><th>Batch</th><th>Area (m2)</th><th>Pitch (deg)</th></tr>
{{- range .TileSpecs}}
<tr><td>{{.Model}}</td><td>{{.Color}}</td><td>{{.Batch}}</td><td>{{.AreaSqM}}</td><td>{{.PitchDeg}}</td></tr>
{{- end}}
</table>
{{- end}}
{{- if .Issues}}
<h2>Issues</h2>
<ul>
{{- range .Issues}}
<li class="{{.Severity}}"><strong>{{.Code}}</strong> ({{.Severity}}) {{.Description}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Photos}}
<h2>Photos</h2>
{{- range .Photos}}
<figure><img src="{{.URI}}" alt="{{.Caption}}"><figcaption>{{.Caption}}</figcaption></figure>
{{- end}}
{{- end}}
{{- with .Conclusion}}
<h2>Conclusion</h2>
<p>{{.}}</p>
{{- end}}
</body>
</html>
`
