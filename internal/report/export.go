package report

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"fieldinspect/internal/domain/inspection"
)

var ErrUploadDisabled = errors.New("report upload is not configured")

// Uploader stores rendered documents. The minio object store implements it.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

type RecordReader interface {
	Get(ctx context.Context, localID string) (*inspection.Record, error)
}

type Document struct {
	LocalID string
	Version int64
	Variant Variant
	Data    []byte
	// Key is set once the document has been uploaded.
	Key string
}

type Exporter struct {
	records  RecordReader
	renderer *Renderer
	uploader Uploader
	log      *slog.Logger
}

// NewExporter builds an exporter. uploader may be nil when object storage is not configured.
func NewExporter(records RecordReader, renderer *Renderer, uploader Uploader, log *slog.Logger) *Exporter {
	return &Exporter{
		records:  records,
		renderer: renderer,
		uploader: uploader,
		log:      log.With("component", "report_exporter"),
	}
}

// ObjectKey is where a rendered version of a record lives in object storage.
func ObjectKey(localID string, version int64, v Variant) string {
	return fmt.Sprintf("reports/%s/v%d.%s", localID, version, v.Ext())
}

// Render renders the current local payload of a record.
func (e *Exporter) Render(ctx context.Context, localID string, v Variant) (*Document, error) {
	rec, err := e.records.Get(ctx, localID)
	if err != nil {
		return nil, err
	}

	data, err := e.renderer.Render(ctx, rec.Payload, v)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", localID, err)
	}

	return &Document{LocalID: rec.LocalID, Version: rec.Version, Variant: v, Data: data}, nil
}

// Export renders and uploads.
func (e *Exporter) Export(ctx context.Context, localID string, v Variant) (*Document, error) {
	if e.uploader == nil {
		return nil, ErrUploadDisabled
	}

	doc, err := e.Render(ctx, localID, v)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(doc.LocalID, doc.Version, v)
	if err := e.uploader.Upload(ctx, key, doc.Data, v.ContentType()); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	doc.Key = key

	e.log.Info("report exported", "local_id", localID, "key", key, "bytes", len(doc.Data))
	return doc, nil
}
