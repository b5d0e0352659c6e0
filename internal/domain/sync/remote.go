// Package sync reconciles the local record store with the remote inspection authority.
package sync

import (
	"context"
	"encoding/json"

	"fieldinspect/internal/domain/inspection"
)

// PushRequest is what the authority receives for one record.
type PushRequest struct {
	LocalID               string
	Version               int64
	ExpectedServerVersion *int64
	Payload               json.RawMessage
}

// PushResult is either an acceptance or a rejection carrying the authority's stored snapshot.
type PushResult struct {
	Accepted      bool
	ServerID      int64
	ServerVersion int64
	// Payload is only set on rejection.
	Payload json.RawMessage
}

// Remote is the authority the engine pushes to. Any error it returns is treated
// as a network failure: the record stays pending and is retried on a later cycle.
type Remote interface {
	Push(ctx context.Context, req PushRequest) (PushResult, error)
}

func requestFor(rec *inspection.Record) PushRequest {
	req := PushRequest{
		LocalID: rec.LocalID,
		Version: rec.Version,
		Payload: rec.Payload,
	}
	if rec.ServerVersion != nil {
		v := *rec.ServerVersion
		req.ExpectedServerVersion = &v
	}
	return req
}
