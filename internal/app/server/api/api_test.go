package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fieldinspect/internal/domain/authority"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type stubSessions struct{}

func (stubSessions) Create(context.Context, string) (string, error) { return "tok", nil }

func (stubSessions) Validate(_ context.Context, token string) (string, error) {
	if token != "good" {
		return "", assert.AnError
	}
	return "tablet-07", nil
}

type stubAuthority struct {
	lastDevice string
}

func (s *stubAuthority) Push(_ context.Context, cmd authority.PushCommand) (*authority.Inspection, error) {
	s.lastDevice = cmd.DeviceID
	return &authority.Inspection{LocalID: cmd.LocalID, ServerID: 1, Version: cmd.Version}, nil
}

func (s *stubAuthority) Get(context.Context, string) (*authority.Inspection, error) {
	return nil, authority.ErrNotFound
}

func TestNew_Routes(t *testing.T) {
	auth := &stubAuthority{}
	mux := New(Deps{Authority: auth, Sessions: stubSessions{}}, slog.Default())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := `{"version":1,"payload":{"clientName":"ACME"}}`

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inspections/a1", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/inspections/a1", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		ServerID      int64 `json:"serverId"`
		ServerVersion int64 `json:"serverVersion"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.ServerVersion)
	assert.Equal(t, "tablet-07", auth.lastDevice)
}
