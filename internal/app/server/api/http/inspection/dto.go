package inspection

import (
	"encoding/json"
	"net/http"
	"time"
)

type pushInput struct {
	LocalID string `path:"localId" minLength:"1" maxLength:"128" doc:"Record id generated on the device"`
	Body    pushRequest
}

type pushRequest struct {
	Version               int64           `json:"version" minimum:"1" doc:"Local version being pushed"`
	ExpectedServerVersion *int64          `json:"expectedServerVersion,omitempty" doc:"Version the device last saw on the server, omitted on first push"`
	Payload               json.RawMessage `json:"payload" doc:"Inspection document, stored as is"`
}

type pushOutput struct {
	Body pushResponse
}

type pushResponse struct {
	ServerID      int64 `json:"serverId"`
	ServerVersion int64 `json:"serverVersion"`
}

// conflictResponse is the 409 body. It satisfies huma.StatusError so huma
// writes it as the response body instead of a problem document.
type conflictResponse struct {
	ServerID      int64           `json:"serverId"`
	ServerVersion int64           `json:"serverVersion"`
	Payload       json.RawMessage `json:"payload"`
}

func (c *conflictResponse) Error() string {
	return "version conflict"
}

func (c *conflictResponse) GetStatus() int {
	return http.StatusConflict
}

type getInput struct {
	LocalID string `path:"localId" minLength:"1" maxLength:"128"`
}

type getOutput struct {
	Body inspectionResponse
}

type inspectionResponse struct {
	LocalID   string          `json:"localId"`
	ServerID  int64           `json:"serverId"`
	Version   int64           `json:"version"`
	Payload   json.RawMessage `json:"payload"`
	DeviceID  string          `json:"deviceId,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
