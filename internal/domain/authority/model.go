package authority

import (
	"encoding/json"
	"time"
)

// Inspection is the authority's copy of a device record.
type Inspection struct {
	LocalID   string          `json:"localId"`
	ServerID  int64           `json:"serverId"`
	Version   int64           `json:"version"`
	Payload   json.RawMessage `json:"payload"`
	Checksum  []byte          `json:"-"`
	DeviceID  string          `json:"deviceId,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PushCommand is one device push.
type PushCommand struct {
	LocalID               string
	Version               int64
	ExpectedServerVersion *int64
	Payload               json.RawMessage
	DeviceID              string
}
