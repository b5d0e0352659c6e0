package inspection

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Inspection is the domain payload a technician fills in on site.
// The sync layer treats it as opaque JSON; only the editing service and the
// report renderer decode it.
type Inspection struct {
	ClientName  string     `json:"clientName" validate:"required,max=200"`
	ClientPhone string     `json:"clientPhone,omitempty" validate:"omitempty,max=40"`
	Address     Address    `json:"address" validate:"required"`
	Technician  string     `json:"technician,omitempty" validate:"omitempty,max=120"`
	VisitDate   *time.Time `json:"visitDate,omitempty"`
	Product     string     `json:"product,omitempty" validate:"omitempty,max=120"`
	TileSpecs   []TileSpec `json:"tileSpecs,omitempty" validate:"omitempty,dive"`
	Issues      []Issue    `json:"issues,omitempty" validate:"omitempty,dive"`
	Photos      []Photo    `json:"photos,omitempty" validate:"omitempty,dive"`
	Conclusion  string     `json:"conclusion,omitempty"`
}

type Address struct {
	Street     string   `json:"street" validate:"required"`
	City       string   `json:"city" validate:"required"`
	PostalCode string   `json:"postalCode,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

type TileSpec struct {
	Model    string  `json:"model" validate:"required"`
	Color    string  `json:"color,omitempty"`
	Batch    string  `json:"batch,omitempty"`
	AreaSqM  float64 `json:"areaSqM,omitempty" validate:"gte=0"`
	PitchDeg float64 `json:"pitchDeg,omitempty" validate:"gte=0,lte=90"`
}

type Issue struct {
	Code        string `json:"code" validate:"required"`
	Severity    string `json:"severity" validate:"required,oneof=low medium high critical"`
	Description string `json:"description,omitempty"`
}

type Photo struct {
	URI     string `json:"uri" validate:"required"`
	Caption string `json:"caption,omitempty"`
}

// PayloadValidator decodes and validates raw inspection payloads.
type PayloadValidator struct {
	validate *validator.Validate
}

func NewPayloadValidator() *PayloadValidator {
	return &PayloadValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Decode parses raw into an Inspection and validates it.
func (v *PayloadValidator) Decode(raw json.RawMessage) (*Inspection, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	var insp Inspection
	if err := json.Unmarshal(raw, &insp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := v.validate.Struct(&insp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &insp, nil
}

// Validate only reports whether raw is an acceptable payload.
func (v *PayloadValidator) Validate(raw json.RawMessage) error {
	_, err := v.Decode(raw)
	return err
}

// DecodePayload parses a payload without validation, for read-only consumers.
func DecodePayload(raw json.RawMessage) (*Inspection, error) {
	var insp Inspection
	if err := json.Unmarshal(raw, &insp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &insp, nil
}
