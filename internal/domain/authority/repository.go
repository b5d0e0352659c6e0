package authority

import "context"

// ApplyFunc decides what to store given the current row (nil when absent).
// Returning a nil Inspection and nil error leaves the row untouched.
type ApplyFunc func(current *Inspection) (*Inspection, error)

type Repository interface {
	// Apply runs fn and the resulting write atomically, serialized per localID.
	// It returns the row as stored afterwards.
	Apply(ctx context.Context, localID string, fn ApplyFunc) (*Inspection, error)
	Get(ctx context.Context, localID string) (*Inspection, error)
}
