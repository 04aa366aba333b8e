package cell

import "context"

// Repository defines the persisted cell repository API.
// A cell is a single named string value; writing a cell overwrites its previous value.
type Repository interface {
	// Get retrieves the value of a cell and a boolean indicating whether it was ever written
	Get(ctx context.Context, key string) (string, bool, error)

	// Set creates or overwrites the value of a cell
	Set(ctx context.Context, key, value string) error
}
