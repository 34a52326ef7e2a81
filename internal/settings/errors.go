package settings

import (
	"errors"
	"fmt"
)

// Sentinel errors for settings operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalid is returned when a patch would produce invalid settings.
	// The store keeps the prior settings unchanged in that case.
	ErrInvalid = errors.New("settings: invalid settings")

	// ErrPersist is returned when the new settings could not be written to
	// disk. The in-memory settings are rolled back to the prior snapshot.
	ErrPersist = errors.New("settings: persist failed")
)

// errf wraps a validation detail in ErrInvalid.
func errf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
