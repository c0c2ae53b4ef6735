package dynamics

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a vehicle calibration cannot be simulated.
var ErrInvalidConfig = errors.New("invalid vehicle configuration")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
