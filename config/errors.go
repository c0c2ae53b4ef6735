package config

import "errors"

// ErrUnknownPreset is returned when vehicle.preset names no built-in vehicle.
var ErrUnknownPreset = errors.New("unknown vehicle preset")
