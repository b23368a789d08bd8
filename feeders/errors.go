package feeders

import (
	"errors"
)

// Feeder errors
var (
	ErrYamlRead             = errors.New("failed to read YAML")
	ErrTomlRead             = errors.New("failed to read TOML")
	ErrUnsupportedExtension = errors.New("unsupported config file extension")
)
