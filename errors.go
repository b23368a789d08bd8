package tyeapps

import (
	"errors"
)

// Provider and monitor errors
var (
	ErrTaskMonitorNil = errors.New("task monitor is nil")
	ErrTaskNotFound   = errors.New("task not found")
	ErrNoDashboard    = errors.New("application has no dashboard")

	// Observer errors
	ErrObserverNil = errors.New("observer is nil")

	// Configuration errors
	ErrConfigNil                  = errors.New("config is nil")
	ErrConfigNotPointer           = errors.New("config must be a pointer")
	ErrConfigNotStruct            = errors.New("config must be a struct")
	ErrConfigRequiredFieldMissing = errors.New("required field is missing")
	ErrConfigValidationFailed     = errors.New("config validation failed")
	ErrUnsupportedTypeForDefault  = errors.New("unsupported type for default value")
	ErrDefaultValueParseError     = errors.New("failed to parse default value")
	ErrUnsupportedFormatType      = errors.New("unsupported format type")
	ErrConfigFeederError          = errors.New("config feeder error")
	ErrInvalidRunTaskType         = errors.New("run task type must not be blank")
	ErrInvalidDefaultDashboard    = errors.New("default dashboard is not an absolute URL")
)
