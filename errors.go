package inspector

import "errors"

var (
	// ErrMissingPrompt is returned when a request carries no prompt.
	ErrMissingPrompt = errors.New("inspector: prompt is required")

	// ErrMissingTime is returned when a request carries no timestamp.
	ErrMissingTime = errors.New("inspector: time is required")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("inspector: invalid configuration")

	// ErrDetectorUnavailable is returned when the AI detector is enabled
	// but its provider cannot be constructed.
	ErrDetectorUnavailable = errors.New("inspector: detector unavailable")

	// ErrStoreFailed is returned when persisting the inspection record fails.
	ErrStoreFailed = errors.New("inspector: writing log record failed")
)
