package domain

import "errors"

// Ingestion path: always logged and dropped, never surfaced.
var (
	ErrMalformedTopic    = errors.New("malformed topic")
	ErrMalformedPayload  = errors.New("malformed payload")
	ErrUnknownSensorKind = errors.New("unknown sensor kind")
)

// Provisioning / analytics: returned to callers.
var (
	ErrOwnershipConflict = errors.New("device is claimed by another owner")
	ErrPermissionDenied  = errors.New("caller is not the device owner")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrStorage           = errors.New("internal error")
	ErrDeliveryFailed    = errors.New("message delivery failed")
)
