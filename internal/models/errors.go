package models

import "errors"

// Error taxonomy shared across repositories, services, and handlers.
// Repositories translate backend failures into these before they reach a
// service; handlers map them to HTTP status codes with errors.Is.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation")
	ErrBackendUnavailable = errors.New("backend_unavailable")
)
