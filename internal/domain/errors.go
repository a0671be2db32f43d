package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// record does not exist in the record store.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. empty description, non-positive amount).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrTransport is returned when a call to the record store or to an external
// service (geocoding, weather, image hosting) fails. No retry is attempted.
// Handlers should map this to HTTP 502 Bad Gateway.
var ErrTransport = errors.New("transport error")

// ErrNotAuthenticated is returned when a mutation is attempted without a
// signed-in user. Handlers should map this to HTTP 401.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrForbidden is returned when the signed-in user does not own the trip
// being read or modified. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")
