package domain

import "errors"

var (
	// ErrSourceUnavailable means the alert source was unreachable or returned
	// a payload that could not be decoded. Callers keep the last good snapshot.
	ErrSourceUnavailable = errors.New("alert source unavailable")

	// ErrGeocodingFailed means an address could not be resolved to
	// coordinates. It is surfaced to the user and not retried.
	ErrGeocodingFailed = errors.New("geocoding failed")

	// ErrMalformedAlert marks an alert record that cannot be classified.
	ErrMalformedAlert = errors.New("malformed alert")

	ErrLocationNotFound = errors.New("location not found")
	ErrInvalidLocation  = errors.New("invalid location")
)
