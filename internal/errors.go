package hoard

import "errors"

// Sentinel errors for the cache engine domain. These only ever travel
// through the error sink or the fetcher boundary; the engine's public
// surface never returns them.
var (
	ErrUnknownStrategy   = errors.New("unknown strategy")
	ErrBadStatus         = errors.New("origin returned non-2xx status")
	ErrMalformedJSON     = errors.New("origin body is not valid JSON")
	ErrOriginUnavailable = errors.New("origin circuit open")
)

// StatusError is a non-2xx origin response. It matches ErrBadStatus under
// errors.Is while keeping the numeric code available to error classifiers.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string { return "unexpected status " + e.Status }

func (e *StatusError) Is(target error) bool { return target == ErrBadStatus }
