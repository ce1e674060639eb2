package circuitbreaker

import (
	"context"
	"errors"
	"net"
	"os"

	hoard "github.com/eugener/hoard/internal"
)

// ClassifyError returns the error weight for circuit breaker tracking.
//
// Weights:
//   - timeout (deadline exceeded) -> 1.5
//   - 429 (rate limited) -> 0.5
//   - 500-504 -> 1.0
//   - other 4xx -> 0.0 (the origin answered; the request was wrong)
//   - malformed body -> 1.0 (usually an HTML error page from a dying origin)
//   - network errors -> 1.0
//   - nil -> 0.0
func ClassifyError(err error) float64 {
	if err == nil {
		return 0
	}

	// Timeouts weigh heaviest: they cost the caller the full origin timeout.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return 1.5
	}

	var se *hoard.StatusError
	if errors.As(err, &se) {
		return classifyStatus(se.Code)
	}

	// A body that fails JSON validation is an origin serving garbage.
	if errors.Is(err, hoard.ErrMalformedJSON) {
		return 1.0
	}

	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return 1.0
	}

	// Generic errors (e.g. connection refused) -> treat as origin fault.
	return 1.0
}

// classifyStatus returns the error weight for an HTTP status code.
func classifyStatus(code int) float64 {
	switch {
	case code == 429:
		return 0.5
	case code >= 500 && code <= 504:
		return 1.0
	default:
		return 0.0
	}
}
