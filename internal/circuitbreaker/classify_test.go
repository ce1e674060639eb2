package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"testing"

	hoard "github.com/eugener/hoard/internal"
)

func status(code int) error {
	return &hoard.StatusError{Code: code, Status: fmt.Sprintf("%d status", code)}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want float64
	}{
		{"nil", nil, 0},
		{"429", status(429), 0.5},
		{"500", status(500), 1.0},
		{"502", status(502), 1.0},
		{"503", status(503), 1.0},
		{"504", status(504), 1.0},
		{"400", status(400), 0.0},
		{"401", status(401), 0.0},
		{"403", status(403), 0.0},
		{"404", status(404), 0.0},
		{"context_deadline", context.DeadlineExceeded, 1.5},
		{"os_deadline", os.ErrDeadlineExceeded, 1.5},
		{"wrapped_deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), 1.5},
		{"malformed_body", fmt.Errorf("GET /x: %w", hoard.ErrMalformedJSON), 1.0},
		{"network_error", &net.OpError{Op: "dial", Err: errors.New("refused")}, 1.0},
		{"generic_error", errors.New("something broke"), 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ClassifyError(tt.err)
			if got != tt.want {
				t.Errorf("ClassifyError(%v) = %f, want %f", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyError_WrappedStatus(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("fetcher: %w", status(502))
	if got := ClassifyError(wrapped); got != 1.0 {
		t.Errorf("wrapped 502 = %f, want 1.0", got)
	}
}
