// Package worker provides background task infrastructure for the daemon.
package worker

import "context"

// Worker is a long-running background task.
type Worker interface {
	// Name identifies the worker in logs.
	Name() string
	// Run blocks until ctx is cancelled or an unrecoverable error occurs.
	// Workers with a finite job may return nil early.
	Run(ctx context.Context) error
}
