package infrastructure

import "context"

// Server is a long-running component started and stopped by App. Start
// blocks until the component exits or ctx is cancelled.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
