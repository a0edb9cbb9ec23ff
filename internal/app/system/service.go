package system

import "context"

// Service is a long-running component under the manager's control, such as
// the reconciliation runner. Start must return promptly; long work belongs
// in goroutines the service owns and tears down in Stop.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
