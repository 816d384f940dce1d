package ports

import "context"

// Notifier is the outbound messaging contract. Successful placements and
// closures are reported through it; skipped or failed attempts are not.
type Notifier interface {
	Notify(ctx context.Context, message string)
}
