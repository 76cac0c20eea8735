package audit

import "context"

// Store persists audit events. Implementations that take part in storage
// transactions read the transaction from the context.
type Store interface {
	Append(ctx context.Context, event Event) error
}
