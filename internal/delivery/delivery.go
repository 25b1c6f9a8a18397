// Package delivery defines the contract every delivery mechanism satisfies.
package delivery

import "context"

// Delivery is a long-running transport serving the application core.
type Delivery interface {
	Serve(ctx context.Context) error
}
