package adapter

import "context"

// Principal is the authenticated operator behind a request.
type Principal struct {
	ID    string
	Email string
}

// Identity resolves the current principal from a request context.
type Identity interface {
	CurrentPrincipal(ctx context.Context) (*Principal, error)
}
