// Package middleware provides StateStore decorators applied before sessions
// reach their backing store.
package middleware

import (
	"context"

	"github.com/aretw0/leadflow/pkg/ports"
)

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// Pinger is implemented by stores that can check their backing connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping walks down the middleware chain and pings the innermost store that
// supports it. Stores without a connection report nil.
func Ping(ctx context.Context, store ports.StateStore) error {
	for store != nil {
		if p, ok := store.(Pinger); ok {
			return p.Ping(ctx)
		}
		u, ok := store.(interface{ Unwrap() ports.StateStore })
		if !ok {
			return nil
		}
		store = u.Unwrap()
	}
	return nil
}
