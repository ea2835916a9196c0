package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
)

type pingStore struct {
	*memory.Store
	err error
}

func (p *pingStore) Ping(context.Context) error { return p.err }

func TestPing_WalksChain(t *testing.T) {
	down := errors.New("connection refused")
	inner := &pingStore{Store: memory.NewStore(), err: down}

	store := middleware.Chain(inner,
		scrubber(t, middleware.DefaultScrubPatterns),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: make([]byte, 32)}),
	)

	assert.ErrorIs(t, middleware.Ping(context.Background(), store), down)

	inner.err = nil
	assert.NoError(t, middleware.Ping(context.Background(), store))
}

func TestPing_NoPinger(t *testing.T) {
	store := middleware.Chain(memory.NewStore(), scrubber(t, nil))
	assert.NoError(t, middleware.Ping(context.Background(), store))
}
