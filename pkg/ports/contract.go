package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore
// implementation adheres to the interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(sessionID)
		state.Position = 2
		state.Furthest = 2
		state.History = []string{"auth", "property_type", "city"}
		state.Answers["property_type"] = domain.Fixed("flat")
		state.Answers["city"] = domain.Other("Pune")
		state.Auth.Phase = domain.PhaseAuthenticated
		state.Auth.Details = domain.AuthDraft{Name: "Jane Doe", Mobile: "9876543210"}
		state.Auth.Attempt = 3

		require.NoError(t, store.Save(ctx, sessionID, state), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, 2, loaded.Position)
		assert.Equal(t, 2, loaded.Furthest)
		assert.Equal(t, state.History, loaded.History)
		assert.Equal(t, domain.Fixed("flat"), loaded.Answers["property_type"])
		assert.Equal(t, domain.Other("Pune"), loaded.Answers["city"])
		assert.Equal(t, domain.PhaseAuthenticated, loaded.Auth.Phase)
		assert.Equal(t, "Jane Doe", loaded.Auth.Details.Name)
		assert.Equal(t, uint64(3), loaded.Auth.Attempt)
	})

	t.Run("Load Is Isolated From Caller", func(t *testing.T) {
		state := domain.NewState(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, state))

		state.Answers["emi"] = domain.Amount("100")
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.NotContains(t, loaded.Answers, "emi", "mutating a saved state must not leak into the store")

		loaded.History = append(loaded.History, "mutated")
		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.NotContains(t, again.History, "mutated")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewState(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewState(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewState(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})

	t.Run("Concurrent Saves", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(pos int) {
				defer wg.Done()
				st := domain.NewState(sessionID)
				st.Position = pos
				assert.NoError(t, store.Save(ctx, sessionID, st))
			}(i)
		}
		wg.Wait()

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, loaded.Position, 0)
		assert.Less(t, loaded.Position, 8)
		_ = store.Delete(ctx, sessionID)
	})
}
