package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrubber(t *testing.T, patterns []string) middleware.Middleware {
	t.Helper()
	mw, err := middleware.NewScrubMiddleware(patterns)
	require.NoError(t, err)
	return mw
}

func TestScrubMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewScrubMiddleware([]string{`^auth\.otp$`, "("})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrub pattern 1")
}

func TestScrubMiddleware_DefaultMasksOTP(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	store := scrubber(t, middleware.DefaultScrubPatterns)(inner)

	st := authenticatedState("s1")
	st.Auth.OTP.OTP = "123456"
	require.NoError(t, store.Save(ctx, "s1", st))

	saved, err := inner.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, saved.Auth.OTP.OTP)
	assert.Equal(t, "Asha Rao", saved.Auth.Details.Name)

	// The caller's copy is untouched.
	assert.Equal(t, "123456", st.Auth.OTP.OTP)
}

func TestScrubMiddleware_EmptyValuesStayEmpty(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	store := scrubber(t, []string{`.*`})(inner)

	require.NoError(t, store.Save(ctx, "s2", domain.NewState("s2")))
	saved, err := inner.Load(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, saved.Auth.OTP.OTP)
	assert.Empty(t, saved.Auth.Details.Mobile)
}

func TestScrubMiddleware_CustomPatterns(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	store := scrubber(t, []string{`mobile$`, `^auth\.code_sent_to$`})(inner)

	st := authenticatedState("s3")
	st.Lead = &domain.Lead{SessionID: "s3", Name: "Asha Rao", Mobile: "9876543210"}
	require.NoError(t, store.Save(ctx, "s3", st))

	saved, err := inner.Load(ctx, "s3")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, saved.Auth.Details.Mobile)
	assert.Equal(t, middleware.Mask, saved.Auth.CodeSentTo)
	assert.Equal(t, middleware.Mask, saved.Lead.Mobile)
	assert.Equal(t, "Asha Rao", saved.Lead.Name)
}

func TestChain_OrderScrubThenEncrypt(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	key := generateKey(t)
	store := middleware.Chain(inner,
		scrubber(t, middleware.DefaultScrubPatterns),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)

	st := authenticatedState("s4")
	st.Auth.OTP.OTP = "654321"
	require.NoError(t, store.Save(ctx, "s4", st))

	raw, err := inner.Load(ctx, "s4")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := store.Load(ctx, "s4")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Auth.OTP.OTP)
	assert.Equal(t, "9876543210", loaded.Auth.Details.Mobile)
}
