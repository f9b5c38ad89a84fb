package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/pricing"
)

func TestCacheSessionStore_RoundTrip(t *testing.T) {
	cache := newMemoryCache()
	store := NewCacheSessionStore(cache, time.Hour, zap.NewNop())
	ctx := context.Background()

	s, err := store.Load(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, StateInfo, s.State)
	assert.Equal(t, int64(2), s.UserID)

	s.State = StateSelectServices
	s.Name = "Анна"
	s.Services.Toggle(pricing.WashBag)
	require.NoError(t, store.Save(ctx, s))
	assert.Contains(t, cache.data["tg_session:1"], `"state":"SELECT_SERVICES"`)

	loaded, err := store.Load(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, StateSelectServices, loaded.State)
	assert.Equal(t, "Анна", loaded.Name)
	assert.True(t, loaded.Services.Has(pricing.WashBag))

	require.NoError(t, store.Delete(ctx, 1))
	fresh, err := store.Load(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, StateInfo, fresh.State)
	assert.Empty(t, fresh.Name)
}

func TestCacheSessionStore_CorruptSessionIsDropped(t *testing.T) {
	cache := newMemoryCache()
	store := NewCacheSessionStore(cache, time.Hour, zap.NewNop())
	ctx := context.Background()

	for _, raw := range []string{`{"chat_id":1,"state":"GET_COMMENT"}`, `{"chat_id":`} {
		cache.data["tg_session:1"] = raw

		s, err := store.Load(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, StateInfo, s.State)
		assert.Equal(t, int64(1), s.ChatID)
		assert.Equal(t, int64(2), s.UserID)
		assert.NotContains(t, cache.data, "tg_session:1")
	}
}
