package advisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessions(t *testing.T) {
	store := NewMemorySessions(time.Hour)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	history := []Message{{Role: RoleUser, Content: "hi"}}
	require.NoError(t, store.Save(ctx, "owner-1", "default", history))
	history[0].Content = "mutated"

	got, err := store.Load(ctx, "owner-1", "default")
	require.NoError(t, err)
	assert.Equal(t, "hi", got[0].Content)

	other, err := store.Load(ctx, "owner-2", "default")
	require.NoError(t, err)
	assert.Empty(t, other)

	now = now.Add(time.Hour)
	got, err = store.Load(ctx, "owner-1", "default")
	require.NoError(t, err)
	assert.Empty(t, got)
	existed, err := store.Delete(ctx, "owner-1", "default")
	require.NoError(t, err)
	assert.False(t, existed)
}
