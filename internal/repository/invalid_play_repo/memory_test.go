package invalid_play_repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryInvalidPlayRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryInvalidPlayRepository()

	require.NoError(t, r.MarkInvalid(ctx, 1, "2", "4"))
	require.NoError(t, r.MarkInvalid(ctx, 1, "2"))

	valid, err := r.ListKnownValid(ctx, 1, []string{"1", "2", "3", "4", "5"})
	require.NoError(t, err)
	require.Equal(t, []string{"1", "3", "5"}, valid)

	// Другая сеть не затронута
	valid, err = r.ListKnownValid(ctx, 56, []string{"2", "4"})
	require.NoError(t, err)
	require.Equal(t, []string{"2", "4"}, valid)
}

func TestFilterValidKeepsOrder(t *testing.T) {
	got := filterValid([]string{"c", "a", "b"}, map[string]struct{}{"a": {}})
	require.Equal(t, []string{"c", "b"}, got)

	require.Empty(t, filterValid(nil, nil))
}
