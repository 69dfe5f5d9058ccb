package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsStore(t *testing.T) {
	ctx := context.Background()
	s := NewSettingsStore(newTestDB(t))

	_, ok, err := s.Get(ctx, "hover_effect")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "hover_effect", "flip"))
	require.NoError(t, s.Set(ctx, "hover_effect", "slide"))

	v, ok, err := s.Get(ctx, "hover_effect")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "slide", v)

	require.NoError(t, s.Delete(ctx, "hover_effect"))
	_, ok, err = s.Get(ctx, "hover_effect")
	require.NoError(t, err)
	assert.False(t, ok)
}
