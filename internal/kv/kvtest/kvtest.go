// Package kvtest holds behaviour shared by every kv.Store implementation.
package kvtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Gauravprp/chatsy/internal/kv"
)

// Run exercises get/set/remove semantics against st.
func Run(t *testing.T, st kv.Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := st.Get(ctx, "chat_username")
	require.NoError(t, err)
	require.False(t, ok, "fresh store must not contain keys")

	require.NoError(t, st.Set(ctx, "chat_username", "Gaurav"))
	v, ok, err := st.Get(ctx, "chat_username")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Gaurav", v)

	require.NoError(t, st.Set(ctx, "chat_username", "Asha"))
	v, _, err = st.Get(ctx, "chat_username")
	require.NoError(t, err)
	require.Equal(t, "Asha", v, "set must overwrite")

	require.NoError(t, st.Set(ctx, "save_chat", ""))
	v, ok, err = st.Get(ctx, "save_chat")
	require.NoError(t, err)
	require.True(t, ok, "empty values are still present")
	require.Equal(t, "", v)

	require.NoError(t, st.Remove(ctx, "chat_username"))
	_, ok, err = st.Get(ctx, "chat_username")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.Remove(ctx, "never-set"), "removing a missing key is not an error")
}
