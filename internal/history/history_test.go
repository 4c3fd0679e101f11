package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amiqt/talent-gateway/internal/contextmgr"
	"github.com/amiqt/talent-gateway/internal/history"
)

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	st, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestHistory_AppendAndLoad(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Append(ctx, "conv-1", contextmgr.Message{
		Role: contextmgr.RoleUser, Content: "hello", Timestamp: time.Now(),
	}))
	require.NoError(t, st.Append(ctx, "conv-1", contextmgr.Message{
		Role: contextmgr.RoleAssistant, Content: "hi", Timestamp: time.Now(),
	}))

	messages, err := st.Load(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, contextmgr.RoleUser, messages[0].Role)
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, contextmgr.RoleAssistant, messages[1].Role)
	assert.Equal(t, "hi", messages[1].Content)
}

func TestHistory_LoadPreservesOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Identical timestamps: insertion order must still hold.
	ts := time.Now()
	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, st.Append(ctx, "conv-1", contextmgr.Message{
			Role: contextmgr.RoleUser, Content: content, Timestamp: ts,
		}))
	}

	messages, err := st.Load(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
	assert.Equal(t, "third", messages[2].Content)
}

func TestHistory_UnknownConversation(t *testing.T) {
	st := newTestStore(t)

	messages, err := st.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestHistory_ConversationsAreIsolated(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Append(ctx, "conv-a", contextmgr.Message{Role: contextmgr.RoleUser, Content: "a"}))
	require.NoError(t, st.Append(ctx, "conv-b", contextmgr.Message{Role: contextmgr.RoleUser, Content: "b"}))

	a, err := st.Load(ctx, "conv-a")
	require.NoError(t, err)
	require.Len(t, a, 1)
	assert.Equal(t, "a", a[0].Content)

	n, err := st.Count(ctx, "conv-b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHistory_Delete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Append(ctx, "conv-1", contextmgr.Message{Role: contextmgr.RoleUser, Content: "gone"}))
	require.NoError(t, st.Delete(ctx, "conv-1"))

	messages, err := st.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}
