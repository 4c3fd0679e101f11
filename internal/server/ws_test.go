package server_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestServer_ChatSocket(t *testing.T) {
	ts := newTestServer(t, nil)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// First turn starts a conversation.
	err = conn.Write(ctx, websocket.MessageText, []byte(`{"message": "hello"}`))
	require.NoError(t, err)

	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	assert.Equal(t, "assistant reply", gjson.GetBytes(data, "text").String())
	convID := gjson.GetBytes(data, "conversation_id").String()
	require.NotEmpty(t, convID)

	// Second turn continues it.
	err = conn.Write(ctx, websocket.MessageText,
		[]byte(`{"conversation_id": "`+convID+`", "message": "what skills do I have?"}`))
	require.NoError(t, err)

	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, convID, gjson.GetBytes(data, "conversation_id").String())
}

func TestServer_ChatSocketBadFrame(t *testing.T) {
	ts := newTestServer(t, nil)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Empty message gets an error frame, not a closed socket.
	err = conn.Write(ctx, websocket.MessageText, []byte(`{"message": ""}`))
	require.NoError(t, err)

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, gjson.GetBytes(data, "error").String())

	// The connection still works afterwards.
	err = conn.Write(ctx, websocket.MessageText, []byte(`{"message": "still here"}`))
	require.NoError(t, err)

	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "assistant reply", gjson.GetBytes(data, "text").String())
}
