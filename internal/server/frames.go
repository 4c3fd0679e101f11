package server

import (
	"context"
	"encoding/json"

	"github.com/coder/websocket"

	"github.com/amiqt/talent-gateway/internal/chat"
)

// errorFrame encodes an error payload for the websocket client.
func errorFrame(msg string) []byte {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return data
}

// replyFrame encodes a chat reply for the websocket client.
func replyFrame(reply *chat.Reply) ([]byte, error) {
	return json.Marshal(reply)
}

// writeFrame sends one text frame.
func writeFrame(ctx context.Context, conn *websocket.Conn, data []byte) error {
	return conn.Write(ctx, websocket.MessageText, data)
}
