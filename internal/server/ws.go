package server

import (
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/amiqt/talent-gateway/internal/chat"
)

// handleChatSocket runs an interactive chat over a websocket: each text
// frame is one chat request (same JSON shape as POST /v1/chat), answered
// with one reply frame. The conversation id from the first reply lets the
// client keep its context across frames.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := r.Context()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			log.Debug().Err(err).Msg("websocket read ended")
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "text frames only")
			return
		}

		reply, err := s.chat.Handle(ctx, data)
		if err != nil {
			if errors.Is(err, chat.ErrInvalidRequest) || errors.Is(err, chat.ErrEmptyMessage) {
				if werr := writeFrame(ctx, conn, errorFrame(err.Error())); werr != nil {
					return
				}
				continue
			}
			log.Error().Err(err).Msg("websocket chat turn failed")
			if werr := writeFrame(ctx, conn, errorFrame("chat failed")); werr != nil {
				return
			}
			continue
		}

		frame, err := replyFrame(reply)
		if err != nil {
			log.Error().Err(err).Msg("websocket reply encode failed")
			return
		}
		if err := writeFrame(ctx, conn, frame); err != nil {
			return
		}
	}
}
