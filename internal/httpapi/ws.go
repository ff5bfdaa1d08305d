package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/bsagevedant/akashvani-ai/internal/protocol"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 120 * time.Second
	wsReadLimit    = 1 << 20
)

const wsVoiceNotSupported = "Voice input over the websocket isn't supported. Please upload audio to the voice endpoint instead."

// handleWS runs a text conversation over a websocket. Replies are text only;
// audio stays on the HTTP blob endpoint.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.WSConnections.Inc()
	defer s.metrics.WSConnections.Dec()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			if writeErr := s.writeWS(conn, protocol.ErrorEvent{
				Type:   protocol.TypeError,
				Code:   "invalid_client_message",
				Detail: err.Error(),
			}); writeErr != nil {
				return
			}
			continue
		}

		var reply protocol.Response
		switch msg := parsed.(type) {
		case protocol.ClientText:
			turn := s.orchestrator.HandleText(r.Context(), msg.Content, msg.VoiceType)
			reply = protocol.Response{Type: protocol.TypeResponse, Content: turn.Text}
		case protocol.ClientVoice:
			reply = protocol.Response{Type: protocol.TypeResponse, Content: wsVoiceNotSupported}
		default:
			continue
		}

		if err := s.writeWS(conn, reply); err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}

func (s *Server) writeWS(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(v)
}
