package consultation

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type streamError struct {
	Error string `json:"error"`
}

// Stream runs a consultation over a websocket. Each text frame carries a
// MessageRequest and is answered with the resulting Turn.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if _, err := h.svc.GetConsultation(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodyBytes)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", zap.Stringer("consultation_id", id), zap.Error(err))
			}
			return
		}

		var req MessageRequest
		if err := messageValidator.Validate(data); err != nil {
			if conn.WriteJSON(streamError{Error: err.Error()}) != nil {
				return
			}
			continue
		}
		if err := json.Unmarshal(data, &req); err != nil {
			if conn.WriteJSON(streamError{Error: "invalid message"}) != nil {
				return
			}
			continue
		}

		turn, err := h.svc.Submit(r.Context(), id, req.Text)
		if err != nil {
			h.log.Error("websocket submit failed", zap.Stringer("consultation_id", id), zap.Error(err))
			if err := conn.WriteJSON(streamError{Error: "processing failed"}); err != nil {
				h.log.Warn("websocket write failed", zap.Stringer("consultation_id", id), zap.Error(err))
			}
			return
		}
		if err := conn.WriteJSON(turn); err != nil {
			return
		}
	}
}
