package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/yard-planner/backend/internal/interaction"
	"github.com/yard-planner/backend/internal/session"
	"go.uber.org/zap"
)

// WebSocket message types for the drag protocol
const (
	// Client -> Server messages
	MsgTypeDragStart = "drag:start"
	MsgTypeDragOver  = "drag:over"
	MsgTypeDrop      = "drop"
	MsgTypeDragEnd   = "drag:end"
	MsgTypePing      = "ping"

	// Server -> Client messages
	MsgTypeFeedback = "feedback"
	MsgTypeState    = "state"
	MsgTypeToast    = "toast"
	MsgTypeError    = "error"
	MsgTypePong     = "pong"
)

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// DragStartPayload names the unit picked up
type DragStartPayload struct {
	UnitID string `json:"unitId"`
}

// TargetPayload names the zone under the pointer or dropped on
type TargetPayload struct {
	Target interaction.Target `json:"target"`
}

// WSStatePayload is the yard state plus the last drop outcome
type WSStatePayload struct {
	YardState
	Drop *interaction.DropResult `json:"drop,omitempty"`
}

// WebSocket error response
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler runs the drag-and-drop protocol of one yard session per connection
type WebSocketHandler struct {
	sessions        SessionManager
	upgrader        websocket.Upgrader
	maxMessageBytes int64
	log             *zap.Logger
}

// NewWebSocketHandler creates a new WebSocket drag handler
func NewWebSocketHandler(sessions SessionManager, maxMessageKB int, log *zap.Logger) *WebSocketHandler {
	if maxMessageKB <= 0 {
		maxMessageKB = 64
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WebSocketHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		maxMessageBytes: int64(maxMessageKB) * 1024,
		log:             log,
	}
}

// HandleWebSocket upgrades HTTP connection to WebSocket and handles the drag protocol
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	id := c.Param("id")
	if _, ok := wsh.sessions.Get(id); !ok {
		return toAPIError(session.ErrSessionNotFound)
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	ws.SetReadLimit(wsh.maxMessageBytes)

	log := wsh.log.With(zap.String("session", shortID(id)))
	log.Debug("client connected")

	// Initial state so the client can paint without a separate request
	wsh.sendState(ws, id, nil)

	// Main message loop
	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection error", zap.Error(err))
			}
			break
		}

		// Handle message based on type
		switch msg.Type {
		case MsgTypePing:
			// Respond with pong to keep connection alive
			wsh.sessions.Touch(id)
			wsh.sendMessage(ws, WSMessage{Type: MsgTypePong, ID: msg.ID, Timestamp: time.Now().UnixMilli()})
		case MsgTypeDragStart:
			wsh.handleDragStart(ws, id, msg)
		case MsgTypeDragOver:
			wsh.handleDragOver(ws, id, msg)
		case MsgTypeDrop:
			wsh.handleDrop(ws, id, msg)
		case MsgTypeDragEnd:
			err := wsh.sessions.With(id, func(s *session.YardSession) error {
				s.Surface().DragEnd()
				return nil
			})
			if err != nil {
				wsh.sendAPIError(ws, msg.ID, err)
				continue
			}
			wsh.sendState(ws, id, nil)
		default:
			wsh.sendError(ws, msg.ID, "Unknown message type: "+msg.Type, "INVALID_TYPE")
		}
	}

	log.Debug("client disconnected")
	return nil
}

func (wsh *WebSocketHandler) handleDragStart(ws *websocket.Conn, id string, msg WSMessage) {
	var payload DragStartPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		wsh.sendError(ws, msg.ID, "Invalid drag payload: "+err.Error(), "INVALID_PAYLOAD")
		return
	}

	err := wsh.sessions.With(id, func(s *session.YardSession) error {
		return s.Surface().DragStart(payload.UnitID)
	})
	if err != nil {
		wsh.sendAPIError(ws, msg.ID, err)
		return
	}
	wsh.sendState(ws, id, nil)
}

func (wsh *WebSocketHandler) handleDragOver(ws *websocket.Conn, id string, msg WSMessage) {
	var payload TargetPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		wsh.sendError(ws, msg.ID, "Invalid target payload: "+err.Error(), "INVALID_PAYLOAD")
		return
	}

	var hover interaction.Hover
	err := wsh.sessions.With(id, func(s *session.YardSession) error {
		var err error
		hover, err = s.Surface().DragOver(payload.Target)
		return err
	})
	if err != nil {
		wsh.sendAPIError(ws, msg.ID, err)
		return
	}
	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeFeedback,
		ID:        msg.ID,
		Payload:   mustJSON(hover),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (wsh *WebSocketHandler) handleDrop(ws *websocket.Conn, id string, msg WSMessage) {
	var payload TargetPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		wsh.sendError(ws, msg.ID, "Invalid target payload: "+err.Error(), "INVALID_PAYLOAD")
		return
	}

	var result interaction.DropResult
	var toast *interaction.Toast
	err := wsh.sessions.With(id, func(s *session.YardSession) error {
		var err error
		result, err = s.Surface().Drop(payload.Target)
		if err != nil {
			return err
		}
		if t, ok := s.Surface().ActiveToast(); ok && !result.Accepted {
			toast = &t
		}
		return nil
	})
	if err != nil {
		wsh.sendAPIError(ws, msg.ID, err)
		return
	}

	if toast != nil {
		wsh.sendMessage(ws, WSMessage{
			Type:      MsgTypeToast,
			ID:        msg.ID,
			Payload:   mustJSON(toast),
			Timestamp: time.Now().UnixMilli(),
		})
	}
	wsh.sendState(ws, id, &result)
}

func (wsh *WebSocketHandler) sendState(ws *websocket.Conn, id string, drop *interaction.DropResult) {
	var payload WSStatePayload
	err := wsh.sessions.With(id, func(s *session.YardSession) error {
		payload.YardState = stateOf(s)
		return nil
	})
	if err != nil {
		wsh.sendAPIError(ws, "", err)
		return
	}
	payload.Drop = drop
	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeState,
		Payload:   mustJSON(payload),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (wsh *WebSocketHandler) sendMessage(ws *websocket.Conn, msg WSMessage) {
	if err := ws.WriteJSON(msg); err != nil {
		wsh.log.Warn("failed to send message", zap.String("type", msg.Type), zap.Error(err))
	}
}

func (wsh *WebSocketHandler) sendAPIError(ws *websocket.Conn, msgID string, err error) {
	if errors.Is(err, interaction.ErrNotDragging) {
		wsh.sendError(ws, msgID, err.Error(), "NOT_DRAGGING")
		return
	}
	apiErr := toAPIError(err)
	wsh.sendError(ws, msgID, apiErr.Message, apiErr.Code)
}

func (wsh *WebSocketHandler) sendError(ws *websocket.Conn, msgID, message, code string) {
	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeError,
		ID:        msgID,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSErrorResponse{
			Message: message,
			Code:    code,
		}),
	})
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
