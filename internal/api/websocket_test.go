package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yard-planner/backend/internal/interaction"
)

func dialYard(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/yard/" + id + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msgType, id string, payload interface{}) {
	t.Helper()
	msg := WSMessage{Type: msgType, ID: id, Timestamp: time.Now().UnixMilli()}
	if payload != nil {
		msg.Payload = mustJSON(payload)
	}
	require.NoError(t, ws.WriteJSON(msg))
}

func receive(t *testing.T, ws *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg WSMessage
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

func TestWebSocketDragProtocol(t *testing.T) {
	s := newTestServer(t)
	id := s.newSession(t)
	srv := httptest.NewServer(s.e)
	defer srv.Close()

	ws := dialYard(t, srv, id)

	// Initial state on connect
	msg := receive(t, ws)
	require.Equal(t, MsgTypeState, msg.Type)

	t.Run("ping", func(t *testing.T) {
		send(t, ws, MsgTypePing, "p1", nil)
		msg := receive(t, ws)
		assert.Equal(t, MsgTypePong, msg.Type)
		assert.Equal(t, "p1", msg.ID)
	})

	t.Run("drag over without drag start", func(t *testing.T) {
		send(t, ws, MsgTypeDragOver, "o0", TargetPayload{Target: interaction.Target{Kind: interaction.TargetSlot, Location: "C1"}})
		msg := receive(t, ws)
		require.Equal(t, MsgTypeError, msg.Type)
		var e WSErrorResponse
		require.NoError(t, json.Unmarshal(msg.Payload, &e))
		assert.Equal(t, "NOT_DRAGGING", e.Code)
	})

	t.Run("rejected drop raises a toast", func(t *testing.T) {
		send(t, ws, MsgTypeDragStart, "s1", DragStartPayload{UnitID: "MAEU2222222"})
		msg := receive(t, ws)
		require.Equal(t, MsgTypeState, msg.Type)
		var state WSStatePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		assert.Equal(t, "MAEU2222222", state.Dragging)

		target := interaction.Target{Kind: interaction.TargetSlot, Location: "E6"}
		send(t, ws, MsgTypeDragOver, "o1", TargetPayload{Target: target})
		msg = receive(t, ws)
		require.Equal(t, MsgTypeFeedback, msg.Type)
		var hover interaction.Hover
		require.NoError(t, json.Unmarshal(msg.Payload, &hover))
		assert.Equal(t, interaction.FeedbackInvalid, hover.State)

		send(t, ws, MsgTypeDrop, "d1", TargetPayload{Target: target})
		msg = receive(t, ws)
		require.Equal(t, MsgTypeToast, msg.Type)
		var toast interaction.Toast
		require.NoError(t, json.Unmarshal(msg.Payload, &toast))
		assert.Equal(t, "Cannot drop a large container in this space!", toast.Message)

		msg = receive(t, ws)
		require.Equal(t, MsgTypeState, msg.Type)
		state = WSStatePayload{}
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		require.NotNil(t, state.Drop)
		assert.False(t, state.Drop.Accepted)
		assert.Empty(t, state.Dragging)
	})

	t.Run("accepted drop", func(t *testing.T) {
		send(t, ws, MsgTypeDragStart, "s2", DragStartPayload{UnitID: "CMAU3333333"})
		require.Equal(t, MsgTypeState, receive(t, ws).Type)

		send(t, ws, MsgTypeDrop, "d2", TargetPayload{Target: interaction.Target{Kind: interaction.TargetSlot, Location: "F2"}})
		msg := receive(t, ws)
		require.Equal(t, MsgTypeState, msg.Type)

		var state WSStatePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		require.NotNil(t, state.Drop)
		assert.True(t, state.Drop.Accepted)
		require.Len(t, state.Drop.Occupancy, 1)
		assert.Equal(t, "F2", state.Drop.Occupancy[0].Location)
		assert.Equal(t, 1, state.Drop.Occupancy[0].Count)
	})

	t.Run("unknown message type", func(t *testing.T) {
		send(t, ws, "teleport", "x", nil)
		msg := receive(t, ws)
		assert.Equal(t, MsgTypeError, msg.Type)
	})
}

func TestWebSocketUnknownSession(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/yard/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}
