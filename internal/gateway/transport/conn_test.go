package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/starkbot/console/internal/common/logger"
	"github.com/starkbot/console/pkg/gateway/protocol"
)

type recordingSink struct {
	mu     sync.Mutex
	events []string
	data   []json.RawMessage
	notify chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{notify: make(chan struct{}, 16)}
}

func (s *recordingSink) Dispatch(event string, data []byte) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.data = append(s.data, append(json.RawMessage(nil), data...))
	s.mu.Unlock()
	s.notify <- struct{}{}
}

func (s *recordingSink) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

// fakeGateway is a websocket server that pushes frames and answers RPCs.
type fakeGateway struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns []*websocket.Conn
	ready chan *websocket.Conn
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	g := &fakeGateway{ready: make(chan *websocket.Conn, 4)}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := g.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		g.mu.Lock()
		g.conns = append(g.conns, ws)
		g.mu.Unlock()
		g.ready <- ws

		// Echo loop answering ping RPCs.
		for {
			_, message, err := ws.ReadMessage()
			if err != nil {
				return
			}
			var req protocol.RPCRequest
			if json.Unmarshal(message, &req) == nil && req.Method == protocol.MethodPing {
				resp := protocol.RPCResponse{ID: req.ID, Result: json.RawMessage(`{"pong":true}`)}
				_ = ws.WriteJSON(resp)
			}
		}
	}))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *fakeGateway) url() string {
	return "ws" + strings.TrimPrefix(g.srv.URL, "http")
}

func (g *fakeGateway) waitConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case ws := <-g.ready:
		return ws
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connection")
		return nil
	}
}

func (g *fakeGateway) pushEvent(t *testing.T, ws *websocket.Conn, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	frame := protocol.Event{Type: protocol.FrameTypeEvent, Event: event, Data: raw}
	require.NoError(t, ws.WriteJSON(frame))
}

func setupConn(t *testing.T, g *fakeGateway, sink Sink) *Conn {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json", OutputPath: "stdout"})
	require.NoError(t, err)
	conn := NewConn(Config{
		URL:          g.url(),
		ReconnectMin: 50 * time.Millisecond,
		ReconnectMax: 200 * time.Millisecond,
	}, sink, log)
	t.Cleanup(conn.Disconnect)
	return conn
}

func TestConnDispatchesEvents(t *testing.T) {
	g := newFakeGateway(t)
	sink := newRecordingSink()
	conn := setupConn(t, g, sink)
	conn.Connect(context.Background())

	ws := g.waitConn(t)
	g.pushEvent(t, ws, protocol.EventExecutionStarted, map[string]interface{}{"execution_id": "exec-1"})

	sink.wait(t)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Equal(t, []string{protocol.EventExecutionStarted}, sink.events)

	var payload protocol.ExecutionStarted
	require.NoError(t, json.Unmarshal(sink.data[0], &payload))
	require.Equal(t, "exec-1", payload.ExecutionID)
}

func TestConnRPCRoundTrip(t *testing.T) {
	g := newFakeGateway(t)
	conn := setupConn(t, g, newRecordingSink())
	conn.Connect(context.Background())
	g.waitConn(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var result map[string]bool
	require.NoError(t, conn.Call(ctx, protocol.MethodPing, nil, &result))
	require.True(t, result["pong"])
}

func TestConnCallWhileDisconnected(t *testing.T) {
	g := newFakeGateway(t)
	conn := setupConn(t, g, newRecordingSink())

	err := conn.Call(context.Background(), protocol.MethodPing, nil, nil)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestConnOnConnectHookFiresOnReconnect(t *testing.T) {
	g := newFakeGateway(t)
	conn := setupConn(t, g, newRecordingSink())

	hooks := make(chan struct{}, 4)
	conn.OnConnect(func(ctx context.Context) { hooks <- struct{}{} })
	conn.Connect(context.Background())

	ws := g.waitConn(t)
	select {
	case <-hooks:
	case <-time.After(2 * time.Second):
		t.Fatal("hook did not fire on first connect")
	}

	// Drop the socket server-side; the conn should redial and re-fire.
	ws.Close()
	g.waitConn(t)
	select {
	case <-hooks:
	case <-time.After(2 * time.Second):
		t.Fatal("hook did not fire on reconnect")
	}
	require.Eventually(t, conn.Connected, 2*time.Second, 20*time.Millisecond)
}

func TestConnUnrecognizedFrameIgnored(t *testing.T) {
	g := newFakeGateway(t)
	sink := newRecordingSink()
	conn := setupConn(t, g, sink)
	conn.Connect(context.Background())

	ws := g.waitConn(t)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"unknown":"frame"}`)))
	g.pushEvent(t, ws, protocol.EventSessionCreated, map[string]interface{}{"session_id": 1})

	sink.wait(t)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Equal(t, []string{protocol.EventSessionCreated}, sink.events)
}
