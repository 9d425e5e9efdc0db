// Package transport maintains the websocket connection to the backend
// gateway: it keeps the socket alive across failures, answers pings, routes
// pushed events into the session layer and multiplexes RPC calls over the
// same socket.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/starkbot/console/internal/common/logger"
	"github.com/starkbot/console/pkg/gateway/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 1024 * 1024 // 1MB
)

// ErrNotConnected is returned by Call while the socket is down.
var ErrNotConnected = errors.New("gateway not connected")

// Sink consumes pushed gateway events. The session monitor implements it.
type Sink interface {
	Dispatch(event string, data []byte)
}

// Config holds the dial parameters.
type Config struct {
	URL              string
	Token            string
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	ReconnectMin     time.Duration
	ReconnectMax     time.Duration
}

func (c *Config) applyDefaults() {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = (pongWait * 9) / 10
	}
	if c.ReconnectMin <= 0 {
		c.ReconnectMin = time.Second
	}
	if c.ReconnectMax < c.ReconnectMin {
		c.ReconnectMax = 30 * time.Second
	}
}

// Conn is a self-healing gateway connection. Connect starts a background loop
// that dials, pumps messages and redials with exponential backoff until
// Disconnect is called.
type Conn struct {
	cfg  Config
	sink Sink
	log  *logger.Logger

	mu      sync.Mutex
	ws      *websocket.Conn
	writeMu sync.Mutex
	pending map[string]chan *protocol.RPCResponse

	onConnect []func(ctx context.Context)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewConn creates a connection that feeds events into sink. It does not dial
// until Connect.
func NewConn(cfg Config, sink Sink, log *logger.Logger) *Conn {
	cfg.applyDefaults()
	return &Conn{
		cfg:     cfg,
		sink:    sink,
		log:     log.WithComponent("gateway"),
		pending: make(map[string]chan *protocol.RPCResponse),
	}
}

// OnConnect registers a hook invoked after every successful dial, including
// reconnects. Hooks must be registered before Connect.
func (c *Conn) OnConnect(fn func(ctx context.Context)) {
	c.onConnect = append(c.onConnect, fn)
}

// Connect starts the connection loop. It returns immediately; the first dial
// happens in the background so a backend that is down at startup does not
// block the console.
func (c *Conn) Connect(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(runCtx)
}

// Disconnect stops the loop and closes the socket.
func (c *Conn) Disconnect() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.closeSocket()
	<-c.done
}

func (c *Conn) run(ctx context.Context) {
	defer close(c.done)
	backoff := c.cfg.ReconnectMin
	for {
		if ctx.Err() != nil {
			return
		}
		ws, err := c.dial(ctx)
		if err != nil {
			c.log.Warn("gateway dial failed", zap.Error(err),
				zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.cfg.ReconnectMax {
				backoff = c.cfg.ReconnectMax
			}
			continue
		}
		backoff = c.cfg.ReconnectMin
		c.log.Info("gateway connected", zap.String("url", c.cfg.URL))

		c.mu.Lock()
		c.ws = ws
		c.mu.Unlock()

		pingDone := make(chan struct{})
		go c.pingLoop(ws, pingDone)
		// Hooks run off the read pump so a slow bootstrap cannot back up the
		// socket.
		go func() {
			for _, fn := range c.onConnect {
				fn(ctx)
			}
		}()

		c.readPump(ws)

		close(pingDone)
		c.mu.Lock()
		c.ws = nil
		c.mu.Unlock()
		c.failPending()

		if ctx.Err() != nil {
			return
		}
		c.log.Warn("gateway connection lost, reconnecting")
	}
}

func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	header := map[string][]string{}
	if c.cfg.Token != "" {
		header["Authorization"] = []string{"Bearer " + c.cfg.Token}
	}
	ws, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	return ws, err
}

func (c *Conn) pingLoop(ws *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := ws.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *Conn) readPump(ws *websocket.Conn) {
	defer ws.Close()
	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("gateway read error", zap.Error(err))
			}
			return
		}
		c.handleMessage(message)
	}
}

// handleMessage classifies one frame: a pushed event goes to the sink, an RPC
// response to its waiting caller, anything else is dropped with a log line.
func (c *Conn) handleMessage(message []byte) {
	if ev, ok := protocol.ParseEvent(message); ok {
		c.sink.Dispatch(ev.Event, ev.Data)
		return
	}
	var resp protocol.RPCResponse
	if err := json.Unmarshal(message, &resp); err == nil && resp.ID != "" {
		c.mu.Lock()
		ch := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()
		if ch != nil {
			ch <- &resp
		}
		return
	}
	c.log.Debug("dropping unrecognized gateway frame")
}

// Call performs one RPC over the socket and decodes the result into out (out
// may be nil). It fails fast when disconnected.
func (c *Conn) Call(ctx context.Context, method string, params, out interface{}) error {
	id := uuid.New().String()
	req := protocol.RPCRequest{ID: id, Method: method, Params: params}

	ch := make(chan *protocol.RPCResponse, 1)
	c.mu.Lock()
	ws := c.ws
	if ws == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.writeJSON(ws, req); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return err
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return ErrNotConnected
		}
		if resp.Error != nil {
			return resp.Error
		}
		if out != nil {
			return resp.DecodeResult(out)
		}
		return nil
	}
}

// Ping round-trips a gateway-level ping RPC.
func (c *Conn) Ping(ctx context.Context) error {
	return c.Call(ctx, protocol.MethodPing, nil, nil)
}

// Connected reports whether a socket is currently up.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws != nil
}

func (c *Conn) writeJSON(ws *websocket.Conn, v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteJSON(v)
}

func (c *Conn) closeSocket() {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws != nil {
		ws.Close()
	}
}

// failPending wakes every caller blocked in Call after the socket drops.
func (c *Conn) failPending() {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]chan *protocol.RPCResponse)
	c.mu.Unlock()
	for _, ch := range pending {
		close(ch)
	}
}
