// Package protocol defines the wire contract with the backend gateway:
// server-push event frames and the JSON-RPC style request/response channel
// that share a single WebSocket connection.
package protocol

import (
	"encoding/json"
)

// FrameType discriminates the messages arriving on the gateway socket.
const (
	FrameTypeEvent = "event"
)

// Event is the envelope for a server-push frame. The payload in Data is
// decoded lazily by topic; see payloads.go for the per-topic shapes.
type Event struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ParseEvent parses raw frame bytes into an Event. It returns false if the
// frame is not an event (e.g. an RPC response sharing the socket).
func ParseEvent(data []byte) (*Event, bool) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, false
	}
	if ev.Type != FrameTypeEvent || ev.Event == "" {
		return nil, false
	}
	return &ev, true
}

// DecodeData parses the event payload into the given struct.
func (e *Event) DecodeData(v interface{}) error {
	if e.Data == nil {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// RPCRequest is a client request on the gateway socket.
type RPCRequest struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// RPCResponse is the server's reply to an RPCRequest, matched by ID.
type RPCResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// DecodeResult parses the RPC result into the given struct.
func (r *RPCResponse) DecodeResult(v interface{}) error {
	if r.Result == nil {
		return nil
	}
	return json.Unmarshal(r.Result, v)
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// JSON-RPC error codes used by the gateway.
const (
	RPCCodeParseError     = -32700
	RPCCodeInvalidRequest = -32600
	RPCCodeMethodNotFound = -32601
	RPCCodeInvalidParams  = -32602
	RPCCodeInternalError  = -32603
)
