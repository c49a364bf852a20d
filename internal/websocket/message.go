// Package websocket provides WebSocket message handling utilities.
package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Client message types.
const (
	TypePing    = "ping"
	TypeAnswer  = "answer"
	TypeAdvance = "advance"
	TypeState   = "state"
)

var (
	// ErrInvalidMessage is returned for frames that are not a JSON object with a type.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrUnknownMessage is returned for a type with no registered handler.
	ErrUnknownMessage = errors.New("unknown message type")
)

// ClientMessage is a frame sent by the browser.
// Answer keeps the raw text so "" and " 75 " reach the engine as typed.
type ClientMessage struct {
	Type   string
	Answer string
}

type rawClientMessage struct {
	Type   string          `json:"type"`
	Answer json.RawMessage `json:"answer"`
}

// ParseClientMessage decodes a client frame. A numeric answer is kept as its
// literal text.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	var raw rawClientMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if raw.Type == "" {
		return ClientMessage{}, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}

	answer, err := AnswerText(raw.Answer)
	if err != nil {
		return ClientMessage{}, err
	}
	return ClientMessage{Type: strings.ToLower(raw.Type), Answer: answer}, nil
}

// AnswerText turns a JSON answer value into the text typed by the player.
// Strings are unquoted, numbers keep their literal form and null or a
// missing value is empty.
func AnswerText(raw json.RawMessage) (string, error) {
	answer := bytes.TrimSpace(raw)
	switch {
	case len(answer) == 0, bytes.Equal(answer, []byte("null")):
		return "", nil
	case answer[0] == '"':
		var text string
		if err := json.Unmarshal(answer, &text); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
		return text, nil
	case answer[0] == '{', answer[0] == '[':
		return "", fmt.Errorf("%w: answer must be a string or number", ErrInvalidMessage)
	default:
		return string(answer), nil
	}
}

// Sender delivers a JSON message to the client.
type Sender interface {
	Send(v interface{}) error
}

// PingHandler handles ping/pong messages for WebSocket connections.
type PingHandler struct {
	to Sender
}

// NewPingHandler creates a new PingHandler.
func NewPingHandler(to Sender) *PingHandler {
	return &PingHandler{
		to: to,
	}
}

// Handle processes a message and returns true if it was a ping message.
func (h *PingHandler) Handle(message []byte) bool {
	if !IsPingMessage(message) {
		return false
	}

	_ = h.to.Send(map[string]interface{}{
		"type": "pong",
	})

	return true
}

// IsPingMessage checks if a message is a ping message without processing it.
func IsPingMessage(message []byte) bool {
	msg, err := ParseClientMessage(message)
	return err == nil && msg.Type == TypePing
}

// HandlerFunc handles one decoded client message.
type HandlerFunc func(msg ClientMessage) error

// Dispatcher routes client frames by type. Pings are answered directly.
type Dispatcher struct {
	ping     *PingHandler
	handlers map[string]HandlerFunc
}

// NewDispatcher creates a Dispatcher that answers pings on to.
func NewDispatcher(to Sender) *Dispatcher {
	return &Dispatcher{
		ping:     NewPingHandler(to),
		handlers: make(map[string]HandlerFunc),
	}
}

// On registers fn for msgType, replacing any previous handler.
func (d *Dispatcher) On(msgType string, fn HandlerFunc) {
	d.handlers[strings.ToLower(msgType)] = fn
}

// Dispatch decodes data and runs the matching handler.
func (d *Dispatcher) Dispatch(data []byte) error {
	if d.ping.Handle(data) {
		return nil
	}

	msg, err := ParseClientMessage(data)
	if err != nil {
		return err
	}

	fn, ok := d.handlers[msg.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMessage, msg.Type)
	}
	return fn(msg)
}
