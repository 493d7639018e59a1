// Package realtime implements the WebSocket sync fanout: an authentication
// gate on every new socket followed by one-way broadcast of mutation frames.
package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Frame type discriminators on the wire.
const (
	TypeAuth    = "auth"
	TypeAuthAck = "auth_ack"
	TypeError   = "error"

	TypeMutation = "mutation"
)

// AuthFrame is the first frame a client must send after connecting.
// Exactly one credential field must be set.
type AuthFrame struct {
	Type        string `json:"type"`
	APIKey      string `json:"apiKey,omitempty"`
	BearerToken string `json:"bearerToken,omitempty"`
}

var (
	errNotAuthFrame   = errors.New("first frame must be an auth frame")
	errNoCredential   = errors.New("auth frame carries no credential")
	errBothCredential = errors.New("auth frame carries both credentials")
)

// decodeAuthFrame parses the first client frame strictly: unknown fields are
// rejected so a malformed or mis-typed frame never passes as a credential.
func decodeAuthFrame(data []byte) (AuthFrame, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var f AuthFrame
	if err := dec.Decode(&f); err != nil {
		return AuthFrame{}, err
	}
	if f.Type != TypeAuth {
		return AuthFrame{}, errNotAuthFrame
	}

	hasKey := strings.TrimSpace(f.APIKey) != ""
	hasBearer := strings.TrimSpace(f.BearerToken) != ""
	switch {
	case hasKey && hasBearer:
		return AuthFrame{}, errBothCredential
	case !hasKey && !hasBearer:
		return AuthFrame{}, errNoCredential
	}
	return f, nil
}

// AuthAckFrame confirms a successful gate pass.
type AuthAckFrame struct {
	Type    string `json:"type"`
	Subject string `json:"subject"`
}

// ErrorFrame reports a protocol-level error to the client.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Mutation is the one-way sync frame broadcast to every authenticated client
// when server state changes.
type Mutation struct {
	Type      string          `json:"type"`
	Entity    string          `json:"entity"`
	Action    string          `json:"action"`
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Mutation actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)
