package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

type fakeAuthenticator struct {
	apiKeys map[string]string // raw key -> subject
	bearers map[string]string // token -> subject
}

func (f *fakeAuthenticator) AuthenticateAPIKey(_ context.Context, rawKey string) (string, error) {
	if s, ok := f.apiKeys[rawKey]; ok {
		return s, nil
	}
	return "", errors.New("invalid credentials")
}

func (f *fakeAuthenticator) AuthenticateBearer(_ context.Context, tok string) (string, error) {
	if s, ok := f.bearers[tok]; ok {
		return s, nil
	}
	return "", errors.New("invalid credentials")
}

func newTestGateway(t *testing.T, cfg GatewayConfig) (*Gateway, *Pool, *httptest.Server) {
	t.Helper()

	auth := &fakeAuthenticator{
		apiKeys: map[string]string{"hub_valid": "key:k1"},
		bearers: map[string]string{"good-token": "user-1"},
	}
	pool := NewPool(discardLogger(), nil)
	gw := NewGateway(discardLogger(), pool, auth, nil, cfg)

	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)
	return gw, pool, srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
}

// expectClose reads until the peer closes and asserts the close code.
func expectClose(t *testing.T, conn *websocket.Conn, want websocket.StatusCode) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for {
		_, _, err := conn.Read(ctx)
		if err == nil {
			continue
		}
		if got := websocket.CloseStatus(err); got != want {
			t.Fatalf("close status = %d (%v), want %d", got, err, want)
		}
		return
	}
}

func TestGateAcceptsBearer(t *testing.T) {
	_, pool, srv := newTestGateway(t, GatewayConfig{})
	conn := dialWS(t, srv)
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendJSON(t, conn, AuthFrame{Type: TypeAuth, BearerToken: "good-token"})

	var ack AuthAckFrame
	readJSON(t, conn, &ack)
	if ack.Type != TypeAuthAck || ack.Subject != "user-1" {
		t.Fatalf("ack = %+v", ack)
	}

	waitForClients(t, pool, 1)
}

func TestGateAcceptsAPIKey(t *testing.T) {
	_, pool, srv := newTestGateway(t, GatewayConfig{})
	conn := dialWS(t, srv)
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendJSON(t, conn, AuthFrame{Type: TypeAuth, APIKey: "hub_valid"})

	var ack AuthAckFrame
	readJSON(t, conn, &ack)
	if ack.Subject != "key:k1" {
		t.Fatalf("ack = %+v", ack)
	}

	waitForClients(t, pool, 1)
}

func TestGateRejectsBadCredentials(t *testing.T) {
	_, pool, srv := newTestGateway(t, GatewayConfig{})
	conn := dialWS(t, srv)

	sendJSON(t, conn, AuthFrame{Type: TypeAuth, BearerToken: "forged"})
	expectClose(t, conn, CloseInvalidCredentials)

	if got := pool.Len(); got != 0 {
		t.Fatalf("pool has %d clients", got)
	}
}

func TestGateRejectsMalformedFirstFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"not json", "hello"},
		{"wrong type", `{"type":"mutation"}`},
		{"no credential", `{"type":"auth"}`},
		{"both credentials", `{"type":"auth","apiKey":"hub_valid","bearerToken":"good-token"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, srv := newTestGateway(t, GatewayConfig{})
			conn := dialWS(t, srv)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := conn.Write(ctx, websocket.MessageText, []byte(tt.frame)); err != nil {
				t.Fatalf("Write: %v", err)
			}
			expectClose(t, conn, CloseInvalidCredentials)
		})
	}
}

func TestGateTimesOutSilentSocket(t *testing.T) {
	_, _, srv := newTestGateway(t, GatewayConfig{AuthTimeout: 100 * time.Millisecond})
	conn := dialWS(t, srv)

	// Say nothing; the gate must hang up on its own.
	expectClose(t, conn, CloseAuthTimeout)
}

func TestAuthenticatedClientReceivesBroadcast(t *testing.T) {
	_, pool, srv := newTestGateway(t, GatewayConfig{})
	conn := dialWS(t, srv)
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendJSON(t, conn, AuthFrame{Type: TypeAuth, BearerToken: "good-token"})
	var ack AuthAckFrame
	readJSON(t, conn, &ack)

	waitForClients(t, pool, 1)
	pool.Broadcast("capture", ActionCreated, "c42", json.RawMessage(`{"text":"hi"}`), time.Now())

	var m Mutation
	readJSON(t, conn, &m)
	if m.Type != TypeMutation || m.Entity != "capture" || m.ID != "c42" {
		t.Fatalf("mutation = %+v", m)
	}
}

func waitForClients(t *testing.T, pool *Pool, want int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if pool.Len() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("pool.Len() = %d, want %d", pool.Len(), want)
}
