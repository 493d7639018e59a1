package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Close codes used by the auth gate. These sit in the application range so
// clients can distinguish a credential failure from a slow handshake.
const (
	CloseInvalidCredentials websocket.StatusCode = 4401
	CloseAuthTimeout        websocket.StatusCode = 4408
)

const (
	defaultAuthTimeout   = 5 * time.Second
	defaultWriteTimeout  = 5 * time.Second
	defaultReadIdle      = 2 * time.Minute
	defaultSendQueueSize = 256
	minSendQueueSize     = 32

	heartbeatInterval = 30 * time.Second
	heartbeatTimeout  = 10 * time.Second
	maxPingFailures   = 3

	maxFrameBytes = 32 * 1024
	closeGrace    = 1 * time.Second
)

// Authenticator resolves socket credentials to a subject.
type Authenticator interface {
	// AuthenticateAPIKey resolves a raw API key.
	AuthenticateAPIKey(ctx context.Context, rawKey string) (subject string, err error)

	// AuthenticateBearer resolves a JWT access token.
	AuthenticateBearer(ctx context.Context, accessToken string) (subject string, err error)
}

// GatewayConfig tunes the gateway; zero values fall back to defaults.
type GatewayConfig struct {
	// AuthTimeout bounds how long a new socket may sit unauthenticated.
	AuthTimeout time.Duration

	WriteTimeout    time.Duration
	ReadIdleTimeout time.Duration
	SendQueueSize   int

	// OriginPatterns are host patterns passed to websocket.Accept for
	// cross-origin requests. Empty means same-host only.
	OriginPatterns []string

	// InsecureSkipVerify disables origin verification. Dev only.
	InsecureSkipVerify bool
}

func (c GatewayConfig) withDefaults() GatewayConfig {
	if c.AuthTimeout <= 0 {
		c.AuthTimeout = defaultAuthTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.ReadIdleTimeout <= 0 {
		c.ReadIdleTimeout = defaultReadIdle
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = defaultSendQueueSize
	}
	if c.SendQueueSize < minSendQueueSize {
		c.SendQueueSize = minSendQueueSize
	}
	return c
}

// Gateway upgrades HTTP requests to WebSocket sessions, gates each new socket
// on its first frame, and keeps authenticated clients in the broadcast pool.
//
// The gate is strict: the first frame must be a well-formed auth frame with
// exactly one credential, delivered within AuthTimeout. Anything else closes
// the socket; no mutation frame is ever sent to an unauthenticated peer.
type Gateway struct {
	log     *slog.Logger
	pool    *Pool
	auth    Authenticator
	metrics *Metrics
	cfg     GatewayConfig
}

// NewGateway constructs a Gateway. metrics may be nil.
func NewGateway(log *slog.Logger, pool *Pool, auth Authenticator, metrics *Metrics, cfg GatewayConfig) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		log:     log,
		pool:    pool,
		auth:    auth,
		metrics: metrics,
		cfg:     cfg.withDefaults(),
	}
}

// ServeHTTP adapter so the gateway can be mounted as http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.HandleWS(w, r)
}

// HandleWS upgrades the request and runs the session loop.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     g.cfg.OriginPatterns,
		InsecureSkipVerify: g.cfg.InsecureSkipVerify,
	})
	if err != nil {
		g.log.Error("ws.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	conn.SetReadLimit(maxFrameBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client, ok := g.gate(ctx, conn, r.RemoteAddr)
	if !ok {
		return
	}

	g.pool.Add(client)

	var closeOnce sync.Once
	shutdown := func(code websocket.StatusCode, reason string) {
		closeOnce.Do(func() {
			g.pool.Remove(client.SessionID)
			client.Close()
			_ = conn.Close(code, reason)
			cancel()
		})
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)

		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case frame := <-client.Send:
				if err := writeFrame(ctx, conn, frame, g.cfg.WriteTimeout); err != nil {
					g.log.Info("ws.write.fail", "session_id", client.SessionID, "close_status", websocket.CloseStatus(err), "err", err)
					shutdown(websocket.StatusAbnormalClosure, "write failed")
					return
				}
			}
		}
	}()

	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)

		t := time.NewTicker(heartbeatInterval)
		defer t.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case <-t.C:
				hbCtx, hbCancel := context.WithTimeout(ctx, heartbeatTimeout)
				err := conn.Ping(hbCtx)
				hbCancel()

				if err != nil {
					failures++
					g.log.Info("ws.ping.fail", "session_id", client.SessionID, "failures", failures, "err", err)
					if failures >= maxPingFailures {
						shutdown(websocket.StatusGoingAway, "heartbeat failed")
						return
					}
					continue
				}
				failures = 0
			}
		}
	}()

	// Sync is one-way after the gate: inbound frames are drained only to
	// observe the close handshake and keep the connection healthy.
readLoop:
	for {
		readCtx, readCancel := context.WithTimeout(ctx, g.cfg.ReadIdleTimeout)
		_, _, err := conn.Read(readCtx)
		readCancel()

		if err != nil {
			switch {
			case websocket.CloseStatus(err) != -1:
				shutdown(websocket.StatusNormalClosure, "peer closed")
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				shutdown(websocket.StatusNormalClosure, "idle")
			case errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF):
				shutdown(websocket.StatusAbnormalClosure, "conn closed")
			default:
				g.log.Info("ws.read.fail", "session_id", client.SessionID, "err", err)
				shutdown(websocket.StatusAbnormalClosure, "read failed")
			}
			break readLoop
		}
	}

	shutdown(websocket.StatusNormalClosure, "bye")
	<-writerDone

	select {
	case <-heartbeatDone:
	case <-time.After(closeGrace):
	}
}

// gate runs the first-message authentication handshake. On success it returns
// a pooled-ready client; on failure it closes the connection itself.
func (g *Gateway) gate(ctx context.Context, conn *websocket.Conn, remote string) (*Client, bool) {
	authCtx, authCancel := context.WithTimeout(ctx, g.cfg.AuthTimeout)
	defer authCancel()

	_, data, err := conn.Read(authCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			g.reject(conn, "timeout", remote, CloseAuthTimeout, "auth timeout")
		} else {
			g.reject(conn, "read", remote, CloseInvalidCredentials, "invalid credentials")
		}
		return nil, false
	}

	frame, err := decodeAuthFrame(data)
	if err != nil {
		g.reject(conn, "malformed", remote, CloseInvalidCredentials, "invalid credentials")
		return nil, false
	}

	var subject string
	if frame.APIKey != "" {
		subject, err = g.auth.AuthenticateAPIKey(authCtx, frame.APIKey)
	} else {
		subject, err = g.auth.AuthenticateBearer(authCtx, frame.BearerToken)
	}
	if err != nil {
		g.reject(conn, "credentials", remote, CloseInvalidCredentials, "invalid credentials")
		return nil, false
	}

	sessionID := NewRandomHex(10)
	client := NewClient(sessionID, subject, g.cfg.SendQueueSize)

	ack, _ := json.Marshal(AuthAckFrame{Type: TypeAuthAck, Subject: subject})
	if err := writeFrame(ctx, conn, ack, g.cfg.WriteTimeout); err != nil {
		g.log.Info("ws.auth.ack.fail", "session_id", sessionID, "err", err)
		_ = conn.Close(websocket.StatusAbnormalClosure, "write failed")
		return nil, false
	}

	g.log.Info("ws.auth.ok", "session_id", sessionID, "subject", subject, "remote", remote)
	return client, true
}

func (g *Gateway) reject(conn *websocket.Conn, reason, remote string, code websocket.StatusCode, msg string) {
	g.log.Info("ws.auth.reject", "reason", reason, "remote", remote)
	if g.metrics != nil {
		g.metrics.AuthRejects.WithLabelValues(reason).Inc()
	}

	// Best effort: an error frame before the close frame gives clients a
	// machine-readable reason even when their library hides close reasons.
	frame, _ := json.Marshal(ErrorFrame{Type: TypeError, Code: reason, Message: msg})
	ctx, cancel := context.WithTimeout(context.Background(), closeGrace)
	_ = conn.Write(ctx, websocket.MessageText, frame)
	cancel()

	_ = conn.Close(code, msg)
}

func writeFrame(parent context.Context, conn *websocket.Conn, frame []byte, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, frame)
}
