package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPoolBroadcastReachesAllClients(t *testing.T) {
	pool := NewPool(discardLogger(), nil)

	a := NewClient("sess-a", "user-1", 4)
	b := NewClient("sess-b", "key:k1", 4)
	pool.Add(a)
	pool.Add(b)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	pool.Broadcast("capture", ActionCreated, "c1", json.RawMessage(`{"text":"hi"}`), now)

	for _, c := range []*Client{a, b} {
		select {
		case frame := <-c.Send:
			var m Mutation
			if err := json.Unmarshal(frame, &m); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			if m.Type != TypeMutation || m.Entity != "capture" || m.Action != ActionCreated || m.ID != "c1" {
				t.Fatalf("unexpected mutation: %+v", m)
			}
			if !m.Timestamp.Equal(now) {
				t.Fatalf("timestamp = %v", m.Timestamp)
			}
		default:
			t.Fatalf("client %s received nothing", c.SessionID)
		}
	}
}

func TestPoolBroadcastSkipsFullQueue(t *testing.T) {
	pool := NewPool(discardLogger(), nil)

	slow := NewClient("sess-slow", "user-1", 1)
	fast := NewClient("sess-fast", "user-2", 4)
	pool.Add(slow)
	pool.Add(fast)

	now := time.Now()
	pool.Broadcast("capture", ActionCreated, "c1", nil, now)
	// slow's queue of one is now full; the second frame must not block.
	done := make(chan struct{})
	go func() {
		pool.Broadcast("capture", ActionUpdated, "c1", nil, now)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full client queue")
	}

	if got := len(fast.Send); got != 2 {
		t.Fatalf("fast client queued %d frames, want 2", got)
	}
	if got := len(slow.Send); got != 1 {
		t.Fatalf("slow client queued %d frames, want 1", got)
	}
}

func TestPoolBroadcastSkipsClosedClients(t *testing.T) {
	pool := NewPool(discardLogger(), nil)

	closed := NewClient("sess-closed", "user-1", 4)
	pool.Add(closed)
	closed.Close()

	pool.Broadcast("capture", ActionDeleted, "c1", nil, time.Now())
	if got := len(closed.Send); got != 0 {
		t.Fatalf("closed client queued %d frames", got)
	}
}

func TestPoolRemoveIsIdempotent(t *testing.T) {
	pool := NewPool(discardLogger(), nil)

	c := NewClient("sess-a", "user-1", 4)
	pool.Add(c)
	if got := pool.Len(); got != 1 {
		t.Fatalf("Len = %d", got)
	}

	pool.Remove("sess-a")
	pool.Remove("sess-a")
	pool.Remove("never-added")
	if got := pool.Len(); got != 0 {
		t.Fatalf("Len = %d", got)
	}
}

func TestDecodeAuthFrame(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"api key", `{"type":"auth","apiKey":"hub_abc"}`, false},
		{"bearer", `{"type":"auth","bearerToken":"eyJ..."}`, false},
		{"both credentials", `{"type":"auth","apiKey":"k","bearerToken":"t"}`, true},
		{"no credential", `{"type":"auth"}`, true},
		{"blank credential", `{"type":"auth","apiKey":"  "}`, true},
		{"wrong type", `{"type":"hello","apiKey":"k"}`, true},
		{"unknown field", `{"type":"auth","apiKey":"k","extra":1}`, true},
		{"not json", `auth please`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeAuthFrame([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
