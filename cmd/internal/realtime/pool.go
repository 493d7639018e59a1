package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Pool is the set of authenticated clients that receive mutation broadcasts.
// Membership changes and fanout hold the same lock, so a client removed
// during shutdown never receives a late frame.
type Pool struct {
	log     *slog.Logger
	metrics *Metrics

	mu      sync.RWMutex
	clients map[string]*Client // by session ID
}

// NewPool constructs an empty Pool. metrics may be nil.
func NewPool(log *slog.Logger, metrics *Metrics) *Pool {
	if log == nil {
		log = slog.Default()
	}
	return &Pool{
		log:     log,
		metrics: metrics,
		clients: make(map[string]*Client),
	}
}

// Add registers an authenticated client.
func (p *Pool) Add(c *Client) {
	p.mu.Lock()
	p.clients[c.SessionID] = c
	n := len(p.clients)
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.Connections.Set(float64(n))
	}
	p.log.Info("ws.pool.add", "session_id", c.SessionID, "subject", c.Subject, "clients", n)
}

// Remove unregisters a client. Safe to call for unknown or already-removed IDs.
func (p *Pool) Remove(sessionID string) {
	p.mu.Lock()
	_, ok := p.clients[sessionID]
	delete(p.clients, sessionID)
	n := len(p.clients)
	p.mu.Unlock()

	if !ok {
		return
	}
	if p.metrics != nil {
		p.metrics.Connections.Set(float64(n))
	}
	p.log.Info("ws.pool.remove", "session_id", sessionID, "clients", n)
}

// Len reports the current number of pooled clients.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}

// Broadcast marshals one mutation frame and enqueues it to every client.
// Slow clients whose queue is full are skipped, never blocked on: a stalled
// consumer must not hold up fanout to everyone else.
func (p *Pool) Broadcast(entity, action, id string, data json.RawMessage, now time.Time) {
	frame, err := json.Marshal(Mutation{
		Type:      TypeMutation,
		Entity:    entity,
		Action:    action,
		ID:        id,
		Data:      data,
		Timestamp: now.UTC(),
	})
	if err != nil {
		p.log.Error("ws.broadcast.marshal.fail", "err", err, "entity", entity, "action", action)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var sent, dropped int
	for _, c := range p.clients {
		select {
		case <-c.Done():
			continue
		case c.Send <- frame:
			sent++
		default:
			dropped++
			p.log.Warn("ws.broadcast.drop", "session_id", c.SessionID, "entity", entity, "action", action)
		}
	}

	if p.metrics != nil {
		p.metrics.BroadcastsSent.Add(float64(sent))
		p.metrics.BroadcastsDropped.Add(float64(dropped))
	}
}
