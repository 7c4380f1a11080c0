package hub

import (
	"sync"

	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/audit"
	"github.com/forgewave/bombard/internal/metrics"
	"github.com/forgewave/bombard/internal/model"
)

// connEntry is one registered node: a send-channel its write half drains,
// and its current lifecycle state.
type connEntry struct {
	send  chan []byte
	state model.NodeState
}

// Registry holds every live hub-to-node websocket connection and enforces
// the REGISTERED/BOMBARDING/IDLE/REMOVED state machine. One async mutex
// guards both the connection map and every entry's state, per the
// concurrency model's "two mappings guarded by an async mutex" contract.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*connEntry

	log       *zap.Logger
	audit     *audit.Logger
	collector *metrics.Collector
}

// NewRegistry returns an empty node registry.
func NewRegistry(log *zap.Logger, auditLog *audit.Logger, collector *metrics.Collector) *Registry {
	return &Registry{
		conns:     make(map[string]*connEntry),
		log:       log,
		audit:     auditLog,
		collector: collector,
	}
}

// Register adds a newly accepted connection in the REGISTERED state and
// returns the channel its write half should drain.
func (r *Registry) Register(connID string) chan []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := &connEntry{send: make(chan []byte, 16), state: model.NodeRegistered}
	r.conns[connID] = entry

	r.audit.Log(audit.AuditEvent{EventType: audit.EventNodeRegistered, ResourceID: connID})
	r.log.Info("node registered", zap.String("conn_id", connID))
	r.updateGaugesLocked()
	return entry.send
}

// Remove drops a connection from the registry, typically on socket close.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	entry, ok := r.conns[connID]
	if ok {
		delete(r.conns, connID)
		close(entry.send)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	r.audit.Log(audit.AuditEvent{EventType: audit.EventNodeRemoved, ResourceID: connID})
	r.log.Info("node removed", zap.String("conn_id", connID))
	r.updateGauges()
}

// Counts returns the number of idle/registered ("available") and
// currently-bombarding connections.
func (r *Registry) Counts() (available, bombarding int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.conns {
		if entry.state == model.NodeBombarding {
			bombarding++
		} else {
			available++
		}
	}
	return available, bombarding
}

// Summaries returns the public REST view of every registered connection.
func (r *Registry) Summaries() []model.NodeSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.NodeSummary, 0, len(r.conns))
	for id, entry := range r.conns {
		out = append(out, model.NodeSummary{ConnID: id, State: entry.state})
	}
	return out
}

// AnyBombarding reports whether at least one registered node is currently
// running a job; admission refuses new jobs while this holds.
func (r *Registry) AnyBombarding() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.conns {
		if entry.state == model.NodeBombarding {
			return true
		}
	}
	return false
}

// DispatchToAll pushes payload onto every registered connection's
// send-channel and flips each to BOMBARDING, returning how many nodes the
// job was dispatched to.
func (r *Registry) DispatchToAll(payload []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dispatched := 0
	for connID, entry := range r.conns {
		select {
		case entry.send <- payload:
			entry.state = model.NodeBombarding
			dispatched++
		default:
			r.log.Error("node send channel full, skipping dispatch", zap.String("conn_id", connID))
		}
	}
	r.updateGaugesLocked()
	return dispatched
}

// MarkIdle transitions a connection back to IDLE after it reports "done".
func (r *Registry) MarkIdle(connID string) {
	r.mu.Lock()
	if entry, ok := r.conns[connID]; ok {
		entry.state = model.NodeIdle
	}
	r.mu.Unlock()
	r.updateGauges()
}

func (r *Registry) updateGauges() {
	r.mu.Lock()
	r.updateGaugesLocked()
	r.mu.Unlock()
}

func (r *Registry) updateGaugesLocked() {
	if r.collector == nil {
		return
	}
	var available, bombarding int
	for _, entry := range r.conns {
		if entry.state == model.NodeBombarding {
			bombarding++
		} else {
			available++
		}
	}
	r.collector.SetNodeCounts(available, bombarding)
}
