package events

import (
	"sync"

	"go.uber.org/zap"
)

// Queue is one listener's bounded outbound channel. Each queue belongs to
// exactly one connection and exactly one wallet; the connection adapter
// creates it on connect and the registry forgets it on deregister.
type Queue chan string

// Registry maps a wallet ID to the set of queues currently listening on it.
// It is the only structure mutated concurrently by every connection, so all
// access goes through the mutex. One instance is constructed at process
// start and injected everywhere; there is no package-level state.
type Registry struct {
	logger *zap.Logger

	mu        sync.RWMutex
	listeners map[string]map[Queue]struct{}

	// Hooks for metrics, optional (nil = no-op).
	onDispatched func()
	onDropped    func()
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:       logger,
		listeners:    make(map[string]map[Queue]struct{}),
		onDispatched: func() {},
		onDropped:    func() {},
	}
}

// SetHooks installs metric callbacks invoked on every accepted and every
// dropped enqueue. Must be called before the registry is shared.
func (r *Registry) SetHooks(onDispatched, onDropped func()) {
	if onDispatched != nil {
		r.onDispatched = onDispatched
	}
	if onDropped != nil {
		r.onDropped = onDropped
	}
}

// Register adds q to walletID's listener set, creating the set if this is
// the wallet's first listener. It never fails.
func (r *Registry) Register(walletID string, q Queue) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.listeners[walletID]
	if !ok {
		set = make(map[Queue]struct{})
		r.listeners[walletID] = set
	}
	set[q] = struct{}{}
}

// Deregister removes q from walletID's listener set. Removing a queue that
// was never registered (or was already removed) is a no-op.
func (r *Registry) Deregister(walletID string, q Queue) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.listeners[walletID]
	if !ok {
		return
	}
	delete(set, q)
	if len(set) == 0 {
		delete(r.listeners, walletID)
	}
}

// Dispatch fans payload out to every queue currently registered under
// walletID. Enqueue is non-blocking per queue: a full queue drops the
// message for that listener and dispatch moves on, so one stalled consumer
// never delays producers or its siblings. Each queue that accepts keeps
// FIFO order of the messages it accepted; no ordering holds across queues.
func (r *Registry) Dispatch(walletID string, payload string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for q := range r.listeners[walletID] {
		select {
		case q <- payload:
			r.onDispatched()
		default:
			r.onDropped()
			r.logger.Warn("listener queue full, dropping message",
				zap.String("wallet_id", walletID),
				zap.Int("capacity", cap(q)),
			)
		}
	}
}

// ListenerCount reports how many queues are registered under walletID.
// Used by tests and the metrics snapshot.
func (r *Registry) ListenerCount(walletID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[walletID])
}
