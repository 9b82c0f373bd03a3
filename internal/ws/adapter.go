package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pieterjm/lnbits/internal/events"
)

// Adapter bridges one wallet-scoped websocket connection to the listener
// registry. Each accepted connection gets a fresh bounded queue registered
// under its wallet; the adapter drains that queue to the socket and fans
// inbound text back out through the registry. "ping" is special-cased to an
// immediate "pong" that bypasses the fan-out entirely.
type Adapter struct {
	registry  *events.Registry
	queueSize int
	logger    *zap.Logger
	upgrader  websocket.Upgrader

	onOpen  func()
	onClose func()
}

func NewAdapter(registry *events.Registry, queueSize int, logger *zap.Logger) *Adapter {
	return &Adapter{
		registry:  registry,
		queueSize: queueSize,
		logger:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Wallet access is capability-based (knowing the
				// wallet ID), same as the HTTP surface.
				return true
			},
		},
		onOpen:  func() {},
		onClose: func() {},
	}
}

// SetHooks installs connection gauge callbacks. Must be called before the
// adapter is shared.
func (a *Adapter) SetHooks(onOpen, onClose func()) {
	if onOpen != nil {
		a.onOpen = onOpen
	}
	if onClose != nil {
		a.onClose = onClose
	}
}

// Serve upgrades the request and owns the connection until it dies. The
// read loop and the drain loop terminate together: whichever fails first
// closes the shared done channel and the socket, which unblocks the other.
// Deregistration runs exactly once, so a dead connection never leaks its
// queue.
func (a *Adapter) Serve(w http.ResponseWriter, r *http.Request, walletID string) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Debug("websocket upgrade failed",
			zap.String("wallet_id", walletID), zap.Error(err))
		return
	}

	a.onOpen()
	a.logger.Debug("wallet listener connected", zap.String("wallet_id", walletID))

	q := make(events.Queue, a.queueSize)
	a.registry.Register(walletID, q)

	done := make(chan struct{})
	var once sync.Once
	teardown := func() {
		once.Do(func() {
			close(done)
			a.registry.Deregister(walletID, q)
			conn.Close()
			a.onClose()
			a.logger.Debug("wallet listener disconnected", zap.String("wallet_id", walletID))
		})
	}
	defer teardown()

	// gorilla/websocket permits one concurrent writer; pong replies and
	// drained events share the socket, so writes are serialized here.
	var writeMu sync.Mutex
	write := func(payload string) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, []byte(payload))
	}

	go a.drainLoop(q, done, write, teardown)
	a.readLoop(conn, walletID, write)
}

// readLoop pumps inbound frames until the connection errors or closes.
// A literal "ping" answers "pong" on the spot; any other text is handed to
// the dispatcher for the wallet's listeners (including this connection's
// own queue).
func (a *Adapter) readLoop(conn *websocket.Conn, walletID string, write func(string) error) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		text := string(msg)
		if text == "ping" {
			if err := write("pong"); err != nil {
				return
			}
			continue
		}
		a.registry.Dispatch(walletID, text)
	}
}

// drainLoop writes queued payloads to the socket in FIFO order.
func (a *Adapter) drainLoop(q events.Queue, done <-chan struct{}, write func(string) error, teardown func()) {
	for {
		select {
		case payload := <-q:
			if err := write(payload); err != nil {
				teardown()
				return
			}
		case <-done:
			return
		}
	}
}
