package events_test

import (
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/pieterjm/lnbits/internal/events"
)

func newRegistry() *events.Registry {
	return events.NewRegistry(zap.NewNop())
}

func TestRegistry_DispatchToSingleListener(t *testing.T) {
	r := newRegistry()
	q := make(events.Queue, 5)
	r.Register("w1", q)

	r.Dispatch("w1", "some data")

	select {
	case got := <-q:
		if got != "some data" {
			t.Fatalf("expected %q, got %q", "some data", got)
		}
	default:
		t.Fatal("expected a message on the queue")
	}
}

// TestRegistry_DispatchToMultipleListeners verifies one message reaches
// every listener of the same wallet independently.
func TestRegistry_DispatchToMultipleListeners(t *testing.T) {
	r := newRegistry()
	q1 := make(events.Queue, 5)
	q2 := make(events.Queue, 5)
	r.Register("w1", q1)
	r.Register("w1", q2)

	r.Dispatch("w1", "some data")

	for i, q := range []events.Queue{q1, q2} {
		select {
		case got := <-q:
			if got != "some data" {
				t.Fatalf("queue %d: expected %q, got %q", i, "some data", got)
			}
		default:
			t.Fatalf("queue %d: expected a message", i)
		}
	}
}

func TestRegistry_DispatchPreservesFIFO(t *testing.T) {
	r := newRegistry()
	q := make(events.Queue, 5)
	r.Register("w1", q)

	for i := 0; i < 5; i++ {
		r.Dispatch("w1", fmt.Sprintf("msg-%d", i))
	}
	for i := 0; i < 5; i++ {
		got := <-q
		want := fmt.Sprintf("msg-%d", i)
		if got != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, got)
		}
	}
}

// TestRegistry_FullQueueDropsWithoutBlocking verifies the drop-on-full
// policy: a saturated listener loses messages, siblings still receive.
func TestRegistry_FullQueueDropsWithoutBlocking(t *testing.T) {
	r := newRegistry()
	full := make(events.Queue, 1)
	open := make(events.Queue, 5)
	r.Register("w1", full)
	r.Register("w1", open)

	full <- "stale"

	// Must return immediately even though `full` cannot accept.
	r.Dispatch("w1", "fresh")

	select {
	case got := <-open:
		if got != "fresh" {
			t.Fatalf("expected %q, got %q", "fresh", got)
		}
	default:
		t.Fatal("open queue should have received the message")
	}

	if got := <-full; got != "stale" {
		t.Fatalf("full queue should still hold its old message, got %q", got)
	}
	select {
	case got := <-full:
		t.Fatalf("full queue should have dropped the dispatch, got %q", got)
	default:
	}
}

func TestRegistry_DeregisterStopsDelivery(t *testing.T) {
	r := newRegistry()
	q := make(events.Queue, 5)
	r.Register("w1", q)
	r.Deregister("w1", q)

	r.Dispatch("w1", "lost")

	select {
	case got := <-q:
		t.Fatalf("deregistered queue received %q", got)
	default:
	}
	if n := r.ListenerCount("w1"); n != 0 {
		t.Fatalf("expected 0 listeners, got %d", n)
	}
}

func TestRegistry_DeregisterUnknownIsNoop(t *testing.T) {
	r := newRegistry()
	q := make(events.Queue, 5)

	// Neither the wallet entry nor the queue exists; must not panic.
	r.Deregister("w1", q)

	r.Register("w1", q)
	r.Deregister("w1", q)
	r.Deregister("w1", q) // second removal is a no-op too
}

func TestRegistry_DispatchToUnknownWallet(t *testing.T) {
	r := newRegistry()
	r.Dispatch("nobody-home", "ignored")
}

func TestRegistry_WalletIsolation(t *testing.T) {
	r := newRegistry()
	q1 := make(events.Queue, 5)
	q2 := make(events.Queue, 5)
	r.Register("w1", q1)
	r.Register("w2", q2)

	r.Dispatch("w1", "for w1 only")

	select {
	case got := <-q2:
		t.Fatalf("w2 listener received w1 message %q", got)
	default:
	}
	if got := <-q1; got != "for w1 only" {
		t.Fatalf("unexpected payload %q", got)
	}
}

// TestRegistry_ConcurrentAccess exercises register/deregister/dispatch from
// many goroutines at once; run with -race.
func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := newRegistry()

	const goroutines = 10
	const iterations = 200

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			wallet := fmt.Sprintf("w%d", g%3)
			for i := 0; i < iterations; i++ {
				q := make(events.Queue, 5)
				r.Register(wallet, q)
				r.Dispatch(wallet, "payload")
				r.Deregister(wallet, q)
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < 3; g++ {
		if n := r.ListenerCount(fmt.Sprintf("w%d", g)); n != 0 {
			t.Fatalf("wallet w%d: expected 0 listeners after teardown, got %d", g, n)
		}
	}
}
