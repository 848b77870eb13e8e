package pubsub

import (
	"fmt"
	"sync"
	"testing"
)

func TestQueuePushAndDrain(t *testing.T) {
	q := NewQueue()

	for i := 0; i < 3; i++ {
		evicted := q.Push(Message{Topic: fmt.Sprintf("t/%d", i)})
		if evicted {
			t.Errorf("Push(%d) reported eviction on non-full queue", i)
		}
	}

	msgs := q.DrainAll()
	if len(msgs) != 3 {
		t.Fatalf("DrainAll() returned %d messages, want 3", len(msgs))
	}
	for i, msg := range msgs {
		if want := fmt.Sprintf("t/%d", i); msg.Topic != want {
			t.Errorf("message %d topic = %q, want %q", i, msg.Topic, want)
		}
	}
}

// TestQueueOverflow verifies that pushing 20 messages into the
// capacity-16 queue keeps exactly the last 16 in original order and
// reports 4 evictions.
func TestQueueOverflow(t *testing.T) {
	q := NewQueue()

	evictions := 0
	for i := 0; i < 20; i++ {
		if q.Push(Message{Topic: fmt.Sprintf("t/%d", i)}) {
			evictions++
		}
	}
	if evictions != 4 {
		t.Errorf("evictions = %d, want 4", evictions)
	}
	if got := q.Evictions(); got != 4 {
		t.Errorf("Evictions() = %d, want 4", got)
	}

	msgs := q.DrainAll()
	if len(msgs) != QueueCapacity {
		t.Fatalf("DrainAll() returned %d messages, want %d", len(msgs), QueueCapacity)
	}
	for i, msg := range msgs {
		if want := fmt.Sprintf("t/%d", i+4); msg.Topic != want {
			t.Errorf("message %d topic = %q, want %q", i, msg.Topic, want)
		}
	}
}

// TestQueueDrainTwice verifies a second drain with no intervening push
// returns nothing: messages are consumed exactly once.
func TestQueueDrainTwice(t *testing.T) {
	q := NewQueue()
	q.Push(Message{Topic: "t/0"})

	if msgs := q.DrainAll(); len(msgs) != 1 {
		t.Fatalf("first DrainAll() returned %d messages, want 1", len(msgs))
	}
	if msgs := q.DrainAll(); len(msgs) != 0 {
		t.Errorf("second DrainAll() returned %d messages, want 0", len(msgs))
	}
}

func TestQueueWakeSignal(t *testing.T) {
	q := NewQueue()

	select {
	case <-q.Wake():
		t.Fatal("Wake() signalled before any push")
	default:
	}

	q.Push(Message{Topic: "t/0"})
	q.Push(Message{Topic: "t/1"}) // second push must not block on the signal

	select {
	case <-q.Wake():
	default:
		t.Error("Wake() not signalled after push")
	}
}

// TestQueueConcurrentPushDrain hammers the queue from several producer
// goroutines while a consumer drains. Every pushed message must end up
// either drained or counted as an eviction; nothing is duplicated.
func TestQueueConcurrentPushDrain(t *testing.T) {
	const (
		producers   = 4
		perProducer = 100
	)

	q := NewQueue()
	seen := make(map[string]bool)
	var seenMu sync.Mutex

	collect := func(msgs []Message) {
		seenMu.Lock()
		defer seenMu.Unlock()
		for _, msg := range msgs {
			if seen[msg.Topic] {
				t.Errorf("message %q drained twice", msg.Topic)
			}
			seen[msg.Topic] = true
		}
	}

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(Message{Topic: fmt.Sprintf("p%d/%d", p, i)})
			}
		}(p)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		collect(q.DrainAll())
		select {
		case <-done:
			// Final sweep after all producers finished.
			collect(q.DrainAll())
			total := uint64(len(seen)) + q.Evictions()
			if want := uint64(producers * perProducer); total != want {
				t.Errorf("drained %d + evicted %d = %d, want %d", len(seen), q.Evictions(), total, want)
			}
			return
		default:
		}
	}
}
