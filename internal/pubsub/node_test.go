package pubsub

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/nerrad567/radiomesh/internal/transport"
	"github.com/nerrad567/radiomesh/internal/transport/memradio"
)

func testAddr(last byte) net.HardwareAddr {
	return net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, last}
}

// newStandaloneNode creates a node joined to the bus, standalone, on
// channel 6.
func newStandaloneNode(t *testing.T, bus *memradio.Bus, last byte) (*Node, *memradio.Radio) {
	t.Helper()
	radio := bus.Join(testAddr(last))
	node, err := New(Config{Channel: 6, Standalone: true}, radio, radio)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return node, radio
}

// fakeSink records telemetry publications for assertions.
type fakeSink struct {
	counterCalls int
	statusCalls  int
	lastSent     uint64
	lastReceived uint64
	lastRSSI     int
	lastStatus   string
}

func (s *fakeSink) RecordCounters(sent, received uint64, rssi int) {
	s.counterCalls++
	s.lastSent = sent
	s.lastReceived = received
	s.lastRSSI = rssi
}

func (s *fakeSink) RecordStatus(status string) {
	s.statusCalls++
	s.lastStatus = status
}

// =============================================================================
// Construction
// =============================================================================

func TestNewRejectsInvalidChannel(t *testing.T) {
	bus := memradio.NewBus()
	radio := bus.Join(testAddr(1))

	for _, channel := range []int{0, -1, 15, 100} {
		if _, err := New(Config{Channel: channel}, radio, radio); !errors.Is(err, ErrInvalidChannel) {
			t.Errorf("New(channel=%d) error = %v, want ErrInvalidChannel", channel, err)
		}
	}
}

// =============================================================================
// Publish
// =============================================================================

func TestPublishBeforeSetup(t *testing.T) {
	bus := memradio.NewBus()
	node, _ := newStandaloneNode(t, bus, 1)

	err := node.Publish("foo/bar", []byte("x"))
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("Publish() error = %v, want ErrNotReady", err)
	}

	d := node.Describe()
	if d.Sent != 0 {
		t.Errorf("Sent = %d, want 0", d.Sent)
	}
	if !strings.Contains(d.LastStatus, "not initialized") {
		t.Errorf("LastStatus = %q, want a not-initialized status", d.LastStatus)
	}
}

func TestPublishEmptyTopic(t *testing.T) {
	bus := memradio.NewBus()
	node, _ := newStandaloneNode(t, bus, 1)

	if err := node.Publish("", []byte("x")); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish(\"\") error = %v, want ErrInvalidTopic", err)
	}
}

func TestPublishSuccess(t *testing.T) {
	bus := memradio.NewBus()
	node, _ := newStandaloneNode(t, bus, 1)
	if err := node.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	if err := node.Publish("foo/bar", []byte("x")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	d := node.Describe()
	if d.Sent != 1 {
		t.Errorf("Sent = %d, want 1", d.Sent)
	}
	if d.LastStatus != "OK" {
		t.Errorf("LastStatus = %q, want OK", d.LastStatus)
	}
}

func TestPublishSendFailureStatus(t *testing.T) {
	tests := []struct {
		name       string
		sendErr    error
		wantStatus string
	}{
		{"no memory", transport.ErrNoMemory, "send failed: out of memory"},
		{"invalid argument", transport.ErrInvalidArgument, "send failed: invalid argument"},
		{"internal", transport.ErrInternal, "send failed: internal error"},
		{"peer not found", transport.ErrPeerNotFound, "send failed: peer not found"},
		{"not initialized", transport.ErrNotInitialized, "send failed: transport not initialized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := memradio.NewBus()
			node, radio := newStandaloneNode(t, bus, 1)
			if err := node.Setup(); err != nil {
				t.Fatalf("Setup() error = %v", err)
			}

			radio.SendErr = tt.sendErr
			err := node.Publish("foo/bar", []byte("x"))
			if !errors.Is(err, tt.sendErr) {
				t.Fatalf("Publish() error = %v, want %v", err, tt.sendErr)
			}

			d := node.Describe()
			if d.LastStatus != tt.wantStatus {
				t.Errorf("LastStatus = %q, want %q", d.LastStatus, tt.wantStatus)
			}
			if d.Sent != 0 {
				t.Errorf("Sent = %d, want 0 after failed send", d.Sent)
			}

			// Publish failures do not affect subsequent calls.
			radio.SendErr = nil
			if err := node.Publish("foo/bar", []byte("x")); err != nil {
				t.Errorf("Publish() after recovery error = %v", err)
			}
		})
	}
}

func TestPublishSendRepeat(t *testing.T) {
	bus := memradio.NewBus()

	sender := bus.Join(testAddr(1))
	node, err := New(Config{Channel: 6, Standalone: true, SendRepeat: 3}, sender, sender)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := node.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	receiver, _ := newStandaloneNode(t, bus, 2)
	got := 0
	receiver.Subscribe("foo/#", func(string, []byte) { got++ })
	if err := receiver.Setup(); err != nil {
		t.Fatalf("receiver Setup() error = %v", err)
	}

	if err := node.Publish("foo/bar", []byte("x")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	receiver.Tick()

	if got != 3 {
		t.Errorf("handler invoked %d times, want 3 (send repeat)", got)
	}
}

// =============================================================================
// End-to-end delivery
// =============================================================================

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := memradio.NewBus()

	receiver, radio := newStandaloneNode(t, bus, 2)
	radio.SetReportedRSSI(-42)

	var gotTopic string
	var gotPayload []byte
	receiver.Subscribe("sensors/+/temp", func(topic string, payload []byte) {
		gotTopic = topic
		gotPayload = payload
	})
	if err := receiver.Setup(); err != nil {
		t.Fatalf("receiver Setup() error = %v", err)
	}

	sender, _ := newStandaloneNode(t, bus, 1)
	if err := sender.Setup(); err != nil {
		t.Fatalf("sender Setup() error = %v", err)
	}

	if err := sender.Publish("sensors/kitchen/temp", []byte("21.5")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	// The receive context queued the message; the processing context
	// must have been re-armed.
	select {
	case <-receiver.Wake():
	default:
		t.Fatal("Wake() not signalled after delivery")
	}

	if !receiver.Tick() {
		t.Fatal("Tick() = false with a queued message")
	}

	if gotTopic != "sensors/kitchen/temp" {
		t.Errorf("handler topic = %q, want %q", gotTopic, "sensors/kitchen/temp")
	}
	if string(gotPayload) != "21.5" {
		t.Errorf("handler payload = %q, want %q", gotPayload, "21.5")
	}

	d := receiver.Describe()
	if d.Received != 1 {
		t.Errorf("Received = %d, want 1", d.Received)
	}
	if d.LastRSSI != -42 {
		t.Errorf("LastRSSI = %d, want -42", d.LastRSSI)
	}
	if d.Sent != 0 {
		t.Errorf("receiver Sent = %d, want 0", d.Sent)
	}
}

func TestNodesOnDifferentChannelsDoNotHearEachOther(t *testing.T) {
	bus := memradio.NewBus()

	receiver := bus.Join(testAddr(2))
	node, err := New(Config{Channel: 11, Standalone: true}, receiver, receiver)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	node.Subscribe("#", func(string, []byte) { t.Error("handler invoked across channels") })
	if err := node.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	sender, _ := newStandaloneNode(t, bus, 1) // channel 6
	if err := sender.Setup(); err != nil {
		t.Fatalf("sender Setup() error = %v", err)
	}

	if err := sender.Publish("foo", []byte("x")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	node.Tick()

	if d := node.Describe(); d.Received != 0 {
		t.Errorf("Received = %d, want 0", d.Received)
	}
}

// =============================================================================
// Malformed frames
// =============================================================================

func TestMalformedFrameDropped(t *testing.T) {
	bus := memradio.NewBus()
	node, _ := newStandaloneNode(t, bus, 1)
	node.Subscribe("#", func(string, []byte) { t.Error("handler invoked for malformed frame") })
	if err := node.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	src := testAddr(9)
	node.handleReceive(src, -40, []byte("no-separator-here"))
	node.handleReceive(src, -40, []byte("topic\x00")) // empty payload region
	node.handleReceive(src, -40, nil)

	if got := node.queue.Len(); got != 0 {
		t.Errorf("queue length = %d, want 0 after malformed frames", got)
	}

	node.Tick()
	if d := node.Describe(); d.Received != 0 {
		t.Errorf("Received = %d, want 0", d.Received)
	}
}

// =============================================================================
// Queue overflow via the node
// =============================================================================

func TestOverflowRecordsWarningStatus(t *testing.T) {
	bus := memradio.NewBus()

	receiver, _ := newStandaloneNode(t, bus, 2)
	count := 0
	receiver.Subscribe("burst/#", func(string, []byte) { count++ })
	if err := receiver.Setup(); err != nil {
		t.Fatalf("receiver Setup() error = %v", err)
	}

	sender, _ := newStandaloneNode(t, bus, 1)
	if err := sender.Setup(); err != nil {
		t.Fatalf("sender Setup() error = %v", err)
	}

	// 20 messages without a tick in between: 4 oldest are evicted.
	for i := 0; i < 20; i++ {
		if err := sender.Publish(fmt.Sprintf("burst/%d", i), []byte("x")); err != nil {
			t.Fatalf("Publish(%d) error = %v", i, err)
		}
	}

	receiver.Tick()

	if count != QueueCapacity {
		t.Errorf("handler invoked %d times, want %d", count, QueueCapacity)
	}
	d := receiver.Describe()
	if d.Received != QueueCapacity {
		t.Errorf("Received = %d, want %d", d.Received, QueueCapacity)
	}
	if d.QueueEvictions != 4 {
		t.Errorf("QueueEvictions = %d, want 4", d.QueueEvictions)
	}
	if !strings.Contains(d.LastStatus, "queue full") {
		t.Errorf("LastStatus = %q, want queue-full warning", d.LastStatus)
	}
}

// =============================================================================
// Tick / telemetry deferral
// =============================================================================

func TestTickIdleWhenNothingPending(t *testing.T) {
	bus := memradio.NewBus()
	node, _ := newStandaloneNode(t, bus, 1)
	if err := node.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	// Binding left one telemetry update pending; drain it.
	for node.Tick() {
	}

	if node.Tick() {
		t.Error("Tick() = true with empty queue and no pending telemetry")
	}
}

func TestTelemetryPublishedOncePerCycle(t *testing.T) {
	bus := memradio.NewBus()

	receiver, _ := newStandaloneNode(t, bus, 2)
	receiver.Subscribe("#", func(string, []byte) {})
	sink := &fakeSink{}
	receiver.SetTelemetrySink(sink)
	if err := receiver.Setup(); err != nil {
		t.Fatalf("receiver Setup() error = %v", err)
	}
	for receiver.Tick() {
	}
	sinkCallsAfterSetup := sink.counterCalls

	sender, _ := newStandaloneNode(t, bus, 1)
	if err := sender.Setup(); err != nil {
		t.Fatalf("sender Setup() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := sender.Publish("a/b", []byte("x")); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	// First tick processes all five messages; telemetry is deferred.
	receiver.Tick()
	if sink.counterCalls != sinkCallsAfterSetup {
		t.Errorf("telemetry published during message processing cycle")
	}

	// Second tick publishes telemetry exactly once for the whole batch.
	receiver.Tick()
	if sink.counterCalls != sinkCallsAfterSetup+1 {
		t.Errorf("counter publications = %d, want %d", sink.counterCalls, sinkCallsAfterSetup+1)
	}
	if sink.lastReceived != 5 {
		t.Errorf("telemetry received count = %d, want 5", sink.lastReceived)
	}

	// Third tick: nothing left.
	if receiver.Tick() {
		t.Error("Tick() = true after telemetry flushed")
	}
}

// =============================================================================
// Describe
// =============================================================================

func TestDescribe(t *testing.T) {
	bus := memradio.NewBus()
	node, _ := newStandaloneNode(t, bus, 1)
	node.Subscribe("a/#", func(string, []byte) {})
	node.Subscribe("b/+/c", func(string, []byte) {})
	if err := node.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	d := node.Describe()
	if d.MACAddress != testAddr(1).String() {
		t.Errorf("MACAddress = %q, want %q", d.MACAddress, testAddr(1).String())
	}
	if d.State != StateReady {
		t.Errorf("State = %q, want %q", d.State, StateReady)
	}
	if d.ConfiguredChannel != 6 || d.ObservedChannel != 6 {
		t.Errorf("channels = %d/%d, want 6/6", d.ConfiguredChannel, d.ObservedChannel)
	}
	if !d.ChannelCompatible {
		t.Error("ChannelCompatible = false, want true")
	}
	if !d.TransportReady {
		t.Error("TransportReady = false, want true")
	}
	if d.PowerSave != "none" {
		t.Errorf("PowerSave = %q, want %q (subscriptions present)", d.PowerSave, "none")
	}
	if len(d.Subscriptions) != 2 || d.Subscriptions[0] != "a/#" || d.Subscriptions[1] != "b/+/c" {
		t.Errorf("Subscriptions = %v, want [a/# b/+/c]", d.Subscriptions)
	}
}
