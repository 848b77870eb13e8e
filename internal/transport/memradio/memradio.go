// Package memradio provides an in-process implementation of the transport
// interfaces: any number of radios joined to a shared Bus, delivering
// broadcast frames synchronously to every other ready radio tuned to the
// same channel.
//
// It exists for tests and loopback demos. Every driver and messenger
// failure can be injected per radio, so binding and error paths can be
// exercised without hardware.
package memradio

import (
	"net"
	"sync"

	"github.com/nerrad567/radiomesh/internal/transport"
)

// defaultRSSI is the signal strength reported for deliveries when the
// receiving radio has not been given one.
const defaultRSSI = -50

// Bus couples in-process radios on a shared broadcast medium.
type Bus struct {
	mu     sync.Mutex
	radios []*Radio
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Join creates a new radio on the bus with the given hardware address.
func (b *Bus) Join(addr net.HardwareAddr) *Radio {
	r := &Radio{
		bus:   b,
		addr:  append(net.HardwareAddr(nil), addr...),
		mode:  transport.ModeOff,
		rssi:  defaultRSSI,
		peers: make(map[string]int),
	}
	b.mu.Lock()
	b.radios = append(b.radios, r)
	b.mu.Unlock()
	return r
}

// deliver hands a frame to every other ready radio tuned to the sender's
// channel. Delivery is synchronous; receive callbacks run on the sender's
// goroutine, which is close enough to an interrupt context for tests.
func (b *Bus) deliver(from *Radio, channel int, frame []byte) {
	b.mu.Lock()
	radios := append([]*Radio(nil), b.radios...)
	b.mu.Unlock()

	for _, r := range radios {
		if r == from {
			continue
		}
		r.mu.Lock()
		fn := r.recv
		rssi := r.rssi
		tuned := r.ready && r.channel == channel
		r.mu.Unlock()
		if tuned && fn != nil {
			fn(from.addr, rssi, frame)
		}
	}
}

// Radio implements transport.Radio and transport.Messenger on a Bus.
//
// The zero value is not usable; create radios with Bus.Join.
type Radio struct {
	bus  *Bus
	addr net.HardwareAddr

	mu          sync.Mutex
	initialized bool
	started     bool
	mode        transport.Mode
	channel     int
	powerSave   transport.PowerSave
	ready       bool // messaging layer up (Reset succeeded)
	peers       map[string]int
	recv        transport.ReceiveFunc
	rssi        int

	// Call counters for assertions.
	resetCalls    int
	addPeerCalls  int
	registerCalls int

	// Injected failures, returned by the corresponding operation until
	// cleared. Reset clears nothing; tests manage these directly.
	InitErr         error
	StartErr        error
	SetModeErr      error
	SetChannelErr   error
	SetPowerSaveErr error
	ResetErr        error
	AddPeerErr      error
	SendErr         error
}

var (
	_ transport.Radio     = (*Radio)(nil)
	_ transport.Messenger = (*Radio)(nil)
)

// SetReportedRSSI sets the signal strength this radio reports for frames
// it receives.
func (r *Radio) SetReportedRSSI(rssi int) {
	r.mu.Lock()
	r.rssi = rssi
	r.mu.Unlock()
}

// Init implements transport.Radio.
func (r *Radio) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.InitErr != nil {
		return r.InitErr
	}
	if r.initialized {
		return transport.ErrAlreadyInitialized
	}
	r.initialized = true
	return nil
}

// Deinit implements transport.Radio.
func (r *Radio) Deinit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initialized = false
	r.started = false
	r.ready = false
	return nil
}

// Start implements transport.Radio.
func (r *Radio) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.StartErr != nil {
		return r.StartErr
	}
	r.started = true
	return nil
}

// Started implements transport.Radio.
func (r *Radio) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Mode implements transport.Radio.
func (r *Radio) Mode() (transport.Mode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode, nil
}

// SetMode implements transport.Radio.
func (r *Radio) SetMode(mode transport.Mode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SetModeErr != nil {
		return r.SetModeErr
	}
	r.mode = mode
	return nil
}

// Channel implements transport.Radio.
func (r *Radio) Channel() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channel, nil
}

// SetChannel implements transport.Radio.
func (r *Radio) SetChannel(channel int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SetChannelErr != nil {
		return r.SetChannelErr
	}
	r.channel = channel
	return nil
}

// PowerSave implements transport.Radio.
func (r *Radio) PowerSave() (transport.PowerSave, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.powerSave, nil
}

// SetPowerSave implements transport.Radio.
func (r *Radio) SetPowerSave(ps transport.PowerSave) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SetPowerSaveErr != nil {
		return r.SetPowerSaveErr
	}
	r.powerSave = ps
	return nil
}

// HardwareAddr implements transport.Radio.
func (r *Radio) HardwareAddr() (net.HardwareAddr, error) {
	return append(net.HardwareAddr(nil), r.addr...), nil
}

// Reset implements transport.Messenger. Peer and callback registrations
// do not survive, matching real driver semantics.
func (r *Radio) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetCalls++
	r.ready = false
	r.peers = make(map[string]int)
	r.recv = nil
	if r.ResetErr != nil {
		return r.ResetErr
	}
	r.ready = true
	return nil
}

// AddPeer implements transport.Messenger.
func (r *Radio) AddPeer(addr net.HardwareAddr, channel int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addPeerCalls++
	if !r.ready {
		return transport.ErrNotInitialized
	}
	if r.AddPeerErr != nil {
		return r.AddPeerErr
	}
	key := addr.String()
	if _, exists := r.peers[key]; exists {
		return transport.ErrPeerExists
	}
	r.peers[key] = channel
	return nil
}

// Send implements transport.Messenger.
func (r *Radio) Send(dst net.HardwareAddr, frame []byte) error {
	r.mu.Lock()
	if !r.ready {
		r.mu.Unlock()
		return transport.ErrNotInitialized
	}
	if r.SendErr != nil {
		err := r.SendErr
		r.mu.Unlock()
		return err
	}
	if len(frame) > transport.MaxFrameSize {
		r.mu.Unlock()
		return transport.ErrInvalidArgument
	}
	if _, exists := r.peers[dst.String()]; !exists {
		r.mu.Unlock()
		return transport.ErrPeerNotFound
	}
	channel := r.channel
	r.mu.Unlock()

	r.bus.deliver(r, channel, frame)
	return nil
}

// RegisterReceive implements transport.Messenger.
func (r *Radio) RegisterReceive(fn transport.ReceiveFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerCalls++
	if !r.ready {
		return transport.ErrNotInitialized
	}
	r.recv = fn
	return nil
}

// UnregisterReceive implements transport.Messenger.
func (r *Radio) UnregisterReceive() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recv = nil
	return nil
}

// ResetCalls returns how many times Reset has been invoked.
func (r *Radio) ResetCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetCalls
}

// PeerCount returns the number of registered peers.
func (r *Radio) PeerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// ReceiverInstalled reports whether a receive callback is registered.
func (r *Radio) ReceiverInstalled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recv != nil
}
