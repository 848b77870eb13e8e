// Package udpradio implements the transport interfaces over UDP broadcast
// on a LAN segment.
//
// The radio channel maps onto a UDP port (base port + channel), so nodes
// on different channels genuinely cannot hear each other. Every datagram
// carries a small header with a magic marker and the sender's hardware
// address; the receive loop uses it to identify the source and to drop
// the node's own broadcasts, which the OS loops back.
//
// UDP reports no signal strength, so receive callbacks always see an RSSI
// of zero.
package udpradio

import (
	"crypto/rand"
	"fmt"
	"net"
	"sync"

	"github.com/nerrad567/radiomesh/internal/transport"
)

const (
	// DefaultPortBase is the UDP port for channel zero; channel n listens
	// on DefaultPortBase+n.
	DefaultPortBase = 17000

	// headerSize is the per-datagram overhead: two magic bytes followed
	// by the sender's six-byte hardware address.
	headerSize = 8
)

// magic marks datagrams belonging to this overlay; everything else on the
// port is ignored.
var magic = [2]byte{0x52, 0x4D}

// Config holds the UDP transport's tunables. The zero value is usable.
type Config struct {
	// PortBase is the UDP port for channel zero. Defaults to
	// DefaultPortBase.
	PortBase int

	// BroadcastAddr is the IPv4 address datagrams are sent to. Defaults
	// to the limited broadcast address 255.255.255.255.
	BroadcastAddr string
}

// Logger is the subset of logging the transport needs.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

// Radio implements transport.Radio and transport.Messenger over UDP
// broadcast. Create with New.
type Radio struct {
	portBase  int
	broadcast net.IP
	addr      net.HardwareAddr
	logger    Logger

	mu          sync.Mutex
	initialized bool
	started     bool
	mode        transport.Mode
	channel     int
	powerSave   transport.PowerSave
	conn        *net.UDPConn
	recv        transport.ReceiveFunc
	peers       map[string]int
	done        chan struct{}
	wg          sync.WaitGroup
}

var (
	_ transport.Radio     = (*Radio)(nil)
	_ transport.Messenger = (*Radio)(nil)
)

// New creates a UDP radio. The hardware identity is taken from the first
// non-loopback network interface; when none carries an address, a random
// locally-administered one is generated so that two processes on the same
// host remain distinguishable.
func New(cfg Config) (*Radio, error) {
	portBase := cfg.PortBase
	if portBase <= 0 {
		portBase = DefaultPortBase
	}

	broadcast := net.IPv4bcast
	if cfg.BroadcastAddr != "" {
		broadcast = net.ParseIP(cfg.BroadcastAddr)
		if broadcast == nil {
			return nil, fmt.Errorf("%w: invalid broadcast address %q", transport.ErrInvalidArgument, cfg.BroadcastAddr)
		}
	}

	addr, err := localHardwareAddr()
	if err != nil {
		return nil, fmt.Errorf("determining hardware address: %w", err)
	}

	return &Radio{
		portBase:  portBase,
		broadcast: broadcast,
		addr:      addr,
		logger:    noopLogger{},
		mode:      transport.ModeOff,
		peers:     make(map[string]int),
	}, nil
}

// SetLogger sets the transport's logger. Call before Reset.
func (r *Radio) SetLogger(logger Logger) {
	r.logger = logger
}

// localHardwareAddr returns the hardware address of the first up,
// non-loopback interface, falling back to a random locally-administered
// address.
func localHardwareAddr() (net.HardwareAddr, error) {
	ifaces, err := net.Interfaces()
	if err == nil {
		for _, iface := range ifaces {
			if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) != 6 {
				continue
			}
			return append(net.HardwareAddr(nil), iface.HardwareAddr...), nil
		}
	}

	addr := make(net.HardwareAddr, 6)
	if _, err := rand.Read(addr); err != nil {
		return nil, fmt.Errorf("generating fallback address: %w", err)
	}
	addr[0] = (addr[0] | 0x02) &^ 0x01 // locally administered, unicast
	return addr, nil
}

// portFor maps a radio channel onto its UDP port.
func portFor(portBase, channel int) int {
	return portBase + channel
}

// encodeHeader prepends the overlay header to a frame.
func encodeHeader(src net.HardwareAddr, frame []byte) []byte {
	buf := make([]byte, headerSize+len(frame))
	buf[0] = magic[0]
	buf[1] = magic[1]
	copy(buf[2:8], src)
	copy(buf[headerSize:], frame)
	return buf
}

// decodeHeader splits a datagram into source address and frame. It
// returns false for datagrams that do not carry the overlay header.
func decodeHeader(datagram []byte) (net.HardwareAddr, []byte, bool) {
	if len(datagram) < headerSize || datagram[0] != magic[0] || datagram[1] != magic[1] {
		return nil, nil, false
	}
	src := append(net.HardwareAddr(nil), datagram[2:8]...)
	return src, datagram[headerSize:], true
}

// =============================================================================
// transport.Radio
// =============================================================================

// Init implements transport.Radio.
func (r *Radio) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return transport.ErrAlreadyInitialized
	}
	r.initialized = true
	return nil
}

// Deinit implements transport.Radio. It also tears the socket down.
func (r *Radio) Deinit() error {
	r.mu.Lock()
	r.initialized = false
	r.started = false
	err := r.closeLocked()
	r.mu.Unlock()
	r.wg.Wait()
	return err
}

// Start implements transport.Radio. There is no upstream to associate
// with, so a started UDP radio always reports the benign not-connected
// condition once, mirroring a driver brought up without a network.
func (r *Radio) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return transport.ErrNotInitialized
	}
	if r.started {
		return nil
	}
	r.started = true
	return transport.ErrNotConnected
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
	r.mode = mode
	return nil
}

// Channel implements transport.Radio.
func (r *Radio) Channel() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channel, nil
}

// SetChannel implements transport.Radio. The channel takes effect at the
// next Reset, which binds the socket to the channel's port.
func (r *Radio) SetChannel(channel int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channel = channel
	return nil
}

// PowerSave implements transport.Radio. UDP has no power management; the
// policy is recorded for diagnostics only.
func (r *Radio) PowerSave() (transport.PowerSave, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.powerSave, nil
}

// SetPowerSave implements transport.Radio.
func (r *Radio) SetPowerSave(ps transport.PowerSave) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.powerSave = ps
	return nil
}

// HardwareAddr implements transport.Radio.
func (r *Radio) HardwareAddr() (net.HardwareAddr, error) {
	return append(net.HardwareAddr(nil), r.addr...), nil
}

// =============================================================================
// transport.Messenger
// =============================================================================

// Reset implements transport.Messenger: it closes any open socket,
// clears peer and callback registrations, binds a fresh socket to the
// current channel's port and restarts the receive loop.
func (r *Radio) Reset() error {
	r.mu.Lock()
	if err := r.closeLocked(); err != nil {
		r.logger.Warn("closing previous socket", "error", err)
	}
	r.peers = make(map[string]int)
	r.recv = nil
	port := portFor(r.portBase, r.channel)
	r.mu.Unlock()

	// Wait for the previous receive loop outside the lock; it may be
	// blocked delivering a frame.
	r.wg.Wait()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return fmt.Errorf("%w: binding udp port %d: %v", transport.ErrInternal, port, err)
	}

	r.mu.Lock()
	r.conn = conn
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	r.wg.Add(1)
	go r.readLoop(conn, done)
	return nil
}

// closeLocked closes the socket and signals the receive loop. Caller
// holds r.mu.
func (r *Radio) closeLocked() error {
	if r.conn == nil {
		return nil
	}
	close(r.done)
	err := r.conn.Close()
	r.conn = nil
	return err
}

// readLoop receives datagrams until the socket closes, validating the
// overlay header and handing frames to the registered callback. It is
// the transport's receive context.
func (r *Radio) readLoop(conn *net.UDPConn, done chan struct{}) {
	defer r.wg.Done()

	buf := make([]byte, headerSize+transport.MaxFrameSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-done:
				return
			default:
			}
			r.logger.Warn("udp read failed", "error", err)
			return
		}

		src, frame, ok := decodeHeader(buf[:n])
		if !ok {
			r.logger.Debug("ignoring foreign datagram", "bytes", n)
			continue
		}
		if src.String() == r.addr.String() {
			// Our own broadcast looped back by the OS.
			continue
		}

		r.mu.Lock()
		fn := r.recv
		r.mu.Unlock()
		if fn != nil {
			fn(src, 0, frame)
		}
	}
}

// AddPeer implements transport.Messenger. Broadcast is connectionless;
// the registration is bookkeeping that mirrors driver semantics.
func (r *Radio) AddPeer(addr net.HardwareAddr, channel int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return transport.ErrNotInitialized
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
	if len(frame) > transport.MaxFrameSize {
		return fmt.Errorf("%w: frame is %d bytes, limit %d", transport.ErrInvalidArgument, len(frame), transport.MaxFrameSize)
	}

	r.mu.Lock()
	conn := r.conn
	channel := r.channel
	_, registered := r.peers[dst.String()]
	r.mu.Unlock()

	if conn == nil {
		return transport.ErrNotInitialized
	}
	if !registered {
		return transport.ErrPeerNotFound
	}

	datagram := encodeHeader(r.addr, frame)
	target := &net.UDPAddr{IP: r.broadcast, Port: portFor(r.portBase, channel)}
	if _, err := conn.WriteToUDP(datagram, target); err != nil {
		return fmt.Errorf("%w: %v", transport.ErrInternal, err)
	}
	return nil
}

// RegisterReceive implements transport.Messenger.
func (r *Radio) RegisterReceive(fn transport.ReceiveFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
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
