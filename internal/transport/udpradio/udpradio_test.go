package udpradio

import (
	"bytes"
	"net"
	"testing"
)

func TestPortFor(t *testing.T) {
	tests := []struct {
		portBase int
		channel  int
		want     int
	}{
		{17000, 1, 17001},
		{17000, 14, 17014},
		{40000, 6, 40006},
	}
	for _, tt := range tests {
		if got := portFor(tt.portBase, tt.channel); got != tt.want {
			t.Errorf("portFor(%d, %d) = %d, want %d", tt.portBase, tt.channel, got, tt.want)
		}
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	src := net.HardwareAddr{0x02, 0x11, 0x22, 0x33, 0x44, 0x55}
	frame := []byte("topic\x00payload")

	datagram := encodeHeader(src, frame)
	if len(datagram) != headerSize+len(frame) {
		t.Fatalf("datagram length = %d, want %d", len(datagram), headerSize+len(frame))
	}

	gotSrc, gotFrame, ok := decodeHeader(datagram)
	if !ok {
		t.Fatal("decodeHeader() rejected a well-formed datagram")
	}
	if gotSrc.String() != src.String() {
		t.Errorf("source = %v, want %v", gotSrc, src)
	}
	if !bytes.Equal(gotFrame, frame) {
		t.Errorf("frame = %q, want %q", gotFrame, frame)
	}
}

func TestDecodeHeaderRejectsForeignDatagrams(t *testing.T) {
	tests := []struct {
		name     string
		datagram []byte
	}{
		{"empty", nil},
		{"too short", []byte{magic[0], magic[1], 0x02}},
		{"wrong magic", []byte("XXaabbccddee-frame")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, ok := decodeHeader(tt.datagram); ok {
				t.Errorf("decodeHeader(%q) = ok, want rejection", tt.datagram)
			}
		})
	}
}

func TestDecodeHeaderEmptyFrame(t *testing.T) {
	// Header with no frame bytes is structurally valid; the overlay's
	// frame decoding rejects it later.
	src := net.HardwareAddr{0x02, 0, 0, 0, 0, 1}
	_, frame, ok := decodeHeader(encodeHeader(src, nil))
	if !ok {
		t.Fatal("decodeHeader() rejected a header-only datagram")
	}
	if len(frame) != 0 {
		t.Errorf("frame length = %d, want 0", len(frame))
	}
}

func TestNewDefaults(t *testing.T) {
	r, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if r.portBase != DefaultPortBase {
		t.Errorf("portBase = %d, want %d", r.portBase, DefaultPortBase)
	}
	addr, err := r.HardwareAddr()
	if err != nil {
		t.Fatalf("HardwareAddr() error = %v", err)
	}
	if len(addr) != 6 {
		t.Errorf("hardware address length = %d, want 6", len(addr))
	}
}

func TestNewRejectsBadBroadcastAddr(t *testing.T) {
	if _, err := New(Config{BroadcastAddr: "not-an-ip"}); err == nil {
		t.Error("New() error = nil for invalid broadcast address")
	}
}
