package pubsub

import (
	"bytes"
	"fmt"
)

// frameSeparator splits topic from payload on the wire.
const frameSeparator = 0x00

// EncodeFrame serialises a message as topic bytes, a zero byte, then
// payload bytes. There is no length prefix; the receiver recovers the
// topic by scanning for the first zero byte.
func EncodeFrame(topic string, payload []byte) []byte {
	frame := make([]byte, 0, len(topic)+1+len(payload))
	frame = append(frame, topic...)
	frame = append(frame, frameSeparator)
	frame = append(frame, payload...)
	return frame
}

// DecodeFrame recovers topic and payload from a received frame.
//
// A frame is malformed when no separator appears before its final byte:
// that covers both a missing separator and an empty payload region.
// The returned payload aliases the frame; callers keeping it beyond the
// receive callback must copy it.
func DecodeFrame(frame []byte) (topic string, payload []byte, err error) {
	sep := bytes.IndexByte(frame, frameSeparator)
	if sep < 0 || sep >= len(frame)-1 {
		return "", nil, fmt.Errorf("%w: separator at %d, frame length %d", ErrMalformedFrame, sep, len(frame))
	}
	return string(frame[:sep]), frame[sep+1:], nil
}
