package bridge

import (
	"fmt"
	"strings"
)

// Broker-side topic directions under the configured prefix.
//
// Mesh traffic republished to the broker lives under <prefix>/rx/, and
// broker traffic destined for the mesh under <prefix>/tx/. Keeping the
// two directions disjoint means a republished message can never match
// the outbound subscription and loop back onto the air.
const (
	directionInbound  = "rx" // mesh -> broker
	directionOutbound = "tx" // broker -> mesh
)

// Topics builds broker topic names for one bridge prefix.
//
//	topics := bridge.Topics{Prefix: "radiomesh"}
//	topics.Inbound("sensors/kitchen/temp")
//	// Returns: "radiomesh/rx/sensors/kitchen/temp"
type Topics struct {
	Prefix string
}

// Inbound returns the broker topic a mesh message is republished to.
//
// Example: radiomesh/rx/sensors/kitchen/temp
func (t Topics) Inbound(meshTopic string) string {
	return fmt.Sprintf("%s/%s/%s", t.Prefix, directionInbound, meshTopic)
}

// OutboundPattern returns the wildcard pattern the bridge subscribes to
// for broker-originated mesh traffic.
//
// Pattern: radiomesh/tx/#
func (t Topics) OutboundPattern() string {
	return fmt.Sprintf("%s/%s/#", t.Prefix, directionOutbound)
}

// MeshTopic extracts the mesh topic from a broker-side outbound topic.
// It reports false for topics outside the outbound namespace or with an
// empty remainder.
//
// Example: radiomesh/tx/actuators/valve -> "actuators/valve", true
func (t Topics) MeshTopic(brokerTopic string) (string, bool) {
	prefix := t.Prefix + "/" + directionOutbound + "/"
	meshTopic, found := strings.CutPrefix(brokerTopic, prefix)
	if !found || meshTopic == "" {
		return "", false
	}
	return meshTopic, true
}

// Status returns the bridge status topic carrying online/offline
// payloads and the LWT.
//
// Example: radiomesh/bridge/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/bridge/status", t.Prefix)
}
