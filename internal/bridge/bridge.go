package bridge

import (
	"fmt"

	"github.com/nerrad567/radiomesh/internal/pubsub"
)

// BrokerClient is the broker side the bridge publishes and subscribes
// through. Implemented by *Client.
type BrokerClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler MessageHandler) error
}

// MeshPublisher is the mesh side the bridge publishes through.
// Implemented by *pubsub.Node.
type MeshPublisher interface {
	Publish(topic string, payload []byte) error
}

// Bridge relays messages between the radio mesh and an MQTT broker.
//
// Direction and topic mapping:
//   - mesh -> broker: republished under <prefix>/rx/<mesh topic>
//   - broker -> mesh: <prefix>/tx/<mesh topic> is sent on the air as
//     <mesh topic>
//
// The two namespaces are disjoint, so relayed traffic cannot loop.
type Bridge struct {
	client BrokerClient
	mesh   MeshPublisher
	topics Topics
	qos    byte
	logger Logger
}

// noopLogger is the default logger; it discards everything.
type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// New creates a bridge between a broker client and a mesh node.
//
// Parameters:
//   - client: connected broker client
//   - mesh: mesh node to publish broker-originated messages on
//   - prefix: broker-side topic prefix (e.g. "radiomesh")
//   - qos: QoS for broker publishes and the outbound subscription
func New(client BrokerClient, mesh MeshPublisher, prefix string, qos byte) *Bridge {
	return &Bridge{
		client: client,
		mesh:   mesh,
		topics: Topics{Prefix: prefix},
		qos:    qos,
		logger: noopLogger{},
	}
}

// SetBridgeLogger sets the bridge's logger. Call before Start.
func (b *Bridge) SetBridgeLogger(logger Logger) {
	b.logger = logger
}

// MeshHandler returns the handler that republishes mesh messages to the
// broker. Register it on the node for every mesh subscription that
// should be visible broker-side:
//
//	node.Subscribe("sensors/#", bridge.MeshHandler())
//
// It runs in the node's processing context; broker publish failures are
// logged and dropped, never propagated back into dispatch.
func (b *Bridge) MeshHandler() pubsub.MessageHandler {
	return func(topic string, payload []byte) {
		brokerTopic := b.topics.Inbound(topic)
		if err := b.client.Publish(brokerTopic, payload, b.qos, false); err != nil {
			b.logger.Warn("failed to republish mesh message to broker",
				"mesh_topic", topic,
				"broker_topic", brokerTopic,
				"error", err,
			)
		}
	}
}

// Start subscribes to the broker's outbound namespace so broker clients
// can transmit onto the mesh. Call after the mesh node is set up.
//
// Returns:
//   - error: if the broker subscription fails
func (b *Bridge) Start() error {
	pattern := b.topics.OutboundPattern()
	if err := b.client.Subscribe(pattern, b.qos, b.handleBrokerMessage); err != nil {
		return fmt.Errorf("subscribing to outbound namespace %q: %w", pattern, err)
	}
	return nil
}

// handleBrokerMessage relays one broker message onto the mesh.
func (b *Bridge) handleBrokerMessage(brokerTopic string, payload []byte) error {
	meshTopic, ok := b.topics.MeshTopic(brokerTopic)
	if !ok {
		// Not ours; the wildcard cannot match foreign topics, but a
		// misconfigured shared prefix could.
		b.logger.Warn("ignoring broker message outside outbound namespace", "topic", brokerTopic)
		return nil
	}

	if err := b.mesh.Publish(meshTopic, payload); err != nil {
		return fmt.Errorf("relaying %q to mesh: %w", meshTopic, err)
	}
	return nil
}
