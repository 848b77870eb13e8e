// Package bridge relays messages between the radio mesh and an MQTT
// broker over paho.mqtt.golang.
//
// # Topic mapping
//
// All broker-side topics live under one configurable prefix, split into
// two disjoint namespaces:
//
//	<prefix>/rx/<mesh topic>   mesh -> broker (republished receptions)
//	<prefix>/tx/<mesh topic>   broker -> mesh (transmit requests)
//	<prefix>/bridge/status     bridge online/offline status + LWT
//
// A mesh message republished under rx/ can never match the tx/#
// subscription, so relayed traffic cannot loop back onto the air.
//
// # Usage
//
//	client, err := bridge.Connect(cfg.Bridge, cfg.Node.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	br := bridge.New(client, node, cfg.Bridge.TopicPrefix, byte(cfg.Bridge.QoS))
//	node.Subscribe("#", br.MeshHandler()) // before node.Setup()
//	if err := br.Start(); err != nil {    // after node.Setup()
//	    return err
//	}
//
// # Thread Safety
//
// All client methods are safe for concurrent use. Broker subscriptions
// are restored automatically on reconnect.
package bridge
