// Package mqtt provides MQTT client connectivity for the IoTzy bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is the bridge's message bus towards the rest of the home-automation
// installation: derived sensor signals (presence, brightness) and lamp
// commands go out, temperature readings come in.
//
//	camera → IoTzy bridge → MQTT broker → lamps / dashboards / automations
//
// Broker address, TLS and credentials are read from the runtime settings
// store when the connection is established; a settings change to these
// fields takes effect on the next process start.
//
// # Usage
//
//	client, err := mqtt.Connect(mqtt.Options{
//	    Host: "broker.hivemq.com", Port: 1883, ClientID: "iotzy-bridge",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe("iotzy/sensor/temperature", 0, handleTemperature)
package mqtt
