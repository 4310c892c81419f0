// Package mqtt provides optional event fan-out for the GymLink relay.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing relayed events and bridge presence per tenant
//   - Last Will and Testament (LWT) for relay offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The websocket estate is the relay's primary transport; MQTT is a one-way
// mirror of its traffic for integrations that live outside it (digital
// signage, access control, analytics collectors). The relay only publishes,
// it never consumes from the broker.
//
//	bridges/admins ↔ GymLink relay → MQTT broker → external integrations
//
// Fan-out is best-effort: publish failures are logged by the caller and
// never affect websocket delivery.
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.PublishEvent("gym_42", rawEventJSON)
//	client.PublishPresence("gym_42", true)
package mqtt
