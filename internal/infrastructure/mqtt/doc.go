// Package mqtt provides the MQTT client used by the smart house daemon.
//
// Sensors publish readings and clients publish actuator commands to the
// broker; the daemon subscribes to both, persists them, and publishes the
// resulting actuator state as a retained message:
//
//	sensors/clients → broker → smarthouse daemon → SQLite
//	                         ← retained actuator state
//
// The client reconnects automatically, restores its subscriptions, and
// announces itself on {prefix}/system/status with a retained online
// message. A Last Will marks it offline if it disappears.
//
// Set cfg.Broker.TLS for any broker reachable beyond localhost.
package mqtt
