// Package messaging provides a broker-agnostic publish/consume abstraction.
//
// Business code depends on the Messaging interface; the concrete transport
// (NATS) lives behind it so modules can exchange events without knowing the
// broker.
package messaging
