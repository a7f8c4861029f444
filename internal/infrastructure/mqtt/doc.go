// Package mqtt provides the optional backend push channel: a thin
// wrapper over paho.mqtt.golang that subscribes to per-device state
// topics and survives broker reconnects. Remote payloads are decoded
// and merged into the device store by the caller.
package mqtt
