// Package influxdb is the optional telemetry sink: committed device
// state changes (power, brightness, setpoint) are queued as points in a
// single device_state measurement via the SDK's async batching API.
package influxdb
