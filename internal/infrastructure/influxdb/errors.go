package influxdb

import "errors"

// ErrConnectionFailed is returned when the InfluxDB server cannot be
// reached or reports an unhealthy status.
var ErrConnectionFailed = errors.New("influxdb connection failed")
