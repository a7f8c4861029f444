package influxdb

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/homedeck/homedeck/internal/infrastructure/config"
)

const healthTimeout = 5 * time.Second

// measurement is the single series device telemetry lands in.
const measurement = "device_state"

// Logger is the minimal logging surface the client needs.
type Logger interface {
	Error(msg string, args ...any)
}

// Client writes device state telemetry to InfluxDB. Writes go through
// the SDK's asynchronous batching API, so WriteDeviceMetric never
// blocks panel-facing paths.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	logger   Logger
}

// Connect creates the InfluxDB client and verifies the server is
// reachable.
//
// Parameters:
//   - cfg: InfluxDB configuration
//   - logger: Logger for async write failures
//
// Returns:
//   - *Client: Ready client
//   - error: If the health check fails
func Connect(cfg config.InfluxDBConfig, logger Logger) (*Client, error) {
	options := influxdb2.DefaultOptions().
		SetBatchSize(uint(cfg.BatchSize)).
		SetFlushInterval(uint(cfg.FlushInterval * 1000))

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, options)

	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("%w: status %s", ErrConnectionFailed, health.Status)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		logger:   logger,
	}

	go func() {
		for err := range c.writeAPI.Errors() {
			c.logger.Error("influxdb write failed", "error", err)
		}
	}()

	return c, nil
}

// WriteDeviceMetric queues one committed state change. It implements
// the device store's Telemetry interface.
func (c *Client) WriteDeviceMetric(deviceID, field string, value float64) {
	point := influxdb2.NewPoint(
		measurement,
		map[string]string{"device_id": deviceID, "field": field},
		map[string]any{"value": value},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// Close flushes buffered points and shuts the client down.
func (c *Client) Close() {
	c.writeAPI.Flush()
	c.client.Close()
}
