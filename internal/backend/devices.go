package backend

import (
	"context"
	"net/http"

	"github.com/homedeck/homedeck/internal/device"
)

// devicePayload is the backend's wire shape for a device.
type devicePayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	RoomID     string `json:"roomId,omitempty"`
	IsOn       bool   `json:"isOn"`
	Brightness int    `json:"brightness,omitempty"`
	TargetTemp int    `json:"targetTemp,omitempty"`
}

func (p devicePayload) toDevice() device.Device {
	d := device.Device{
		ID:         p.ID,
		Name:       p.Name,
		Type:       device.ParseType(p.Type),
		RoomID:     p.RoomID,
		On:         p.IsOn,
		Brightness: p.Brightness,
		TargetTemp: p.TargetTemp,
	}
	d.Refresh()
	return d
}

func toPayload(d device.Device) devicePayload {
	return devicePayload{
		ID:         d.ID,
		Name:       d.Name,
		Type:       string(d.Type),
		RoomID:     d.RoomID,
		IsOn:       d.On,
		Brightness: d.Brightness,
		TargetTemp: d.TargetTemp,
	}
}

// powerPayload carries a power command. Value is the device's
// pre-toggle state; the backend derives the new state from it.
type powerPayload struct {
	DeviceID string `json:"deviceId"`
	Value    bool   `json:"value"`
}

// propertyPayload carries a property update.
type propertyPayload struct {
	DeviceID string `json:"deviceId"`
	Field    string `json:"field"`
	Value    int    `json:"value"`
}

// ListDevices returns every device visible to the authenticated user.
func (c *Client) ListDevices(ctx context.Context) ([]device.Device, error) {
	var payload []devicePayload
	if err := c.do(ctx, http.MethodGet, "/api/devices", nil, nil, &payload, "Device"); err != nil {
		return nil, err
	}

	devices := make([]device.Device, 0, len(payload))
	for _, p := range payload {
		devices = append(devices, p.toDevice())
	}
	return devices, nil
}

// CreateDevice persists a new device.
func (c *Client) CreateDevice(ctx context.Context, d device.Device) (device.Device, error) {
	var created devicePayload
	if err := c.do(ctx, http.MethodPost, "/api/devices", nil, toPayload(d), &created, "Device"); err != nil {
		return device.Device{}, err
	}
	return created.toDevice(), nil
}

// SetPower sends a power command carrying the pre-toggle state.
func (c *Client) SetPower(ctx context.Context, id string, preToggleOn bool) error {
	body := powerPayload{DeviceID: id, Value: preToggleOn}
	return c.do(ctx, http.MethodPost, "/api/devices/"+id+"/power", nil, body, nil, "Device")
}

// UpdateProperty writes a brightness or setpoint value and returns the
// backend's updated device object.
func (c *Client) UpdateProperty(ctx context.Context, id, field string, value int) (device.Device, error) {
	body := propertyPayload{DeviceID: id, Field: field, Value: value}

	var updated devicePayload
	if err := c.do(ctx, http.MethodPut, "/api/devices/"+id+"/properties", nil, body, &updated, "Device"); err != nil {
		return device.Device{}, err
	}
	return updated.toDevice(), nil
}

// DeleteDevice removes a device.
func (c *Client) DeleteDevice(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/devices/"+id, nil, nil, nil, "Device")
}
