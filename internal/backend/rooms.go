package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/homedeck/homedeck/internal/room"
)

// roomPayload is the backend's wire shape for a room.
type roomPayload struct {
	ID     string `json:"id"`
	HomeID string `json:"homeId,omitempty"`
	Name   string `json:"name"`
}

func (p roomPayload) toRoom() room.Room {
	return room.Room{ID: p.ID, Name: p.Name}
}

// ListRooms returns the rooms belonging to the home.
func (c *Client) ListRooms(ctx context.Context, homeID string) ([]room.Room, error) {
	query := url.Values{"homeId": {homeID}}

	var payload []roomPayload
	if err := c.do(ctx, http.MethodGet, "/api/rooms", query, nil, &payload, "Room"); err != nil {
		return nil, err
	}

	rooms := make([]room.Room, 0, len(payload))
	for _, p := range payload {
		rooms = append(rooms, p.toRoom())
	}
	return rooms, nil
}

// CreateRoom persists a new room in the home.
func (c *Client) CreateRoom(ctx context.Context, homeID, name string) (room.Room, error) {
	body := roomPayload{HomeID: homeID, Name: name}

	var created roomPayload
	if err := c.do(ctx, http.MethodPost, "/api/rooms", nil, body, &created, "Room"); err != nil {
		return room.Room{}, err
	}
	return created.toRoom(), nil
}

// UpdateRoom renames a room.
func (c *Client) UpdateRoom(ctx context.Context, id, name string) (room.Room, error) {
	body := roomPayload{Name: name}

	var updated roomPayload
	if err := c.do(ctx, http.MethodPut, "/api/rooms/"+id, nil, body, &updated, "Room"); err != nil {
		return room.Room{}, err
	}
	return updated.toRoom(), nil
}

// DeleteRoom removes a room; the backend cascades to contained devices.
func (c *Client) DeleteRoom(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/rooms/"+id, nil, nil, nil, "Room")
}
