package backend

import (
	"context"
	"net/http"
)

// Home groups rooms under a single household.
type Home struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId,omitempty"`
}

// ListHomes returns the homes owned by the authenticated user.
func (c *Client) ListHomes(ctx context.Context) ([]Home, error) {
	var homes []Home
	if err := c.do(ctx, http.MethodGet, "/api/homes", nil, nil, &homes, "Home"); err != nil {
		return nil, err
	}
	return homes, nil
}

// CreateHome registers a new home.
func (c *Client) CreateHome(ctx context.Context, name string) (Home, error) {
	var created Home
	if err := c.do(ctx, http.MethodPost, "/api/homes", nil, Home{Name: name}, &created, "Home"); err != nil {
		return Home{}, err
	}
	return created, nil
}
