package backend

import (
	"context"
	"net/http"
)

// User is the backend's account record, keyed by the identity
// provider's subject ID.
type User struct {
	ClerkID   string `json:"clerkId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// GetUser fetches the account for an identity-provider subject.
func (c *Client) GetUser(ctx context.Context, clerkID string) (User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+clerkID, nil, nil, &u, "User"); err != nil {
		return User{}, err
	}
	return u, nil
}

// CreateUser registers a new account.
func (c *Client) CreateUser(ctx context.Context, u User) (User, error) {
	var created User
	if err := c.do(ctx, http.MethodPost, "/api/users", nil, u, &created, "User"); err != nil {
		return User{}, err
	}
	return created, nil
}

// UpdateUser updates the account's profile fields.
func (c *Client) UpdateUser(ctx context.Context, u User) (User, error) {
	var updated User
	if err := c.do(ctx, http.MethodPut, "/api/users/"+u.ClerkID, nil, u, &updated, "User"); err != nil {
		return User{}, err
	}
	return updated, nil
}
