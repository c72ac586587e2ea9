package tripapi

import (
	"context"
	"net/http"

	"toria/internal/models"
)

// Health returns the backend banner.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.doRequest(ctx, "health", http.MethodGet, "/", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CreateUser registers the traveller's profile with the backend.
func (c *Client) CreateUser(ctx context.Context, user models.BackendUser) (*models.BackendUser, error) {
	if user.Preferences == nil {
		user.Preferences = map[string]any{}
	}

	var created models.BackendUser
	if err := c.doRequest(ctx, "create user", http.MethodPost, "/users", nil, user, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetUser fetches a backend profile.
func (c *Client) GetUser(ctx context.Context, userID string) (*models.BackendUser, error) {
	if err := requireID("get user", "user_id", userID); err != nil {
		return nil, err
	}

	var user models.BackendUser
	if err := c.doRequest(ctx, "get user", http.MethodGet, "/users/"+pathID(userID), nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RegisterUser creates the backend profile for a freshly signed-up user.
func (c *Client) RegisterUser(ctx context.Context, user models.User) error {
	_, err := c.CreateUser(ctx, models.BackendUser{
		ID:             user.ID,
		Email:          user.Email,
		DisplayName:    user.DisplayName,
		ProfilePicture: user.AvatarURL,
	})
	return err
}
