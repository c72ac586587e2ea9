package tripapi

import (
	"context"
	"net/http"
	"time"
)

// TrackEvent sends an analytics event. Failures are logged and swallowed.
func (c *Client) TrackEvent(ctx context.Context, name string, properties map[string]any) {
	if properties == nil {
		properties = map[string]any{}
	}
	event := analyticsEvent{
		Event:      name,
		Properties: properties,
		Timestamp:  c.now().UTC().Format(time.RFC3339),
	}

	if err := c.doRequest(ctx, "track event", http.MethodPost, "/analytics/track", nil, event, nil); err != nil {
		c.logger.Debug().Err(err).Str("event", name).Msg("analytics tracking failed")
	}
}

// RegisterPushToken registers a device for notifications.
func (c *Client) RegisterPushToken(ctx context.Context, userID, token string) (*Ack, error) {
	if err := requireID("register push token", "user_id", userID); err != nil {
		return nil, err
	}
	if err := requireID("register push token", "push_token", token); err != nil {
		return nil, err
	}

	var ack Ack
	if err := c.doRequest(ctx, "register push token", http.MethodPost, "/notifications/register", nil, pushRegistration{UserID: userID, PushToken: token}, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// UpdateNotificationPreferences replaces the user's notification switches.
func (c *Client) UpdateNotificationPreferences(ctx context.Context, userID string, prefs map[string]bool) (*Ack, error) {
	if err := requireID("update notification preferences", "user_id", userID); err != nil {
		return nil, err
	}

	var ack Ack
	if err := c.doRequest(ctx, "update notification preferences", http.MethodPut, "/notifications/preferences/"+pathID(userID), nil, prefs, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}
