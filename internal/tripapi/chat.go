package tripapi

import (
	"context"
	"net/http"
)

// ChatFromStartMyDay talks to the travel buddy about the active day plan.
func (c *Client) ChatFromStartMyDay(ctx context.Context, userID, message, action string) (*ChatReply, error) {
	if err := requireID("chat start my day", "user_id", userID); err != nil {
		return nil, err
	}

	req := ChatRequest{UserID: userID, Message: message, Action: action}
	var reply ChatReply
	if err := c.doRequest(ctx, "chat start my day", http.MethodPost, "/chatbot_from_startmyday", nil, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ChatFromDayPlans talks about a saved itinerary. Without an itinerary ID the
// reply lists the itineraries to choose from.
func (c *Client) ChatFromDayPlans(ctx context.Context, userID, itineraryID, message string) (*ChatReply, error) {
	if err := requireID("chat day plans", "user_id", userID); err != nil {
		return nil, err
	}

	req := ChatRequest{UserID: userID, ItineraryID: itineraryID, Message: message}
	var reply ChatReply
	if err := c.doRequest(ctx, "chat day plans", http.MethodPost, "/chatbot_from_dayplans", nil, req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
