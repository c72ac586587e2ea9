package tripapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"toria/internal/apperr"
	"toria/internal/models"
)

// ListReels returns reels matching the filter.
func (c *Client) ListReels(ctx context.Context, filter models.ReelFilter) ([]models.Reel, error) {
	params := url.Values{}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		params.Set("location", loc)
	}
	if filter.Category != "" {
		params.Set("type", string(filter.Category))
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}

	var reels []models.Reel
	if err := c.doRequest(ctx, "list reels", http.MethodGet, "/reels", params, nil, &reels); err != nil {
		return nil, err
	}
	if reels == nil {
		reels = []models.Reel{}
	}
	return reels, nil
}

// CreateReel shares a new reel.
func (c *Client) CreateReel(ctx context.Context, reel NewReel) (*models.Reel, error) {
	fields := map[string]string{}
	if strings.TrimSpace(reel.InstagramURL) == "" {
		fields["instagram_url"] = "is required"
	}
	if strings.TrimSpace(reel.Title) == "" {
		fields["title"] = "is required"
	}
	if strings.TrimSpace(reel.Location) == "" {
		fields["location"] = "is required"
	}
	if !reel.Type.Valid() {
		fields["type"] = "must be Food or Place"
	}
	if len(fields) > 0 {
		return nil, fmt.Errorf("create reel: %w", apperr.NewValidation(fields))
	}
	if reel.Tags == nil {
		reel.Tags = []string{}
	}

	var created models.Reel
	if err := c.doRequest(ctx, "create reel", http.MethodPost, "/reels", nil, reel, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpvoteReel records an upvote. It is never retried by the client.
func (c *Client) UpvoteReel(ctx context.Context, reelID string) (*Ack, error) {
	if err := requireID("upvote reel", "reel_id", reelID); err != nil {
		return nil, err
	}

	var ack Ack
	if err := c.doRequest(ctx, "upvote reel", http.MethodPost, "/reels/"+pathID(reelID)+"/upvote", nil, nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// SaveReel bookmarks a reel for a user. It is never retried by the client.
func (c *Client) SaveReel(ctx context.Context, reelID, userID string) (*Ack, error) {
	if err := requireID("save reel", "reel_id", reelID); err != nil {
		return nil, err
	}
	if err := requireID("save reel", "user_id", userID); err != nil {
		return nil, err
	}

	params := url.Values{"user_id": []string{userID}}
	var ack Ack
	if err := c.doRequest(ctx, "save reel", http.MethodPost, "/reels/"+pathID(reelID)+"/save", params, nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// SavedReels returns the reels a user has saved.
func (c *Client) SavedReels(ctx context.Context, userID string) ([]models.Reel, error) {
	if err := requireID("saved reels", "user_id", userID); err != nil {
		return nil, err
	}

	var reels []models.Reel
	if err := c.doRequest(ctx, "saved reels", http.MethodGet, "/saved-reels/"+pathID(userID), nil, nil, &reels); err != nil {
		return nil, err
	}
	if reels == nil {
		reels = []models.Reel{}
	}
	return reels, nil
}
