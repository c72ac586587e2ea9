package tripapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"toria/internal/apperr"
	"toria/internal/models"
)

// PlanMyTrip requests a full AI recommendation.
func (c *Client) PlanMyTrip(ctx context.Context, req TripPlanRequest) (*Recommendation, error) {
	var rec Recommendation
	if err := c.doRequest(ctx, "plan my trip", http.MethodPost, "/plan_my_trip", nil, req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// TopPlaces requests a build-your-day shortlist.
func (c *Client) TopPlaces(ctx context.Context, req TopPlacesRequest) (*Shortlist, error) {
	var list Shortlist
	if err := c.doRequest(ctx, "top places", http.MethodPost, "/top_places", nil, req, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateDayPlan stores a new plan. It is never retried by the client.
func (c *Client) CreateDayPlan(ctx context.Context, plan models.NewDayPlan) (*models.DayPlan, error) {
	if len(plan.Stops) == 0 {
		return nil, fmt.Errorf("create day plan: %w", apperr.NewValidation(map[string]string{"stops": "at least one stop is required"}))
	}
	if err := requireID("create day plan", "user_id", plan.UserID); err != nil {
		return nil, err
	}

	var created models.DayPlan
	if err := c.doRequest(ctx, "create day plan", http.MethodPost, "/day-plans", nil, plan, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListDayPlans returns a user's plans, optionally filtered by status.
func (c *Client) ListDayPlans(ctx context.Context, userID string, status models.PlanStatus) ([]models.DayPlan, error) {
	if err := requireID("list day plans", "user_id", userID); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("list day plans: %w", apperr.NewValidation(map[string]string{"status": "must be current, upcoming or past"}))
	}

	path := "/day-plans/" + pathID(userID)
	if status != "" {
		path += "/" + pathID(string(status))
	}

	var plans []models.DayPlan
	if err := c.doRequest(ctx, "list day plans", http.MethodGet, path, nil, nil, &plans); err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []models.DayPlan{}
	}
	return plans, nil
}

// UpdateDayPlanStatus moves a plan to a new status.
func (c *Client) UpdateDayPlanStatus(ctx context.Context, planID string, status models.PlanStatus) (*Ack, error) {
	if err := requireID("update day plan status", "plan_id", planID); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("update day plan status: %w", apperr.NewValidation(map[string]string{"status": "must be current, upcoming or past"}))
	}

	params := url.Values{"status": []string{string(status)}}
	var ack Ack
	if err := c.doRequest(ctx, "update day plan status", http.MethodPut, "/day-plans/"+pathID(planID)+"/status", params, nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}
