// Package library serves the cached read queries of the app: reels, a user's
// day plans and saved reels. Mutations made through it invalidate the
// affected keys.
package library

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"toria/internal/apperr"
	"toria/internal/models"
	"toria/internal/querycache"
	"toria/internal/tripapi"
)

// Backend is the subset of the API client the library reads through.
type Backend interface {
	ListReels(ctx context.Context, filter models.ReelFilter) ([]models.Reel, error)
	ListDayPlans(ctx context.Context, userID string, status models.PlanStatus) ([]models.DayPlan, error)
	SavedReels(ctx context.Context, userID string) ([]models.Reel, error)
	UpdateDayPlanStatus(ctx context.Context, planID string, status models.PlanStatus) (*tripapi.Ack, error)
}

// Library caches read queries for the cache's freshness window.
type Library struct {
	api   Backend
	cache *querycache.Cache
}

// New creates a Library over api and cache.
func New(api Backend, cache *querycache.Cache) *Library {
	return &Library{api: api, cache: cache}
}

// ReelsKey is the cache key of a reel query.
func ReelsKey(filter models.ReelFilter) string {
	return querycache.Key("reels", filter.Location, string(filter.Category), strconv.Itoa(filter.Limit))
}

func plansKey(userID string, status models.PlanStatus) string {
	return querycache.Key("plans", userID, string(status))
}

func savedKey(userID string) string {
	return querycache.Key("saved", userID)
}

// Reels returns reels matching filter.
func (l *Library) Reels(ctx context.Context, filter models.ReelFilter) ([]models.Reel, error) {
	reels, err := querycache.Fetch(ctx, l.cache, ReelsKey(filter), func(ctx context.Context) ([]models.Reel, error) {
		return l.api.ListReels(ctx, filter)
	})
	return slices.Clone(reels), err
}

// DayPlans returns the user's plans, optionally filtered by status.
func (l *Library) DayPlans(ctx context.Context, userID string, status models.PlanStatus) ([]models.DayPlan, error) {
	plans, err := querycache.Fetch(ctx, l.cache, plansKey(userID, status), func(ctx context.Context) ([]models.DayPlan, error) {
		return l.api.ListDayPlans(ctx, userID, status)
	})
	return slices.Clone(plans), err
}

// Plan returns one of the user's plans. A plan that no longer exists yields
// apperr.ErrNotFound.
func (l *Library) Plan(ctx context.Context, userID, planID string) (models.DayPlan, error) {
	plans, err := l.DayPlans(ctx, userID, "")
	if err != nil {
		return models.DayPlan{}, err
	}
	for _, p := range plans {
		if p.ID == planID {
			return p, nil
		}
	}
	return models.DayPlan{}, fmt.Errorf("day plan %q: %w", planID, apperr.ErrNotFound)
}

// SavedReels returns the reels the user saved.
func (l *Library) SavedReels(ctx context.Context, userID string) ([]models.Reel, error) {
	reels, err := querycache.Fetch(ctx, l.cache, savedKey(userID), func(ctx context.Context) ([]models.Reel, error) {
		return l.api.SavedReels(ctx, userID)
	})
	return slices.Clone(reels), err
}

// UpdateStatus changes a plan's status and invalidates the user's plans.
func (l *Library) UpdateStatus(ctx context.Context, userID, planID string, status models.PlanStatus) error {
	if _, err := l.api.UpdateDayPlanStatus(ctx, planID, status); err != nil {
		return err
	}
	l.InvalidatePlans(userID)
	return nil
}

// InvalidatePlans drops every cached plan query of the user.
func (l *Library) InvalidatePlans(userID string) {
	l.cache.InvalidatePrefix(querycache.Key("plans", userID) + "|")
}

// InvalidateSaved drops the user's saved reels.
func (l *Library) InvalidateSaved(userID string) {
	l.cache.Invalidate(savedKey(userID))
}

// InvalidateReels drops every cached reel query so vote and save counts are
// re-fetched.
func (l *Library) InvalidateReels() {
	l.cache.InvalidatePrefix("reels|")
}
