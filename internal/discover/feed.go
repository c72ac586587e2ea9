// Package discover drives the reel feed: filtering by location and category,
// voting, saving and staging reels for the next plan.
package discover

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"toria/internal/models"
	"toria/internal/tripapi"
)

// DefaultLimit caps a feed page.
const DefaultLimit = 20

// ErrSuperseded is returned when a refresh finished after the filter changed.
// Its result was discarded.
var ErrSuperseded = errors.New("superseded by a newer query")

// ErrUnknownReel is returned for actions on a reel that is not in the feed.
var ErrUnknownReel = errors.New("reel not in feed")

// Guard is the protected-action check.
type Guard interface {
	Require() (models.User, error)
}

// Reader is the cached reel query.
type Reader interface {
	Reels(ctx context.Context, filter models.ReelFilter) ([]models.Reel, error)
	InvalidateReels()
	InvalidateSaved(userID string)
}

// Actions are the reel mutations and analytics.
type Actions interface {
	UpvoteReel(ctx context.Context, reelID string) (*tripapi.Ack, error)
	SaveReel(ctx context.Context, reelID, userID string) (*tripapi.Ack, error)
	TrackEvent(ctx context.Context, name string, properties map[string]any)
}

// Stager receives reels added to the plan.
type Stager interface {
	Add(item models.PendingItem) bool
}

// Feed is the state of the discover screen.
type Feed struct {
	reader  Reader
	actions Actions
	guard   Guard
	pending Stager
	logger  zerolog.Logger

	mu     sync.Mutex
	filter models.ReelFilter
	epoch  uint64
	reels  []models.Reel

	// in-flight refreshes, counted for the epoch that issued them
	inflight      int
	inflightEpoch uint64
}

// New creates an empty feed.
func New(reader Reader, actions Actions, guard Guard, pending Stager, logger zerolog.Logger) *Feed {
	return &Feed{
		reader:  reader,
		actions: actions,
		guard:   guard,
		pending: pending,
		logger:  logger,
		filter:  models.ReelFilter{Limit: DefaultLimit},
	}
}

// SetLocation changes the location filter. Refreshes already in flight are
// discarded when they finish.
func (f *Feed) SetLocation(location string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.Location = strings.TrimSpace(location)
	f.epoch++
}

// SetCategory changes the category filter. An empty category shows all.
func (f *Feed) SetCategory(category models.Category) error {
	if category != "" && !category.Valid() {
		return fmt.Errorf("unknown category %q", category)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.Category = category
	f.epoch++
	return nil
}

// Filter returns the active filter.
func (f *Feed) Filter() models.ReelFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter
}

// Loading reports whether a refresh for the current filter is in flight.
func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inflight > 0 && f.inflightEpoch == f.epoch
}

// Refresh loads reels for the current filter. If the filter changes while
// the query is in flight its result is dropped and ErrSuperseded returned.
func (f *Feed) Refresh(ctx context.Context) error {
	f.mu.Lock()
	epoch := f.epoch
	filter := f.filter
	if f.inflightEpoch != epoch {
		f.inflightEpoch, f.inflight = epoch, 0
	}
	f.inflight++
	f.mu.Unlock()

	reels, err := f.reader.Reels(ctx, filter)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inflightEpoch == epoch && f.inflight > 0 {
		f.inflight--
	}
	if epoch != f.epoch {
		f.logger.Debug().Str("location", filter.Location).Msg("dropping stale reel results")
		return ErrSuperseded
	}
	if err != nil {
		return err
	}
	f.reels = reels
	return nil
}

// Reels returns the reels shown for the current filter.
func (f *Feed) Reels() []models.Reel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.reels)
}

// View records that a reel was opened.
func (f *Feed) View(ctx context.Context, reelID string) (models.Reel, error) {
	reel, err := f.find(reelID)
	if err != nil {
		return models.Reel{}, err
	}
	f.actions.TrackEvent(ctx, "reel_viewed", map[string]any{"reel_id": reel.ID, "location": reel.Location})
	return reel, nil
}

// Upvote upvotes a reel. Counts are refreshed by re-fetching.
func (f *Feed) Upvote(ctx context.Context, reelID string) error {
	user, err := f.guard.Require()
	if err != nil {
		return err
	}
	if _, err := f.find(reelID); err != nil {
		return err
	}
	if _, err := f.actions.UpvoteReel(ctx, reelID); err != nil {
		return err
	}
	f.reader.InvalidateReels()
	f.actions.TrackEvent(ctx, "reel_upvoted", map[string]any{"reel_id": reelID, "user_id": user.ID})
	return nil
}

// Save saves a reel to the user's collection.
func (f *Feed) Save(ctx context.Context, reelID string) error {
	user, err := f.guard.Require()
	if err != nil {
		return err
	}
	if _, err := f.find(reelID); err != nil {
		return err
	}
	if _, err := f.actions.SaveReel(ctx, reelID, user.ID); err != nil {
		return err
	}
	f.reader.InvalidateReels()
	f.reader.InvalidateSaved(user.ID)
	f.actions.TrackEvent(ctx, "reel_saved", map[string]any{"reel_id": reelID, "user_id": user.ID})
	return nil
}

// AddToPlan stages a reel as a pending item. It reports false when the reel
// was already staged.
func (f *Feed) AddToPlan(ctx context.Context, reelID string) (bool, error) {
	if _, err := f.guard.Require(); err != nil {
		return false, err
	}
	reel, err := f.find(reelID)
	if err != nil {
		return false, err
	}
	added := f.pending.Add(models.PendingItemFromReel(reel))
	if added {
		f.actions.TrackEvent(ctx, "reel_added_to_plan", map[string]any{"reel_id": reel.ID, "type": string(reel.Type)})
	}
	return added, nil
}

func (f *Feed) find(reelID string) (models.Reel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reels {
		if r.ID == reelID {
			return r, nil
		}
	}
	return models.Reel{}, fmt.Errorf("%w: %s", ErrUnknownReel, reelID)
}
