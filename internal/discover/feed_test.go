package discover

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"toria/internal/models"
	"toria/internal/pending"
	"toria/internal/session"
	"toria/internal/tripapi"
)

type blockingReader struct {
	mu          sync.Mutex
	gates       map[string]chan struct{}
	started     chan string
	invalidated int
}

func newBlockingReader() *blockingReader {
	return &blockingReader{started: make(chan string, 8)}
}

func (b *blockingReader) gate(location string) chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gates == nil {
		b.gates = map[string]chan struct{}{}
	}
	g, ok := b.gates[location]
	if !ok {
		g = make(chan struct{})
		b.gates[location] = g
	}
	return g
}

func (b *blockingReader) Reels(ctx context.Context, filter models.ReelFilter) ([]models.Reel, error) {
	b.started <- filter.Location
	select {
	case <-b.gate(filter.Location):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []models.Reel{{ID: filter.Location + "-1", Location: filter.Location, Type: models.CategoryFood}}, nil
}

func (b *blockingReader) InvalidateReels() {
	b.mu.Lock()
	b.invalidated++
	b.mu.Unlock()
}

func (b *blockingReader) InvalidateSaved(string) {}

type stubActions struct {
	mu        sync.Mutex
	upvotes   []string
	saves     []string
	events    []string
	upvoteErr error
}

func (s *stubActions) UpvoteReel(_ context.Context, id string) (*tripapi.Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upvoteErr != nil {
		return nil, s.upvoteErr
	}
	s.upvotes = append(s.upvotes, id)
	return &tripapi.Ack{}, nil
}

func (s *stubActions) SaveReel(_ context.Context, id, user string) (*tripapi.Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, id+"/"+user)
	return &tripapi.Ack{}, nil
}

func (s *stubActions) TrackEvent(_ context.Context, name string, _ map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, name)
}

type guard struct{ user *models.User }

func (g guard) Require() (models.User, error) {
	if g.user == nil {
		return models.User{}, session.ErrNotAuthenticated
	}
	return *g.user, nil
}

func TestStaleLocationDiscarded(t *testing.T) {
	reader := newBlockingReader()
	feed := New(reader, &stubActions{}, guard{}, pending.New(), zerolog.Nop())
	ctx := context.Background()

	feed.SetLocation("Delhi")
	delhiDone := make(chan error, 1)
	go func() { delhiDone <- feed.Refresh(ctx) }()
	if got := <-reader.started; got != "Delhi" {
		t.Fatalf("expected Delhi query first, got %s", got)
	}

	feed.SetLocation("Mumbai")
	mumbaiDone := make(chan error, 1)
	go func() { mumbaiDone <- feed.Refresh(ctx) }()
	<-reader.started

	close(reader.gate("Mumbai"))
	if err := <-mumbaiDone; err != nil {
		t.Fatalf("Mumbai refresh: %v", err)
	}

	close(reader.gate("Delhi"))
	if err := <-delhiDone; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected Delhi refresh to be superseded, got %v", err)
	}

	reels := feed.Reels()
	if len(reels) != 1 || reels[0].Location != "Mumbai" {
		t.Fatalf("expected Mumbai results only, got %#v", reels)
	}
}

func TestStaleResultNeverShownBeforeNewOne(t *testing.T) {
	reader := newBlockingReader()
	feed := New(reader, &stubActions{}, guard{}, pending.New(), zerolog.Nop())
	ctx := context.Background()

	feed.SetLocation("Delhi")
	done := make(chan error, 1)
	go func() { done <- feed.Refresh(ctx) }()
	<-reader.started

	feed.SetLocation("Mumbai")
	close(reader.gate("Delhi"))
	<-done

	if got := feed.Reels(); len(got) != 0 {
		t.Fatalf("stale Delhi data applied: %#v", got)
	}
}

func TestLoadingFollowsCurrentFilter(t *testing.T) {
	reader := newBlockingReader()
	feed := New(reader, &stubActions{}, guard{}, pending.New(), zerolog.Nop())
	ctx := context.Background()

	feed.SetLocation("Delhi")
	done := make(chan error, 1)
	go func() { done <- feed.Refresh(ctx) }()
	<-reader.started

	if !feed.Loading() {
		t.Fatalf("expected Loading while the Delhi query is in flight")
	}

	feed.SetLocation("Mumbai")
	if feed.Loading() {
		t.Fatalf("nothing is in flight for Mumbai")
	}

	close(reader.gate("Delhi"))
	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if feed.Loading() {
		t.Fatalf("superseded refresh left Loading set")
	}

	close(reader.gate("Mumbai"))
	if err := feed.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	<-reader.started
	if feed.Loading() {
		t.Fatalf("Loading after a completed refresh")
	}
}

func loadedFeed(t *testing.T, g Guard, actions *stubActions, stage *pending.Store) (*Feed, *blockingReader) {
	t.Helper()
	reader := newBlockingReader()
	feed := New(reader, actions, g, stage, zerolog.Nop())
	feed.SetLocation("Goa")
	close(reader.gate("Goa"))
	if err := feed.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return feed, reader
}

func TestProtectedActionsRequireSession(t *testing.T) {
	actions := &stubActions{}
	feed, _ := loadedFeed(t, guard{}, actions, pending.New())
	ctx := context.Background()

	if err := feed.Upvote(ctx, "Goa-1"); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("Upvote: expected ErrNotAuthenticated, got %v", err)
	}
	if err := feed.Save(ctx, "Goa-1"); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("Save: expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := feed.AddToPlan(ctx, "Goa-1"); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("AddToPlan: expected ErrNotAuthenticated, got %v", err)
	}
	if len(actions.upvotes)+len(actions.saves) != 0 {
		t.Fatalf("no request may be issued without a session")
	}
}

func TestUpvoteSaveAndStage(t *testing.T) {
	actions := &stubActions{}
	stage := pending.New()
	feed, reader := loadedFeed(t, guard{user: &models.User{ID: "u1"}}, actions, stage)
	ctx := context.Background()

	if err := feed.Upvote(ctx, "Goa-1"); err != nil {
		t.Fatalf("Upvote: %v", err)
	}
	if err := feed.Save(ctx, "Goa-1"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(actions.saves) != 1 || actions.saves[0] != "Goa-1/u1" {
		t.Fatalf("unexpected saves %v", actions.saves)
	}
	if reader.invalidated != 2 {
		t.Fatalf("expected reel cache invalidated twice, got %d", reader.invalidated)
	}

	for i, want := range []bool{true, false} {
		added, err := feed.AddToPlan(ctx, "Goa-1")
		if err != nil || added != want {
			t.Fatalf("AddToPlan #%d: added=%v err=%v", i+1, added, err)
		}
	}
	if stage.Len() != 1 {
		t.Fatalf("expected one pending item, got %d", stage.Len())
	}

	if _, err := feed.AddToPlan(ctx, "nope"); !errors.Is(err, ErrUnknownReel) {
		t.Fatalf("expected ErrUnknownReel, got %v", err)
	}
}

func TestUpvoteFailureNotRetried(t *testing.T) {
	actions := &stubActions{upvoteErr: errors.New("boom")}
	feed, reader := loadedFeed(t, guard{user: &models.User{ID: "u1"}}, actions, pending.New())

	if err := feed.Upvote(context.Background(), "Goa-1"); err == nil {
		t.Fatalf("expected error")
	}
	if reader.invalidated != 0 {
		t.Fatalf("failed upvote must not invalidate")
	}
	for _, e := range actions.events {
		if e == "reel_upvoted" {
			t.Fatalf("failed upvote must not be tracked")
		}
	}
}
