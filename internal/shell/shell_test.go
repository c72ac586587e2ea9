package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"toria/internal/apperr"
	"toria/internal/models"
	"toria/internal/pending"
	"toria/internal/planner"
	"toria/internal/session"
	"toria/internal/tripapi"
	"toria/internal/walkthrough"
)

type stubSession struct {
	user     models.User
	signedIn bool
}

func (s *stubSession) SignIn(_ context.Context, email, _ string) (models.User, error) {
	s.user = models.User{ID: "u1", Email: email}
	s.signedIn = true
	return s.user, nil
}

func (s *stubSession) SignUp(_ context.Context, email, _, name string) (models.User, error) {
	s.user = models.User{ID: "u1", Email: email, DisplayName: name}
	s.signedIn = true
	return s.user, nil
}

func (s *stubSession) SignOut(context.Context) error {
	s.user, s.signedIn = models.User{}, false
	return nil
}

func (s *stubSession) CurrentUser() (models.User, bool) { return s.user, s.signedIn }

func (s *stubSession) Require() (models.User, error) {
	if !s.signedIn {
		return models.User{}, session.ErrNotAuthenticated
	}
	return s.user, nil
}

type stubPlannerBackend struct{}

func (stubPlannerBackend) PlanMyTrip(context.Context, tripapi.TripPlanRequest) (*tripapi.Recommendation, error) {
	return nil, fmt.Errorf("unexpected call")
}

func (stubPlannerBackend) TopPlaces(context.Context, tripapi.TopPlacesRequest) (*tripapi.Shortlist, error) {
	return nil, fmt.Errorf("unexpected call")
}

func (stubPlannerBackend) CreateDayPlan(context.Context, models.NewDayPlan) (*models.DayPlan, error) {
	return nil, fmt.Errorf("unexpected call")
}

func (stubPlannerBackend) TrackEvent(context.Context, string, map[string]any) {}

type noopPlans struct{}

func (noopPlans) InvalidatePlans(string) {}

type stubPlanSource struct {
	plan models.DayPlan
}

func (s stubPlanSource) Plan(_ context.Context, _, planID string) (models.DayPlan, error) {
	if planID != s.plan.ID {
		return models.DayPlan{}, fmt.Errorf("day plan %q: %w", planID, apperr.ErrNotFound)
	}
	return s.plan, nil
}

type stubPrefsBackend struct {
	BackendService
	prefs map[string]bool
}

func (s *stubPrefsBackend) UpdateNotificationPreferences(_ context.Context, _ string, prefs map[string]bool) (*tripapi.Ack, error) {
	s.prefs = prefs
	return &tripapi.Ack{Message: "ok"}, nil
}

func newTestShell(t *testing.T, sess *stubSession) (*Shell, *bytes.Buffer) {
	t.Helper()

	plans := stubPlanSource{plan: models.DayPlan{
		ID:        "p1",
		Title:     "Jaipur - friends - both",
		Companion: models.CompanionFriends,
		Stops: []models.Stop{
			{Name: "Hawa Mahal", Category: models.CategoryPlace},
			{Name: "LMB", Category: models.CategoryFood},
		},
	}}

	out := &bytes.Buffer{}
	s := New(Deps{
		Session: sess,
		Pending: pending.New(),
		Planner: planner.New(stubPlannerBackend{}, sess, pending.New(), noopPlans{}, zerolog.Nop()),
		OpenWalkthrough: func(ctx context.Context, userID, planID string) (*walkthrough.Walkthrough, error) {
			return walkthrough.Open(ctx, plans, userID, planID)
		},
		Logger: zerolog.Nop(),
	}, out)
	return s, out
}

func TestUnknownCommand(t *testing.T) {
	s, out := newTestShell(t, &stubSession{})
	s.Exec(context.Background(), "dance")

	if !strings.Contains(out.String(), `Unknown command "dance"`) {
		t.Fatalf("output = %q", out.String())
	}
}

func TestProtectedCommandShowsAuthNotice(t *testing.T) {
	s, out := newTestShell(t, &stubSession{})
	s.Exec(context.Background(), "start p1")

	want := session.AuthRequiredTitle + "\n" + session.AuthRequiredMessage + "\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestEmptyPlanSubmissionListsFields(t *testing.T) {
	s, out := newTestShell(t, &stubSession{user: models.User{ID: "u1"}, signedIn: true})
	s.Exec(context.Background(), "plan recommend")

	got := out.String()
	for _, want := range []string{
		"Missing Information",
		"companion: Please select who you're going with",
		"focus: Please select your focus",
		"places: At least one place is required",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if state := s.deps.Planner.State(); state != planner.Editing {
		t.Fatalf("state = %s, want Editing", state)
	}
}

func TestStartMissingPlan(t *testing.T) {
	s, out := newTestShell(t, &stubSession{user: models.User{ID: "u1"}, signedIn: true})
	s.Exec(context.Background(), "start gone")

	if out.String() != "Day plan not found.\n" {
		t.Fatalf("output = %q", out.String())
	}
	if s.active != nil {
		t.Fatal("walkthrough should not be active")
	}
}

func TestWalkthroughDislikeOffersAlternatives(t *testing.T) {
	s, out := newTestShell(t, &stubSession{user: models.User{ID: "u1"}, signedIn: true})
	ctx := context.Background()

	s.Exec(ctx, "start p1")
	s.Exec(ctx, "complete stop-0")
	out.Reset()
	s.Exec(ctx, "dislike too crowded")

	got := out.String()
	if !strings.Contains(got, "Feedback Recorded: Thanks for the feedback") {
		t.Errorf("missing notice:\n%s", got)
	}
	if !strings.Contains(got, "bot: Sorry Hawa Mahal wasn't great!") {
		t.Errorf("missing bot message:\n%s", got)
	}
	if !strings.Contains(got, "Progress: 1/2") {
		t.Errorf("missing progress:\n%s", got)
	}
}

func TestWalkthroughCommandsNeedActiveSession(t *testing.T) {
	s, out := newTestShell(t, &stubSession{user: models.User{ID: "u1"}, signedIn: true})
	s.Exec(context.Background(), "stops")

	if !strings.Contains(out.String(), "no walkthrough in progress") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestPrefsParsesSwitches(t *testing.T) {
	backend := &stubPrefsBackend{}
	s, out := newTestShell(t, &stubSession{user: models.User{ID: "u1"}, signedIn: true})
	s.deps.Backend = backend

	s.Exec(context.Background(), "prefs reels=true plans=false")
	if !backend.prefs["reels"] || backend.prefs["plans"] || len(backend.prefs) != 2 {
		t.Fatalf("prefs = %v", backend.prefs)
	}

	out.Reset()
	s.Exec(context.Background(), "prefs reels=maybe")
	if !strings.HasPrefix(out.String(), "usage: prefs") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunStopsOnQuit(t *testing.T) {
	s, out := newTestShell(t, &stubSession{})
	in := strings.NewReader("whoami\nquit\nwhoami\n")

	if err := s.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := strings.Count(out.String(), "Not signed in."); n != 1 {
		t.Fatalf("whoami ran %d times, want 1", n)
	}
}

func TestExecRecoversFromPanic(t *testing.T) {
	s, out := newTestShell(t, &stubSession{user: models.User{ID: "u1"}, signedIn: true})
	// No library is wired, so the handler dereferences a nil interface.
	s.Exec(context.Background(), "saved")

	if !strings.Contains(out.String(), "Something went wrong") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunReturnsOnCancelWithoutInput(t *testing.T) {
	s, _ := newTestShell(t, &stubSession{})
	in, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, in) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run kept waiting for input after cancel")
	}
}
