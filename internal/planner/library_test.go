package planner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"toria/internal/library"
	"toria/internal/models"
	"toria/internal/pending"
	"toria/internal/querycache"
	"toria/internal/tripapi"
)

// fakeBackend keeps created plans in memory and serves them back the way the
// travel backend does, including its offset-less timestamps.
type fakeBackend struct {
	mu    sync.Mutex
	plans []map[string]any
	lists int
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/top_places":
		_ = json.NewEncoder(w).Encode(shortlistFixture())
	case r.Method == http.MethodPost && r.URL.Path == "/api/day-plans":
		var req models.NewDayPlan
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		plan := map[string]any{
			"id":              "plan-1",
			"user_id":         req.UserID,
			"title":           req.Title,
			"city":            req.City,
			"going_with":      req.Companion,
			"focus":           req.Focus,
			"date":            nil,
			"duration":        req.Duration,
			"status":          "upcoming",
			"stops":           req.Stops,
			"generated_by_ai": req.GeneratedByAI,
			"created_at":      "2025-09-15T10:30:00.123456",
			"updated_at":      "2025-09-15T10:30:00.123456",
		}
		f.plans = append(f.plans, plan)
		_ = json.NewEncoder(w).Encode(plan)
	case r.Method == http.MethodGet && r.URL.Path == "/api/day-plans/u1":
		f.lists++
		plans := f.plans
		if plans == nil {
			plans = []map[string]any{}
		}
		_ = json.NewEncoder(w).Encode(plans)
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func (f *fakeBackend) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func TestCreatedPlanIsListedWithSameStops(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client, err := tripapi.New(srv.URL + "/api")
	if err != nil {
		t.Fatalf("tripapi.New: %v", err)
	}
	lib := library.New(client, querycache.New(0))
	stage := pending.New()
	p := New(client, signedIn, stage, lib, zerolog.Nop())
	ctx := context.Background()

	before, err := lib.DayPlans(ctx, "u1", "")
	if err != nil {
		t.Fatalf("DayPlans before create: %v", err)
	}
	if len(before) != 0 {
		t.Fatalf("expected no plans yet, got %d", len(before))
	}

	fillForm(t, p, models.FocusBoth)
	stage.Add(models.PendingItem{ID: "reel-9", Title: "Hawa Mahal", Location: "Jaipur", Category: models.CategoryPlace})
	if err := p.BuildYourDay(ctx); err != nil {
		t.Fatalf("BuildYourDay: %v", err)
	}
	for _, name := range []string{"LMB", "Amber Fort"} {
		if err := p.ToggleSelection(name); err != nil {
			t.Fatalf("ToggleSelection(%s): %v", name, err)
		}
	}

	created, err := p.CreatePlan(ctx)
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	after, err := lib.DayPlans(ctx, "u1", "")
	if err != nil {
		t.Fatalf("DayPlans after create: %v", err)
	}
	if n := backend.listCalls(); n != 2 {
		t.Fatalf("plans should be refetched after create, backend saw %d lists", n)
	}
	if len(after) != 1 || after[0].ID != created.ID {
		t.Fatalf("unexpected plans %#v", after)
	}

	got := after[0].Stops
	if !slices.Equal(got, created.Stops) {
		t.Fatalf("listed stops %#v differ from created %#v", got, created.Stops)
	}
	names := make([]string, len(got))
	for i, s := range got {
		names[i] = s.Name
	}
	if want := []string{"LMB", "Amber Fort", "Hawa Mahal"}; !slices.Equal(names, want) {
		t.Fatalf("stop order = %v, want %v", names, want)
	}
	if got[2].ID != "reel-9" {
		t.Fatalf("pending stop lost its id: %#v", got[2])
	}
	if after[0].CreatedAt.IsZero() {
		t.Fatalf("created_at not decoded")
	}
}
