// Package planner implements the plan assembly flow: the trip-context form,
// its submission as either a full recommendation or a build-your-day
// shortlist, candidate selection and day plan creation.
package planner

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"toria/internal/apperr"
	"toria/internal/models"
	"toria/internal/tripapi"
)

// State is the single discriminated state of the flow.
type State int

const (
	Editing State = iota
	Submitting
	ResultsReady
	ShortlistReady
	Creating
	Created
	Error
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case ResultsReady:
		return "results-ready"
	case ShortlistReady:
		return "shortlist-ready"
	case Creating:
		return "creating"
	case Created:
		return "created"
	case Error:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transitions is the complete transition table. Reset is the only way out
// of Created.
var transitions = map[State][]State{
	Editing:        {Submitting},
	Submitting:     {ResultsReady, ShortlistReady, Error, Editing},
	ResultsReady:   {Submitting, Creating, Editing},
	ShortlistReady: {Submitting, Creating, Editing},
	Creating:       {Created, Error},
	Created:        {Editing},
	Error:          {Editing, Submitting, Creating},
}

var (
	// ErrInvalidTransition is returned when an action is not allowed in the
	// current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNothingToCreate is returned when neither a selection nor pending
	// items exist.
	ErrNothingToCreate = errors.New("no stops selected")
	// ErrUnknownCandidate is returned when toggling a name that is not a
	// candidate of the current result.
	ErrUnknownCandidate = errors.New("unknown candidate")
	// ErrSuperseded is returned when a response arrives after the flow was
	// reset. The response is discarded.
	ErrSuperseded = errors.New("superseded")
)

// Backend is the API surface used by the flow.
type Backend interface {
	PlanMyTrip(ctx context.Context, req tripapi.TripPlanRequest) (*tripapi.Recommendation, error)
	TopPlaces(ctx context.Context, req tripapi.TopPlacesRequest) (*tripapi.Shortlist, error)
	CreateDayPlan(ctx context.Context, plan models.NewDayPlan) (*models.DayPlan, error)
	TrackEvent(ctx context.Context, name string, properties map[string]any)
}

// Guard is the protected-action check.
type Guard interface {
	Require() (models.User, error)
}

// PendingSource is the pending-selection store.
type PendingSource interface {
	Items() []models.PendingItem
	Clear()
}

// PlanCache is invalidated after a plan is created.
type PlanCache interface {
	InvalidatePlans(userID string)
}

// Notice is a transient message for the traveller.
type Notice struct {
	Title   string
	Message string
}

// Candidate is a stop offered by a result, with its selection flag.
type Candidate struct {
	Stop     models.Stop
	Selected bool
}

// Snapshot is a consistent copy of the flow state for rendering.
type Snapshot struct {
	State       State
	Form        models.TripRequest
	FieldErrors map[string]string
	Message     string
	Guidance    string
	Candidates  []Candidate
	Pending     []models.PendingItem
	CanCreate   bool
	Created     *models.DayPlan
	Err         error
	Notice      Notice
}

// Planner is the plan assembly state machine.
type Planner struct {
	api     Backend
	guard   Guard
	pending PendingSource
	plans   PlanCache
	logger  zerolog.Logger

	mu          sync.Mutex
	state       State
	epoch       uint64
	form        models.TripRequest
	fieldErrors map[string]string
	variant     State // ResultsReady or ShortlistReady once a result is held
	message     string
	candidates  []models.Stop
	selected    []string
	created     *models.DayPlan
	err         error
	notice      Notice
}

// New creates a planner in the Editing state.
func New(api Backend, guard Guard, pending PendingSource, plans PlanCache, logger zerolog.Logger) *Planner {
	return &Planner{
		api:         api,
		guard:       guard,
		pending:     pending,
		plans:       plans,
		logger:      logger,
		form:        newForm(),
		fieldErrors: map[string]string{},
	}
}

func (p *Planner) transition(next State) error {
	if !slices.Contains(transitions[p.state], next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.state, next)
	}
	p.state = next
	return nil
}

// State returns the current state.
func (p *Planner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// GetRecommendations submits the form for a full AI recommendation.
func (p *Planner) GetRecommendations(ctx context.Context) error {
	form, epoch, err := p.beginSubmit()
	if err != nil {
		return err
	}

	rec, err := p.api.PlanMyTrip(ctx, tripapi.NewTripPlanRequest(form))

	p.mu.Lock()
	defer p.mu.Unlock()
	if epoch != p.epoch {
		return ErrSuperseded
	}
	if err != nil {
		return p.fail(err, Notice{Title: "Generation Failed", Message: apperr.UserMessage(err)})
	}

	p.variant = ResultsReady
	p.message = rec.Recommended.Message
	p.candidates = p.candidates[:0]
	p.selected = p.selected[:0]
	for _, s := range rec.Recommended.Suggestions {
		stop := s.Stop()
		if p.indexOf(stop.Name) >= 0 {
			continue
		}
		p.candidates = append(p.candidates, stop)
		p.selected = append(p.selected, stop.Name)
	}
	p.notice = Notice{Title: "Recommendations Ready!", Message: "AI has generated your travel suggestions"}
	return p.transition(ResultsReady)
}

// BuildYourDay submits the form for a shortlist of candidates.
func (p *Planner) BuildYourDay(ctx context.Context) error {
	form, epoch, err := p.beginSubmit()
	if err != nil {
		return err
	}

	list, err := p.api.TopPlaces(ctx, tripapi.NewTopPlacesRequest(form))

	p.mu.Lock()
	defer p.mu.Unlock()
	if epoch != p.epoch {
		return ErrSuperseded
	}
	if err != nil {
		return p.fail(err, Notice{Title: "Search Failed", Message: apperr.UserMessage(err)})
	}

	p.variant = ShortlistReady
	p.message = p.guidance()
	p.candidates = p.candidates[:0]
	p.selected = p.selected[:0]
	if form.Focus.IncludesFood() {
		for _, f := range list.Food {
			p.addCandidate(f.Stop())
		}
	}
	if form.Focus.IncludesPlaces() {
		for _, pl := range list.Places {
			p.addCandidate(pl.Stop())
		}
	}
	p.notice = Notice{Title: "Places Found!", Message: "Select items to build your day"}
	return p.transition(ShortlistReady)
}

func (p *Planner) addCandidate(stop models.Stop) {
	if p.indexOf(stop.Name) < 0 {
		p.candidates = append(p.candidates, stop)
	}
}

// beginSubmit validates, checks the session and moves to Submitting.
func (p *Planner) beginSubmit() (models.TripRequest, uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !slices.Contains(transitions[p.state], Submitting) {
		return models.TripRequest{}, 0, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.state, Submitting)
	}

	if errs := Validate(p.form); len(errs) > 0 {
		p.fieldErrors = errs
		p.notice = Notice{Title: "Missing Information", Message: "Please fill in all required fields"}
		return models.TripRequest{}, 0, apperr.NewValidation(maps.Clone(errs))
	}
	p.fieldErrors = map[string]string{}

	if _, err := p.guard.Require(); err != nil {
		p.notice = Notice{Title: "Login Required", Message: "Please sign in to continue"}
		return models.TripRequest{}, 0, err
	}

	if err := p.transition(Submitting); err != nil {
		return models.TripRequest{}, 0, err
	}
	p.err = nil
	p.clearResult()
	p.epoch++
	return cloneForm(p.form), p.epoch, nil
}

// fail moves to Error keeping the form and any held result.
func (p *Planner) fail(err error, notice Notice) error {
	p.err = err
	p.notice = notice
	p.logger.Warn().Err(err).Str("from", p.state.String()).Msg("plan assembly failed")
	if terr := p.transition(Error); terr != nil {
		return errors.Join(err, terr)
	}
	return err
}

// ToggleSelection selects or deselects a candidate by name.
func (p *Planner) ToggleSelection(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.holdsResult() || p.state == Creating || p.state == Submitting {
		return fmt.Errorf("%w: no result to select from in %s", ErrInvalidTransition, p.state)
	}
	if p.indexOf(name) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownCandidate, name)
	}
	if i := slices.Index(p.selected, name); i >= 0 {
		p.selected = slices.Delete(p.selected, i, i+1)
	} else {
		p.selected = append(p.selected, name)
	}
	return nil
}

func (p *Planner) holdsResult() bool {
	switch p.state {
	case ResultsReady, ShortlistReady:
		return true
	case Error:
		return p.variant != Editing
	}
	return false
}

func (p *Planner) indexOf(name string) int {
	return slices.IndexFunc(p.candidates, func(s models.Stop) bool { return s.Name == name })
}

// CanCreate reports whether "create day plan" may be offered.
func (p *Planner) CanCreate() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canCreate()
}

func (p *Planner) canCreate() bool {
	if !p.holdsResult() {
		return false
	}
	return len(p.selected) > 0 || len(p.pending.Items()) > 0
}

// finalStops merges the selection, in selection order, with pending items.
// Pending items already present by id or name are skipped.
func (p *Planner) finalStops() []models.Stop {
	stops := make([]models.Stop, 0, len(p.selected))
	seen := map[string]bool{}
	for _, name := range p.selected {
		stop := p.candidates[p.indexOf(name)]
		stops = append(stops, stop)
		seen["name:"+strings.ToLower(stop.Name)] = true
		if stop.ID != "" {
			seen["id:"+stop.ID] = true
		}
	}
	for _, item := range p.pending.Items() {
		stop := item.Stop()
		if seen["id:"+stop.ID] || seen["name:"+strings.ToLower(stop.Name)] {
			continue
		}
		seen["id:"+stop.ID] = true
		seen["name:"+strings.ToLower(stop.Name)] = true
		stops = append(stops, stop)
	}
	return stops
}

// CreatePlan creates the day plan from the selection and pending items. On
// success the pending items are cleared.
func (p *Planner) CreatePlan(ctx context.Context) (*models.DayPlan, error) {
	user, err := p.guard.Require()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if !p.holdsResult() {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.state, Creating)
	}
	if !p.canCreate() {
		p.mu.Unlock()
		return nil, ErrNothingToCreate
	}
	if err := p.transition(Creating); err != nil {
		p.mu.Unlock()
		return nil, err
	}

	form := cloneForm(p.form)
	req := models.NewDayPlan{
		UserID:        user.ID,
		Title:         form.DefaultTitle(),
		City:          form.City(),
		Companion:     form.Companion,
		Focus:         form.Focus,
		Stops:         p.finalStops(),
		GeneratedByAI: p.variant == ResultsReady,
	}
	if form.Duration != nil {
		req.Duration = form.Duration.String()
	}
	p.err = nil
	p.epoch++
	epoch := p.epoch
	p.mu.Unlock()

	plan, err := p.api.CreateDayPlan(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if epoch != p.epoch {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, p.fail(err, Notice{Title: "Could Not Create Plan", Message: apperr.UserMessage(err)})
	}

	p.pending.Clear()
	p.plans.InvalidatePlans(user.ID)
	p.created = plan
	p.notice = Notice{Title: "Day Plan Created!", Message: "Find it in your profile"}
	if err := p.transition(Created); err != nil {
		return nil, err
	}

	p.api.TrackEvent(ctx, "day_plan_created", map[string]any{
		"plan_id":         plan.ID,
		"stops":           len(plan.Stops),
		"generated_by_ai": req.GeneratedByAI,
	})
	return plan, nil
}

// Dismiss acknowledges an error or discards a result and returns to
// Editing. The form is kept.
func (p *Planner) Dismiss() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.transition(Editing); err != nil {
		return err
	}
	p.epoch++
	p.err = nil
	p.notice = Notice{}
	p.clearResult()
	return nil
}

// Reset returns to a blank form from any state. Responses still in flight
// are discarded.
func (p *Planner) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.epoch++
	p.state = Editing
	p.form = newForm()
	p.fieldErrors = map[string]string{}
	p.clearResult()
	p.created = nil
	p.err = nil
	p.notice = Notice{}
}

func (p *Planner) clearResult() {
	p.variant = Editing
	p.message = ""
	p.candidates = nil
	p.selected = nil
}

// Guidance returns the build-your-day hint for the current duration.
func (p *Planner) Guidance() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.guidance()
}

func (p *Planner) guidance() string {
	duration := "4 hours"
	if p.form.Duration != nil {
		duration = p.form.Duration.String()
	}
	return fmt.Sprintf("For ~%s, travelers usually cover 3-5 items", duration)
}

// Snapshot returns a copy of the flow state.
func (p *Planner) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	candidates := make([]Candidate, len(p.candidates))
	for i, stop := range p.candidates {
		candidates[i] = Candidate{Stop: stop, Selected: slices.Contains(p.selected, stop.Name)}
	}

	return Snapshot{
		State:       p.state,
		Form:        cloneForm(p.form),
		FieldErrors: maps.Clone(p.fieldErrors),
		Message:     p.message,
		Guidance:    p.guidance(),
		Candidates:  candidates,
		Pending:     p.pending.Items(),
		CanCreate:   p.canCreate(),
		Created:     p.created,
		Err:         p.err,
		Notice:      p.notice,
	}
}
