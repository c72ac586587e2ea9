// Package walkthrough runs a day plan stop by stop: completion with
// feedback, derived progress, directions and the travel-buddy chat.
package walkthrough

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"toria/internal/models"
	"toria/internal/tripapi"
)

// DefaultMapsBaseURL is the directions endpoint.
const DefaultMapsBaseURL = "https://www.google.com/maps/dir/"

var (
	// ErrUnknownStop is returned for a stop id not in the plan.
	ErrUnknownStop = errors.New("unknown stop")
	// ErrAlreadyCompleted is returned when a completed stop is completed again.
	ErrAlreadyCompleted = errors.New("stop already completed")
	// ErrNoPrompt is returned when feedback is submitted without a prompt.
	ErrNoPrompt = errors.New("no feedback prompt open")
	// ErrNoStops is returned for directions on an empty plan.
	ErrNoStops = errors.New("plan has no stops")
	// ErrClosed is returned for actions after Close.
	ErrClosed = errors.New("walkthrough closed")
)

// PlanSource loads a user's plan.
type PlanSource interface {
	Plan(ctx context.Context, userID, planID string) (models.DayPlan, error)
}

// ChatBackend answers travel-buddy messages.
type ChatBackend interface {
	ChatFromStartMyDay(ctx context.Context, userID, message, action string) (*tripapi.ChatReply, error)
}

// Tracker records analytics events.
type Tracker interface {
	TrackEvent(ctx context.Context, name string, properties map[string]any)
}

// Opener hands a URL to an external application.
type Opener interface {
	Open(ctx context.Context, rawURL string) error
}

// Notice is a transient message for the traveller.
type Notice struct {
	Title   string
	Message string
}

// StopState is a stop with its walkthrough-local completion state.
type StopState struct {
	Stop      models.Stop
	Completed bool
	Liked     *bool
	Feedback  string
}

// Progress is derived from the stop states.
type Progress struct {
	Completed int
	Total     int
}

// Ratio is the completed share in [0, 1].
func (p Progress) Ratio() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// Option customises a Walkthrough.
type Option func(*Walkthrough)

// WithChatBackend enables the travel-buddy chat.
func WithChatBackend(b ChatBackend) Option {
	return func(w *Walkthrough) { w.chat.backend = b }
}

// WithTracker records stop feedback events.
func WithTracker(t Tracker) Option {
	return func(w *Walkthrough) { w.tracker = t }
}

// WithMapsBaseURL overrides the directions endpoint.
func WithMapsBaseURL(base string) Option {
	return func(w *Walkthrough) {
		if base != "" {
			w.mapsBase = base
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Walkthrough) {
		w.logger = logger
		w.chat.logger = logger
	}
}

// Walkthrough is an active itinerary session. Its state is not persisted.
type Walkthrough struct {
	plan     models.DayPlan
	userID   string
	mapsBase string
	tracker  Tracker
	logger   zerolog.Logger
	chat     *Chat

	mu     sync.Mutex
	stops  []StopState
	prompt string
	closed bool
}

// Open loads the plan and starts a walkthrough. A missing plan yields the
// source's not-found error.
func Open(ctx context.Context, plans PlanSource, userID, planID string, opts ...Option) (*Walkthrough, error) {
	plan, err := plans.Plan(ctx, userID, planID)
	if err != nil {
		return nil, fmt.Errorf("open plan %s: %w", planID, err)
	}

	w := &Walkthrough{
		plan:     plan,
		userID:   userID,
		mapsBase: DefaultMapsBaseURL,
		logger:   zerolog.Nop(),
	}
	w.chat = newChat(w, userID)
	for _, opt := range opts {
		opt(w)
	}

	w.stops = make([]StopState, len(plan.Stops))
	for i, stop := range plan.Stops {
		if stop.ID == "" {
			stop.ID = fmt.Sprintf("stop-%d", i)
		}
		w.stops[i] = StopState{Stop: stop}
	}
	return w, nil
}

// Plan returns the plan being walked through.
func (w *Walkthrough) Plan() models.DayPlan {
	return w.plan
}

// Stops returns a copy of the stop states in plan order.
func (w *Walkthrough) Stops() []StopState {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]StopState, len(w.stops))
	for i, s := range w.stops {
		if s.Liked != nil {
			liked := *s.Liked
			s.Liked = &liked
		}
		out[i] = s
	}
	return out
}

// Prompt returns the stop whose feedback prompt is open, if any.
func (w *Walkthrough) Prompt() (models.Stop, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i := w.indexOf(w.prompt); i >= 0 {
		return w.stops[i].Stop, true
	}
	return models.Stop{}, false
}

func (w *Walkthrough) indexOf(stopID string) int {
	if stopID == "" {
		return -1
	}
	for i, s := range w.stops {
		if s.Stop.ID == stopID {
			return i
		}
	}
	return -1
}

// RequestCompletion opens the feedback prompt for a stop. The stop is only
// completed once feedback is submitted.
func (w *Walkthrough) RequestCompletion(stopID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	i := w.indexOf(stopID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownStop, stopID)
	}
	if w.stops[i].Completed {
		return fmt.Errorf("%w: %s", ErrAlreadyCompleted, stopID)
	}
	w.prompt = stopID
	return nil
}

// CancelFeedback closes the prompt without completing the stop.
func (w *Walkthrough) CancelFeedback() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prompt = ""
}

// SubmitFeedback completes the prompted stop with a sentiment. A dislike
// seeds the chat with an offer of alternatives.
func (w *Walkthrough) SubmitFeedback(ctx context.Context, liked bool, feedback string) (Notice, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Notice{}, ErrClosed
	}
	i := w.indexOf(w.prompt)
	if i < 0 {
		w.mu.Unlock()
		return Notice{}, ErrNoPrompt
	}

	state := &w.stops[i]
	state.Completed = true
	state.Liked = &liked
	state.Feedback = strings.TrimSpace(feedback)
	w.prompt = ""
	stop, hasFeedback := state.Stop, state.Feedback != ""
	w.mu.Unlock()

	if !liked {
		w.chat.appendBot(fmt.Sprintf(
			"Sorry %s wasn't great! I can suggest nearby alternatives. What type of place would you prefer?",
			stop.Name))
	}

	if w.tracker != nil {
		w.tracker.TrackEvent(ctx, "stop_feedback", map[string]any{
			"plan_id":      w.plan.ID,
			"stop_id":      stop.ID,
			"liked":        liked,
			"has_feedback": hasFeedback,
		})
	}

	notice := Notice{Title: "Feedback Recorded", Message: "Thanks for the feedback"}
	if liked {
		notice.Message = "Great! Glad you enjoyed it"
	}
	return notice, nil
}

// Progress returns completed over total stops.
func (w *Walkthrough) Progress() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := Progress{Total: len(w.stops)}
	for _, s := range w.stops {
		if s.Completed {
			p.Completed++
		}
	}
	return p
}

// Theme names the presentation theme for the plan's companion.
func (w *Walkthrough) Theme() string {
	switch w.plan.Companion {
	case models.CompanionPartner, models.CompanionFamily, models.CompanionBusiness:
		return string(w.plan.Companion)
	}
	return "default"
}

// DirectionsURL builds a multi-stop directions link: every stop but the last
// is a waypoint and the last stop is the destination.
func (w *Walkthrough) DirectionsURL() (string, error) {
	if len(w.plan.Stops) == 0 {
		return "", ErrNoStops
	}

	names := make([]string, len(w.plan.Stops))
	for i, s := range w.plan.Stops {
		names[i] = s.Name
	}

	q := url.Values{}
	q.Set("api", "1")
	q.Set("destination", names[len(names)-1])
	if len(names) > 1 {
		q.Set("waypoints", strings.Join(names[:len(names)-1], "|"))
	}
	q.Set("travelmode", "driving")

	return w.mapsBase + "?" + q.Encode(), nil
}

// OpenDirections hands the directions link to opener. Failing to open it is
// reported as a notice and leaves the walkthrough unchanged.
func (w *Walkthrough) OpenDirections(ctx context.Context, opener Opener) (Notice, error) {
	link, err := w.DirectionsURL()
	if err != nil {
		return Notice{}, err
	}
	if err := opener.Open(ctx, link); err != nil {
		w.logger.Info().Err(err).Msg("open directions")
		return Notice{Title: "Error", Message: "Could not open Google Maps"}, nil
	}
	return Notice{}, nil
}

// Chat returns the travel-buddy side channel.
func (w *Walkthrough) Chat() *Chat {
	return w.chat
}

// Close ends the session. Chat replies arriving afterwards are dropped.
func (w *Walkthrough) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.prompt = ""
}

func (w *Walkthrough) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
