package tripapi

import (
	"strings"

	"toria/internal/models"
)

// Ack is the acknowledgement returned by mutating endpoints.
type Ack struct {
	Message string `json:"message"`
	Success *bool  `json:"success,omitempty"`
}

// HealthStatus describes the backend root endpoint.
type HealthStatus struct {
	Message  string   `json:"message" validate:"required"`
	Status   string   `json:"status" validate:"required"`
	Features []string `json:"features"`
}

// TripPlanRequest is the full AI recommendation request.
type TripPlanRequest struct {
	Places    []string         `json:"places"`
	Companion models.Companion `json:"going_with"`
	Focus     models.Focus     `json:"focus"`
	Duration  string           `json:"duration,omitempty"`
	DateTime  string           `json:"date_time,omitempty"`
	Diet      string           `json:"diet,omitempty"`
	Budget    string           `json:"budget,omitempty"`
	Vibe      []string         `json:"vibe,omitempty"`
}

// NewTripPlanRequest builds the wire request from a validated form.
func NewTripPlanRequest(r models.TripRequest) TripPlanRequest {
	req := TripPlanRequest{
		Places:    r.CleanPlaces(),
		Companion: r.Companion,
		Focus:     r.Focus,
		DateTime:  strings.TrimSpace(r.DateTime),
		Diet:      r.Preferences.Diet,
		Budget:    strings.TrimSpace(r.Preferences.Budget),
		Vibe:      r.Preferences.Vibes,
	}
	if r.Duration != nil {
		req.Duration = r.Duration.String()
	}
	return req
}

// Filters is the optional filter bundle of a build-your-day request.
type Filters struct {
	Duration string   `json:"duration,omitempty"`
	Diet     string   `json:"diet,omitempty"`
	Budget   string   `json:"budget,omitempty"`
	Vibe     []string `json:"vibe,omitempty"`
}

// TopPlacesRequest asks for categorized candidates.
type TopPlacesRequest struct {
	Places    []string         `json:"places"`
	Companion models.Companion `json:"going_with"`
	Focus     models.Focus     `json:"focus"`
	Filters   Filters          `json:"filters"`
}

// NewTopPlacesRequest builds the wire request from a validated form.
func NewTopPlacesRequest(r models.TripRequest) TopPlacesRequest {
	req := TopPlacesRequest{
		Places:    r.CleanPlaces(),
		Companion: r.Companion,
		Focus:     r.Focus,
		Filters: Filters{
			Diet:   r.Preferences.Diet,
			Budget: strings.TrimSpace(r.Preferences.Budget),
			Vibe:   r.Preferences.Vibes,
		},
	}
	if r.Duration != nil {
		req.Filters.Duration = r.Duration.String()
	}
	return req
}

// Suggestion is one AI-recommended stop with its reasoning.
type Suggestion struct {
	Name   string          `json:"name" validate:"required"`
	Type   models.Category `json:"type" validate:"omitempty,oneof=Food Place"`
	Time   string          `json:"time,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

// Stop converts the suggestion into a plan stop. Untyped suggestions default to Place.
func (s Suggestion) Stop() models.Stop {
	category := s.Type
	if category == "" {
		category = models.CategoryPlace
	}
	return models.Stop{
		Name:       s.Name,
		Category:   category,
		TimeWindow: s.Time,
		QuickInfo:  s.Reason,
	}
}

// Recommended holds the curated suggestion list.
type Recommended struct {
	Type        string       `json:"type"`
	Suggestions []Suggestion `json:"suggestions" validate:"dive"`
	Message     string       `json:"message"`
}

// DayOptions is the loose build-your-day hint attached to recommendations.
type DayOptions struct {
	Guidance     string           `json:"guidance"`
	FoodOptions  []map[string]any `json:"food_options"`
	PlaceOptions []map[string]any `json:"place_options"`
}

// Recommendation is the response of PlanMyTrip.
type Recommendation struct {
	Recommended  Recommended `json:"toria_recommended"`
	BuildYourDay *DayOptions `json:"build_your_day,omitempty"`
}

// FoodCandidate is a food option of a shortlist.
type FoodCandidate struct {
	Name      string   `json:"name" validate:"required"`
	TopDishes []string `json:"top_dishes"`
	PriceBand string   `json:"price_band,omitempty"`
	Hygiene   string   `json:"hygiene,omitempty"`
	OpenHours string   `json:"open_hours,omitempty"`
	Area      string   `json:"area,omitempty"`
}

// Stop converts the candidate into a Food stop.
func (f FoodCandidate) Stop() models.Stop {
	info := f.Area
	if len(f.TopDishes) > 0 {
		info = strings.TrimSpace("Top dishes: " + strings.Join(f.TopDishes, ", "))
	}
	return models.Stop{
		Name:         f.Name,
		Category:     models.CategoryFood,
		TimeWindow:   f.OpenHours,
		QuickInfo:    info,
		CostEstimate: f.PriceBand,
	}
}

// PlaceCandidate is an attraction option of a shortlist.
type PlaceCandidate struct {
	Name      string   `json:"name" validate:"required"`
	VibeTags  []string `json:"vibe_tags"`
	FeeInfo   string   `json:"fee_info,omitempty"`
	IdealTime string   `json:"ideal_time,omitempty"`
	Area      string   `json:"area,omitempty"`
}

// Stop converts the candidate into a Place stop.
func (p PlaceCandidate) Stop() models.Stop {
	return models.Stop{
		Name:         p.Name,
		Category:     models.CategoryPlace,
		TimeWindow:   p.IdealTime,
		QuickInfo:    strings.Join(p.VibeTags, ", "),
		CostEstimate: p.FeeInfo,
	}
}

// Shortlist is the response of TopPlaces.
type Shortlist struct {
	Food   []FoodCandidate  `json:"food_places" validate:"dive"`
	Places []PlaceCandidate `json:"attraction_places" validate:"dive"`
}

// ChatRequest is sent to either chatbot endpoint.
type ChatRequest struct {
	UserID      string `json:"user_id"`
	ItineraryID string `json:"itinerary_id,omitempty"`
	Message     string `json:"message,omitempty"`
	Action      string `json:"action,omitempty"`
}

// ItinerarySummary lets the user pick a plan to chat about.
type ItinerarySummary struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title"`
	City  string `json:"city"`
}

// ChatReply is a chatbot response.
type ChatReply struct {
	Message     string             `json:"message" validate:"required"`
	Context     map[string]any     `json:"context,omitempty"`
	Actions     []any              `json:"actions,omitempty"`
	Itineraries []ItinerarySummary `json:"itineraries,omitempty" validate:"dive"`
}

// NewReel is the create-reel payload.
type NewReel struct {
	InstagramURL  string          `json:"instagram_url"`
	EmbedCode     string          `json:"embed_code"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Location      string          `json:"location"`
	Type          models.Category `json:"type"`
	CreatorHandle string          `json:"creator_handle,omitempty"`
	Tags          []string        `json:"tags"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
}

type analyticsEvent struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
	Timestamp  string         `json:"timestamp"`
}

type pushRegistration struct {
	UserID    string `json:"user_id"`
	PushToken string `json:"push_token"`
}
