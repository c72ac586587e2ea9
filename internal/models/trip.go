package models

import (
	"fmt"
	"strings"
)

// Companion is who the traveller is going with.
type Companion string

const (
	CompanionPartner  Companion = "partner"
	CompanionFamily   Companion = "family"
	CompanionFriends  Companion = "friends"
	CompanionBusiness Companion = "business"
	CompanionSolo     Companion = "solo"
)

// Companions lists every companion value in display order.
var Companions = []Companion{CompanionFriends, CompanionFamily, CompanionPartner, CompanionBusiness, CompanionSolo}

// Valid reports whether c is a known companion category.
func (c Companion) Valid() bool {
	for _, v := range Companions {
		if c == v {
			return true
		}
	}
	return false
}

// Focus is what the day should revolve around.
type Focus string

const (
	FocusFood   Focus = "food"
	FocusPlaces Focus = "places"
	FocusBoth   Focus = "both"
)

// Valid reports whether f is a known focus.
func (f Focus) Valid() bool {
	return f == FocusFood || f == FocusPlaces || f == FocusBoth
}

// IncludesFood reports whether food candidates are relevant.
func (f Focus) IncludesFood() bool { return f == FocusFood || f == FocusBoth }

// IncludesPlaces reports whether attraction candidates are relevant.
func (f Focus) IncludesPlaces() bool { return f == FocusPlaces || f == FocusBoth }

// Diet options offered when the focus includes food.
var Diets = []string{"non-veg", "veg", "pure veg"}

// FoodVibes and PlaceVibes are the vibe tags offered per focus.
var (
	FoodVibes  = []string{"drink & dine", "family", "romantic", "party", "premium", "buffets", "religious"}
	PlaceVibes = []string{"nature", "adventure", "religious", "culture-history"}
)

// DurationUnit qualifies a Duration value.
type DurationUnit string

const (
	UnitHours DurationUnit = "hours"
	UnitDays  DurationUnit = "days"
)

// Duration is the length of the outing.
type Duration struct {
	Value int          `json:"value"`
	Unit  DurationUnit `json:"unit"`
}

// String renders the wire form, e.g. "4 hours".
func (d Duration) String() string {
	unit := d.Unit
	if unit == "" {
		unit = UnitHours
	}
	if d.Value == 1 {
		return fmt.Sprintf("1 %s", strings.TrimSuffix(string(unit), "s"))
	}
	return fmt.Sprintf("%d %s", d.Value, unit)
}

// Preferences are the optional filters of a trip request.
type Preferences struct {
	Diet   string   `json:"diet,omitempty"`
	Budget string   `json:"budget,omitempty"`
	Vibes  []string `json:"vibe,omitempty"`
}

// TripRequest is the trip-context form.
type TripRequest struct {
	Places      []string
	Companion   Companion
	Focus       Focus
	Duration    *Duration
	DateTime    string
	Preferences Preferences
}

// CleanPlaces returns the non-blank, trimmed place names.
func (r TripRequest) CleanPlaces() []string {
	places := make([]string, 0, len(r.Places))
	for _, p := range r.Places {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			places = append(places, trimmed)
		}
	}
	return places
}

// City is the first non-blank place, used as the plan city.
func (r TripRequest) City() string {
	if places := r.CleanPlaces(); len(places) > 0 {
		return places[0]
	}
	return ""
}

// DefaultTitle is the title given to plans created from this request.
func (r TripRequest) DefaultTitle() string {
	return fmt.Sprintf("%s - %s - %s", r.City(), r.Companion, r.Focus)
}
