package planner

import (
	"slices"

	"toria/internal/models"
)

// Field keys of the validation error map.
const (
	FieldPlaces    = "places"
	FieldCompanion = "companion"
	FieldFocus     = "focus"
	FieldDuration  = "duration"
)

// Validate checks the required trip-context fields and returns a map of
// field name to message. An empty map means the request may be submitted.
func Validate(r models.TripRequest) map[string]string {
	errs := map[string]string{}

	if len(r.CleanPlaces()) == 0 {
		errs[FieldPlaces] = "At least one place is required"
	}

	switch {
	case r.Companion == "":
		errs[FieldCompanion] = "Please select who you're going with"
	case !r.Companion.Valid():
		errs[FieldCompanion] = "Please select a valid companion"
	}

	switch {
	case r.Focus == "":
		errs[FieldFocus] = "Please select your focus"
	case !r.Focus.Valid():
		errs[FieldFocus] = "Please select a valid focus"
	}

	if r.Duration != nil && r.Duration.Value <= 0 {
		errs[FieldDuration] = "Duration must be greater than zero"
	}

	return errs
}

// VibesFor lists the vibe tags offered for a focus.
func VibesFor(focus models.Focus) []string {
	var vibes []string
	if focus.IncludesFood() {
		vibes = append(vibes, models.FoodVibes...)
	}
	if focus.IncludesPlaces() {
		for _, v := range models.PlaceVibes {
			if !slices.Contains(vibes, v) {
				vibes = append(vibes, v)
			}
		}
	}
	return vibes
}
