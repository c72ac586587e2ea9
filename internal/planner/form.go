package planner

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"toria/internal/models"
)

var (
	// ErrFormLocked is returned for edits while a request is in flight or
	// after a plan was created.
	ErrFormLocked = errors.New("form is locked")
	// ErrNoSuchPlace is returned for an out of range place row.
	ErrNoSuchPlace = errors.New("no such place row")
)

func newForm() models.TripRequest {
	return models.TripRequest{Places: []string{""}}
}

func cloneForm(r models.TripRequest) models.TripRequest {
	r.Places = slices.Clone(r.Places)
	r.Preferences.Vibes = slices.Clone(r.Preferences.Vibes)
	if r.Duration != nil {
		d := *r.Duration
		r.Duration = &d
	}
	return r
}

// edit applies fn to the form when it is editable and clears field errors
// that no longer apply.
func (p *Planner) edit(fn func(f *models.TripRequest) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case Submitting, Creating, Created:
		return fmt.Errorf("%w while %s", ErrFormLocked, p.state)
	}

	if err := fn(&p.form); err != nil {
		return err
	}

	if len(p.fieldErrors) > 0 {
		current := Validate(p.form)
		for field := range p.fieldErrors {
			if _, still := current[field]; !still {
				delete(p.fieldErrors, field)
			}
		}
	}
	return nil
}

// SetPlace sets the place row at index.
func (p *Planner) SetPlace(index int, value string) error {
	return p.edit(func(f *models.TripRequest) error {
		if index < 0 || index >= len(f.Places) {
			return fmt.Errorf("%w: %d", ErrNoSuchPlace, index)
		}
		f.Places[index] = value
		return nil
	})
}

// AddPlace appends an empty place row.
func (p *Planner) AddPlace() error {
	return p.edit(func(f *models.TripRequest) error {
		f.Places = append(f.Places, "")
		return nil
	})
}

// RemovePlace deletes a place row. The last row is never removed.
func (p *Planner) RemovePlace(index int) error {
	return p.edit(func(f *models.TripRequest) error {
		if index < 0 || index >= len(f.Places) {
			return fmt.Errorf("%w: %d", ErrNoSuchPlace, index)
		}
		if len(f.Places) == 1 {
			return nil
		}
		f.Places = slices.Delete(f.Places, index, index+1)
		return nil
	})
}

// SetCompanion selects who the traveller is going with.
func (p *Planner) SetCompanion(c models.Companion) error {
	if !c.Valid() {
		return fmt.Errorf("unknown companion %q", c)
	}
	return p.edit(func(f *models.TripRequest) error {
		f.Companion = c
		return nil
	})
}

// SetFocus selects the focus. Preferences that do not apply to the new focus
// are dropped.
func (p *Planner) SetFocus(focus models.Focus) error {
	if !focus.Valid() {
		return fmt.Errorf("unknown focus %q", focus)
	}
	return p.edit(func(f *models.TripRequest) error {
		f.Focus = focus
		if !focus.IncludesFood() {
			f.Preferences.Diet = ""
		}
		allowed := VibesFor(focus)
		f.Preferences.Vibes = slices.DeleteFunc(f.Preferences.Vibes, func(v string) bool {
			return !slices.Contains(allowed, v)
		})
		return nil
	})
}

// SetDuration sets the outing length. A nil duration clears it.
func (p *Planner) SetDuration(d *models.Duration) error {
	return p.edit(func(f *models.TripRequest) error {
		if d == nil {
			f.Duration = nil
			return nil
		}
		copied := *d
		switch copied.Unit {
		case "":
			copied.Unit = models.UnitHours
		case models.UnitHours, models.UnitDays:
		default:
			return fmt.Errorf("unknown duration unit %q", copied.Unit)
		}
		f.Duration = &copied
		return nil
	})
}

// SetDateTime sets the target date and time as entered.
func (p *Planner) SetDateTime(value string) error {
	return p.edit(func(f *models.TripRequest) error {
		f.DateTime = strings.TrimSpace(value)
		return nil
	})
}

// SetDiet selects a diet. Diets only apply when the focus includes food.
func (p *Planner) SetDiet(diet string) error {
	return p.edit(func(f *models.TripRequest) error {
		if diet == "" {
			f.Preferences.Diet = ""
			return nil
		}
		if !f.Focus.IncludesFood() {
			return fmt.Errorf("diet applies only to a food focus")
		}
		if !slices.Contains(models.Diets, diet) {
			return fmt.Errorf("unknown diet %q", diet)
		}
		f.Preferences.Diet = diet
		return nil
	})
}

// SetBudget sets the free-text budget tier.
func (p *Planner) SetBudget(budget string) error {
	return p.edit(func(f *models.TripRequest) error {
		f.Preferences.Budget = strings.TrimSpace(budget)
		return nil
	})
}

// ToggleVibe adds or removes a vibe tag offered for the current focus.
func (p *Planner) ToggleVibe(vibe string) error {
	return p.edit(func(f *models.TripRequest) error {
		if i := slices.Index(f.Preferences.Vibes, vibe); i >= 0 {
			f.Preferences.Vibes = slices.Delete(f.Preferences.Vibes, i, i+1)
			return nil
		}
		if !slices.Contains(VibesFor(f.Focus), vibe) {
			return fmt.Errorf("vibe %q is not offered for focus %q", vibe, f.Focus)
		}
		f.Preferences.Vibes = append(f.Preferences.Vibes, vibe)
		return nil
	})
}
