package shell

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strconv"
	"strings"

	"toria/internal/apperr"
	"toria/internal/models"
	"toria/internal/planner"
)

func (s *Shell) handlePlan(ctx context.Context, args []string) error {
	if len(args) == 0 {
		s.renderPlan()
		return nil
	}

	p := s.deps.Planner
	rest := strings.Join(args[1:], " ")
	var err error

	switch strings.ToLower(args[0]) {
	case "show":
	case "place":
		if len(args) < 3 {
			return s.usageErr("plan")
		}
		var i int
		if i, err = strconv.Atoi(args[1]); err != nil {
			return s.usageErr("plan")
		}
		err = p.SetPlace(i, strings.Join(args[2:], " "))
	case "addplace":
		err = p.AddPlace()
	case "rmplace":
		var i int
		if len(args) != 2 {
			return s.usageErr("plan")
		}
		if i, err = strconv.Atoi(args[1]); err != nil {
			return s.usageErr("plan")
		}
		err = p.RemovePlace(i)
	case "with":
		err = p.SetCompanion(models.Companion(rest))
	case "focus":
		err = p.SetFocus(models.Focus(rest))
	case "duration":
		err = s.setDuration(args[1:])
	case "date":
		err = p.SetDateTime(rest)
	case "diet":
		err = p.SetDiet(rest)
	case "budget":
		err = p.SetBudget(rest)
	case "vibe":
		err = p.ToggleVibe(rest)
	case "recommend":
		err = p.GetRecommendations(ctx)
	case "build":
		err = p.BuildYourDay(ctx)
	case "toggle":
		err = p.ToggleSelection(rest)
	case "create":
		var plan *models.DayPlan
		if plan, err = p.CreatePlan(ctx); err == nil {
			s.renderPlan()
			s.printf("Created plan %s with %d stop(s). Type 'start %s' to begin.\n", plan.ID, len(plan.Stops), plan.ID)
			return nil
		}
	case "dismiss":
		err = p.Dismiss()
	case "reset":
		p.Reset()
	default:
		return s.usageErr("plan")
	}

	if err != nil {
		if errors.Is(err, planner.ErrSuperseded) {
			return nil
		}
		var verr *apperr.ValidationError
		if !errors.As(err, &verr) {
			s.renderPlan()
		}
		return err
	}
	s.renderPlan()
	return nil
}

func (s *Shell) setDuration(args []string) error {
	if len(args) == 0 {
		return s.deps.Planner.SetDuration(nil)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return s.usageErr("plan")
	}
	d := &models.Duration{Value: n}
	if len(args) > 1 {
		d.Unit = models.DurationUnit(args[1])
	}
	return s.deps.Planner.SetDuration(d)
}

func (s *Shell) renderPlan() {
	snap := s.deps.Planner.Snapshot()
	f := snap.Form

	if snap.Notice.Title != "" {
		s.printf("%s: %s\n", snap.Notice.Title, snap.Notice.Message)
	}
	s.printf("State: %s\n", snap.State)
	for i, place := range f.Places {
		s.printf("  place %d: %s\n", i, place)
	}
	s.printf("  with: %s  focus: %s", f.Companion, f.Focus)
	if f.Duration != nil {
		s.printf("  duration: %s", f.Duration)
	}
	if f.DateTime != "" {
		s.printf("  when: %s", f.DateTime)
	}
	s.printf("\n")
	if prefs := f.Preferences; prefs.Diet != "" || prefs.Budget != "" || len(prefs.Vibes) > 0 {
		s.printf("  diet: %s  budget: %s  vibes: %s\n", prefs.Diet, prefs.Budget, strings.Join(prefs.Vibes, ", "))
	}
	for _, field := range slices.Sorted(maps.Keys(snap.FieldErrors)) {
		s.printf("  ! %s: %s\n", field, snap.FieldErrors[field])
	}

	if snap.Message != "" {
		s.printf("%s\n", snap.Message)
	}
	for _, c := range snap.Candidates {
		mark := " "
		if c.Selected {
			mark = "x"
		}
		s.printf("  [%s] %s (%s) %s\n", mark, c.Stop.Name, c.Stop.Category, c.Stop.QuickInfo)
	}
	if snap.Guidance != "" && snap.State == planner.ShortlistReady {
		s.printf("%s\n", snap.Guidance)
	}
	if len(snap.Pending) > 0 && snap.State != planner.Editing {
		s.printf("  + %d pending item(s) from discover\n", len(snap.Pending))
	}
	if snap.CanCreate {
		s.printf("Type 'plan create' to create this plan.\n")
	}
}
