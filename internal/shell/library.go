package shell

import (
	"context"
	"strings"

	"toria/internal/models"
)

func (s *Shell) handlePlans(ctx context.Context, args []string) error {
	user, err := s.deps.Session.Require()
	if err != nil {
		return err
	}

	status := models.PlanStatusCurrent
	if len(args) > 0 {
		status = models.PlanStatus(strings.ToLower(args[0]))
		if !status.Valid() {
			return s.usageErr("plans")
		}
	}

	plans, err := s.deps.Library.DayPlans(ctx, user.ID, status)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		s.printf("No %s plans.\n", status)
		return nil
	}
	for _, p := range plans {
		s.printf("%s  %s  (%s, %d stop(s))\n", p.ID, p.Title, p.City, len(p.Stops))
	}
	return nil
}

func (s *Shell) handleSaved(ctx context.Context, _ []string) error {
	user, err := s.deps.Session.Require()
	if err != nil {
		return err
	}

	reels, err := s.deps.Library.SavedReels(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(reels) == 0 {
		s.printf("No saved reels.\n")
		return nil
	}
	for _, r := range reels {
		s.printf("%s  %s  (%s, %s)\n", r.ID, r.Title, r.Location, r.Type)
	}
	return nil
}

func (s *Shell) handleStatus(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return s.usageErr("status")
	}
	status := models.PlanStatus(strings.ToLower(args[1]))
	if !status.Valid() {
		return s.usageErr("status")
	}

	user, err := s.deps.Session.Require()
	if err != nil {
		return err
	}
	if err := s.deps.Library.UpdateStatus(ctx, user.ID, args[0], status); err != nil {
		return err
	}
	s.printf("Plan %s is now %s.\n", args[0], status)
	return nil
}

// handleAsk talks to the planning assistant. A leading argument naming one of
// the traveller's itineraries scopes the question to it.
func (s *Shell) handleAsk(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return s.usageErr("ask")
	}
	user, err := s.deps.Session.Require()
	if err != nil {
		return err
	}

	var itineraryID string
	if len(args) > 1 && s.ownsPlan(ctx, user.ID, args[0]) {
		itineraryID, args = args[0], args[1:]
	}

	reply, err := s.deps.Backend.ChatFromDayPlans(ctx, user.ID, itineraryID, strings.Join(args, " "))
	if err != nil {
		return err
	}
	s.printf("%s\n", reply.Message)
	for _, it := range reply.Itineraries {
		s.printf("  %s  %s  (%s)\n", it.ID, it.Title, it.City)
	}
	return nil
}

func (s *Shell) ownsPlan(ctx context.Context, userID, planID string) bool {
	for _, status := range []models.PlanStatus{models.PlanStatusCurrent, models.PlanStatusUpcoming, models.PlanStatusPast} {
		plans, err := s.deps.Library.DayPlans(ctx, userID, status)
		if err != nil {
			continue
		}
		for _, p := range plans {
			if p.ID == planID {
				return true
			}
		}
	}
	return false
}
