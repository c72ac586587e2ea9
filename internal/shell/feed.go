package shell

import (
	"context"
	"errors"
	"strings"

	"toria/internal/discover"
	"toria/internal/models"
	"toria/internal/tripapi"
)

func (s *Shell) handleLocation(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return s.usageErr("location")
	}
	s.deps.Feed.SetLocation(strings.Join(args, " "))
	return s.handleReels(ctx, nil)
}

func (s *Shell) handleCategory(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usageErr("category")
	}
	category := models.Category(args[0])
	if strings.EqualFold(args[0], "all") {
		category = ""
	}
	if err := s.deps.Feed.SetCategory(category); err != nil {
		return err
	}
	return s.handleReels(ctx, nil)
}

func (s *Shell) handleReels(ctx context.Context, _ []string) error {
	if err := s.deps.Feed.Refresh(ctx); err != nil {
		if errors.Is(err, discover.ErrSuperseded) {
			return nil
		}
		return err
	}
	reels := s.deps.Feed.Reels()
	if len(reels) == 0 {
		s.printf("No reels found.\n")
		return nil
	}
	for _, r := range reels {
		s.printf("  [%s] %s (%s, %s) up:%d saves:%d\n", r.ID, r.Title, r.Type, r.Location, r.Upvotes, r.Saves)
	}
	return nil
}

func (s *Shell) handleView(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usageErr("view")
	}
	r, err := s.deps.Feed.View(ctx, args[0])
	if err != nil {
		return err
	}
	s.printf("%s\n  %s\n  %s | %s\n", r.Title, r.Description, r.Type, r.Location)
	if len(r.Tags) > 0 {
		s.printf("  tags: %s\n", strings.Join(r.Tags, ", "))
	}
	for _, key := range []string{"price", "hygiene", "vibe", "timing"} {
		if v := r.MetadataString(key); v != "" {
			s.printf("  %s: %s\n", key, v)
		}
	}
	s.printf("  %s\n", r.InstagramURL)
	return nil
}

func (s *Shell) handleUpvote(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usageErr("upvote")
	}
	if err := s.deps.Feed.Upvote(ctx, args[0]); err != nil {
		return err
	}
	s.printf("Upvoted!\n")
	return nil
}

func (s *Shell) handleSave(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usageErr("save")
	}
	if err := s.deps.Feed.Save(ctx, args[0]); err != nil {
		return err
	}
	s.printf("Saved!\n")
	return nil
}

func (s *Shell) handleAdd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usageErr("add")
	}
	added, err := s.deps.Feed.AddToPlan(ctx, args[0])
	if err != nil {
		return err
	}
	if !added {
		s.printf("Already in your plan.\n")
		return nil
	}
	s.printf("Added to plan. %d item(s) pending.\n", len(s.deps.Pending.Items()))
	return nil
}

func (s *Shell) handlePending(_ context.Context, args []string) error {
	switch {
	case len(args) == 2 && args[0] == "remove":
		if !s.deps.Pending.Remove(args[1]) {
			s.printf("Not pending: %s\n", args[1])
			return nil
		}
	case len(args) == 1 && args[0] == "clear":
		s.deps.Pending.Clear()
	case len(args) != 0:
		return s.usageErr("pending")
	}

	items := s.deps.Pending.Items()
	if len(items) == 0 {
		s.printf("Nothing pending.\n")
		return nil
	}
	for _, it := range items {
		s.printf("  [%s] %s (%s, %s)\n", it.ID, it.Title, it.Category, it.Location)
	}
	return nil
}

func (s *Shell) handleShare(ctx context.Context, args []string) error {
	if len(args) < 4 {
		return s.usageErr("share")
	}
	if _, err := s.deps.Session.Require(); err != nil {
		return err
	}
	reel, err := s.deps.Backend.CreateReel(ctx, tripapi.NewReel{
		InstagramURL: args[0],
		Type:         models.Category(args[1]),
		Location:     args[2],
		Title:        strings.Join(args[3:], " "),
		Tags:         []string{},
	})
	if err != nil {
		return err
	}
	s.printf("Shared reel %s.\n", reel.ID)
	return nil
}
