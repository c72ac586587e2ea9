package shell

import (
	"context"
	"errors"
	"strings"

	"toria/internal/apperr"
	"toria/internal/walkthrough"
)

var errNoWalkthrough = errors.New("no walkthrough in progress, type 'start <plan id>'")

func (s *Shell) walk() (*walkthrough.Walkthrough, error) {
	if s.active == nil {
		return nil, errNoWalkthrough
	}
	return s.active, nil
}

func (s *Shell) handleStart(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return s.usageErr("start")
	}
	user, err := s.deps.Session.Require()
	if err != nil {
		return err
	}

	w, err := s.deps.OpenWalkthrough(ctx, user.ID, args[0])
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.printf("Day plan not found.\n")
			return nil
		}
		return err
	}
	if s.active != nil {
		s.active.Close()
	}
	s.active = w

	plan := w.Plan()
	s.printf("Start my day: %s (%s theme)\n", plan.Title, w.Theme())
	s.renderStops(w)
	return nil
}

func (s *Shell) handleStops(context.Context, []string) error {
	w, err := s.walk()
	if err != nil {
		return err
	}
	s.renderStops(w)
	return nil
}

func (s *Shell) renderStops(w *walkthrough.Walkthrough) {
	for _, st := range w.Stops() {
		mark := " "
		if st.Completed {
			mark = "x"
		}
		s.printf("  [%s] %s  %s (%s) %s\n", mark, st.Stop.ID, st.Stop.Name, st.Stop.Category, st.Stop.TimeWindow)
		if st.Liked != nil {
			verdict := "liked"
			if !*st.Liked {
				verdict = "disliked"
			}
			s.printf("      %s %s\n", verdict, st.Feedback)
		}
	}
	p := w.Progress()
	s.printf("Progress: %d/%d (%.0f%%)\n", p.Completed, p.Total, p.Ratio()*100)
}

func (s *Shell) handleComplete(_ context.Context, args []string) error {
	if len(args) != 1 {
		return s.usageErr("complete")
	}
	w, err := s.walk()
	if err != nil {
		return err
	}
	if err := w.RequestCompletion(args[0]); err != nil {
		return err
	}
	stop, _ := w.Prompt()
	s.printf("How was %s? Type 'like' or 'dislike' with optional feedback, or 'cancel'.\n", stop.Name)
	return nil
}

func (s *Shell) handleLike(ctx context.Context, args []string) error {
	return s.feedback(ctx, true, args)
}

func (s *Shell) handleDislike(ctx context.Context, args []string) error {
	return s.feedback(ctx, false, args)
}

func (s *Shell) feedback(ctx context.Context, liked bool, args []string) error {
	w, err := s.walk()
	if err != nil {
		return err
	}
	notice, err := w.SubmitFeedback(ctx, liked, strings.Join(args, " "))
	if err != nil {
		return err
	}
	s.printf("%s: %s\n", notice.Title, notice.Message)
	if !liked {
		s.printLastMessages(w, 1)
	}
	p := w.Progress()
	s.printf("Progress: %d/%d\n", p.Completed, p.Total)
	return nil
}

func (s *Shell) handleCancel(context.Context, []string) error {
	w, err := s.walk()
	if err != nil {
		return err
	}
	w.CancelFeedback()
	return nil
}

func (s *Shell) handleDirections(ctx context.Context, _ []string) error {
	w, err := s.walk()
	if err != nil {
		return err
	}
	link, err := w.DirectionsURL()
	if err != nil {
		return err
	}
	s.printf("%s\n", link)
	if s.deps.Directions == nil {
		return nil
	}
	notice, err := w.OpenDirections(ctx, s.deps.Directions)
	if err != nil {
		return err
	}
	if notice.Title != "" {
		s.printf("%s: %s\n", notice.Title, notice.Message)
	}
	return nil
}

func (s *Shell) handleChat(ctx context.Context, args []string) error {
	w, err := s.walk()
	if err != nil {
		return err
	}
	if _, err := w.Chat().Send(ctx, strings.Join(args, " ")); err != nil {
		return err
	}
	s.printLastMessages(w, 1)
	return nil
}

func (s *Shell) handleTranscript(context.Context, []string) error {
	w, err := s.walk()
	if err != nil {
		return err
	}
	s.printLastMessages(w, -1)
	return nil
}

// printLastMessages prints the last n chat messages, or all of them when n
// is negative.
func (s *Shell) printLastMessages(w *walkthrough.Walkthrough, n int) {
	msgs := w.Chat().Transcript()
	if n >= 0 && n < len(msgs) {
		msgs = msgs[len(msgs)-n:]
	}
	for _, m := range msgs {
		s.printf("%s: %s\n", m.Author, m.Text)
	}
}

func (s *Shell) handleEnd(context.Context, []string) error {
	w, err := s.walk()
	if err != nil {
		return err
	}
	w.Close()
	s.active = nil
	s.printf("Walkthrough ended.\n")
	return nil
}
