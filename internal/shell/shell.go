// Package shell is the interactive front end. It reads one command per line,
// runs it to completion and prints the resulting state, acting as the single
// event loop that owns the process-wide stores.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"toria/internal/apperr"
	"toria/internal/models"
	"toria/internal/planner"
	"toria/internal/session"
	"toria/internal/tripapi"
	"toria/internal/walkthrough"
)

// SessionService is the session store.
type SessionService interface {
	SignIn(ctx context.Context, email, password string) (models.User, error)
	SignUp(ctx context.Context, email, password, displayName string) (models.User, error)
	SignOut(ctx context.Context) error
	CurrentUser() (models.User, bool)
	Require() (models.User, error)
}

// PendingService is the pending-selection store.
type PendingService interface {
	Items() []models.PendingItem
	Remove(id string) bool
	Clear()
}

// FeedService is the discover feed.
type FeedService interface {
	SetLocation(location string)
	SetCategory(category models.Category) error
	Refresh(ctx context.Context) error
	Reels() []models.Reel
	View(ctx context.Context, reelID string) (models.Reel, error)
	Upvote(ctx context.Context, reelID string) error
	Save(ctx context.Context, reelID string) error
	AddToPlan(ctx context.Context, reelID string) (bool, error)
}

// LibraryService serves the cached user queries.
type LibraryService interface {
	DayPlans(ctx context.Context, userID string, status models.PlanStatus) ([]models.DayPlan, error)
	SavedReels(ctx context.Context, userID string) ([]models.Reel, error)
	UpdateStatus(ctx context.Context, userID, planID string, status models.PlanStatus) error
}

// BackendService covers the calls the shell makes directly.
type BackendService interface {
	Health(ctx context.Context) (*tripapi.HealthStatus, error)
	CreateReel(ctx context.Context, reel tripapi.NewReel) (*models.Reel, error)
	RegisterPushToken(ctx context.Context, userID, token string) (*tripapi.Ack, error)
	UpdateNotificationPreferences(ctx context.Context, userID string, prefs map[string]bool) (*tripapi.Ack, error)
	ChatFromDayPlans(ctx context.Context, userID, itineraryID, message string) (*tripapi.ChatReply, error)
}

// WalkthroughOpener starts a walkthrough for a plan.
type WalkthroughOpener func(ctx context.Context, userID, planID string) (*walkthrough.Walkthrough, error)

// Deps are the collaborators of the shell.
type Deps struct {
	Session         SessionService
	Pending         PendingService
	Feed            FeedService
	Planner         *planner.Planner
	Library         LibraryService
	Backend         BackendService
	OpenWalkthrough WalkthroughOpener
	Directions      walkthrough.Opener
	Logger          zerolog.Logger
}

type handler func(ctx context.Context, args []string) error

// Shell is the command loop.
type Shell struct {
	deps     Deps
	out      io.Writer
	commands map[string]handler
	usage    map[string]string
	active   *walkthrough.Walkthrough
	done     bool
}

// New creates a shell writing to out.
func New(deps Deps, out io.Writer) *Shell {
	s := &Shell{deps: deps, out: out}
	s.routes()
	return s
}

func (s *Shell) routes() {
	s.commands = map[string]handler{}
	s.usage = map[string]string{}
	add := func(name, usage string, h handler) {
		s.commands[name] = h
		s.usage[name] = usage
	}

	add("help", "help", s.handleHelp)
	add("quit", "quit", s.handleQuit)
	add("health", "health", s.handleHealth)

	add("signin", "signin <email> <password>", s.handleSignIn)
	add("signup", "signup <email> <password> <display name>", s.handleSignUp)
	add("signout", "signout", s.handleSignOut)
	add("whoami", "whoami", s.handleWhoAmI)

	add("location", "location <city>", s.handleLocation)
	add("category", "category <Food|Place|all>", s.handleCategory)
	add("reels", "reels (refresh and list)", s.handleReels)
	add("view", "view <reel id>", s.handleView)
	add("upvote", "upvote <reel id>", s.handleUpvote)
	add("save", "save <reel id>", s.handleSave)
	add("add", "add <reel id> (stage for the next plan)", s.handleAdd)
	add("pending", "pending [remove <id>|clear]", s.handlePending)
	add("share", "share <url> <Food|Place> <location> <title>", s.handleShare)

	add("plan", "plan <show|place|addplace|rmplace|with|focus|duration|date|diet|budget|vibe|recommend|build|toggle|create|dismiss|reset> ...", s.handlePlan)

	add("plans", "plans [current|upcoming|past]", s.handlePlans)
	add("saved", "saved", s.handleSaved)
	add("status", "status <plan id> <current|upcoming|past>", s.handleStatus)
	add("ask", "ask [plan id] <message> (chat about your plans)", s.handleAsk)

	add("start", "start <plan id>", s.handleStart)
	add("complete", "complete <stop id>", s.handleComplete)
	add("like", "like [feedback]", s.handleLike)
	add("dislike", "dislike [feedback]", s.handleDislike)
	add("cancel", "cancel", s.handleCancel)
	add("stops", "stops", s.handleStops)
	add("directions", "directions", s.handleDirections)
	add("chat", "chat <message>", s.handleChat)
	add("transcript", "transcript", s.handleTranscript)
	add("end", "end", s.handleEnd)

	add("notify", "notify <push token>", s.handleNotify)
	add("prefs", "prefs <key=true|false>...", s.handlePrefs)
}

// Run reads commands from in until EOF, quit or ctx is done. Lines are read
// on a separate goroutine so cancellation does not wait for the next line.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() {
		if s.active != nil {
			s.active.Close()
		}
	}()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	s.printf("Toria. Type 'help' for commands.\n")
	for !s.done {
		s.printf("> ")
		select {
		case <-ctx.Done():
			s.printf("\n")
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			s.Exec(ctx, line)
		}
	}
	return nil
}

// Exec runs one command line.
func (s *Shell) Exec(ctx context.Context, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	h, ok := s.commands[strings.ToLower(fields[0])]
	if !ok {
		s.printf("Unknown command %q. Type 'help'.\n", fields[0])
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.deps.Logger.Error().Interface("panic", r).Str("command", fields[0]).Msg("recovered from panic")
			s.printf("Something went wrong. Please try again.\n")
		}
	}()
	if err := h(ctx, fields[1:]); err != nil {
		s.renderError(err)
	}
}

// renderError turns an error into the notice or screen the traveller sees.
func (s *Shell) renderError(err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		s.printf("%s\n%s\n", session.AuthRequiredTitle, session.AuthRequiredMessage)
	case errors.As(err, &verr):
		s.printf("Missing Information\n")
		fields := make([]string, 0, len(verr.Fields))
		for f := range verr.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			s.printf("  %s: %s\n", f, verr.Fields[f])
		}
	case errors.Is(err, errUsage):
		s.printf("%v\n", err)
	case errors.Is(err, apperr.ErrNotFound):
		s.printf("Not found. %s\n", apperr.UserMessage(err))
	case errors.Is(err, apperr.ErrAuth), errors.Is(err, apperr.ErrNetwork), errors.Is(err, apperr.ErrTimeout),
		errors.Is(err, apperr.ErrServer), errors.Is(err, apperr.ErrMalformedResponse):
		s.printf("%s\n", apperr.UserMessage(err))
	default:
		s.printf("Error: %v\n", err)
	}
	s.deps.Logger.Debug().Err(err).Msg("command failed")
}

var errUsage = errors.New("usage")

func (s *Shell) usageErr(cmd string) error {
	return fmt.Errorf("%w: %s", errUsage, s.usage[cmd])
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) handleHelp(context.Context, []string) error {
	names := make([]string, 0, len(s.usage))
	for name := range s.usage {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.printf("  %s\n", s.usage[name])
	}
	return nil
}

func (s *Shell) handleQuit(context.Context, []string) error {
	s.done = true
	return nil
}

func (s *Shell) handleHealth(ctx context.Context, _ []string) error {
	status, err := s.deps.Backend.Health(ctx)
	if err != nil {
		return err
	}
	s.printf("%s: %s\n", status.Message, status.Status)
	return nil
}
