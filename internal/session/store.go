// Package session holds the signed-in traveller for the lifetime of the
// process and guards protected actions.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"toria/internal/apperr"
	"toria/internal/models"
)

// ErrNotAuthenticated is returned by Require when nobody is signed in.
var ErrNotAuthenticated = errors.New("authentication required")

// Notice shown in place of a protected screen.
const (
	AuthRequiredTitle   = "Authentication Required"
	AuthRequiredMessage = "Please sign in to continue"
)

// Identity is the identity backend.
type Identity interface {
	SignIn(ctx context.Context, email, password string) (models.User, error)
	SignUp(ctx context.Context, email, password, displayName string) (models.User, error)
}

// Storage is durable device storage for the single signed-in user record.
type Storage interface {
	SaveDeviceUser(ctx context.Context, deviceID string, user models.User) error
	LoadDeviceUser(ctx context.Context, deviceID string) (models.User, bool, error)
	DeleteDeviceUser(ctx context.Context, deviceID string) error
}

// TokenVerifier checks a persisted identity token on restore.
type TokenVerifier interface {
	Verify(token string) error
}

// Registrar records a newly signed-up user with the backend.
type Registrar interface {
	RegisterUser(ctx context.Context, user models.User) error
}

// Store owns the current user. All mutation goes through its methods.
type Store struct {
	mu   sync.RWMutex
	user *models.User

	identity  Identity
	storage   Storage
	deviceID  string
	verifier  TokenVerifier
	registrar Registrar
	onSignOut []func()
	logger    zerolog.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithDeviceID names the device record in storage.
func WithDeviceID(id string) Option {
	return func(s *Store) { s.deviceID = id }
}

// WithVerifier discards persisted users whose token no longer verifies.
func WithVerifier(v TokenVerifier) Option {
	return func(s *Store) { s.verifier = v }
}

// WithRegistrar registers new users with the backend after sign-up.
func WithRegistrar(r Registrar) Option {
	return func(s *Store) { s.registrar = r }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// OnSignOut registers a hook run after every sign-out.
func OnSignOut(fn func()) Option {
	return func(s *Store) { s.onSignOut = append(s.onSignOut, fn) }
}

// New creates a Store with nobody signed in.
func New(identity Identity, storage Storage, opts ...Option) *Store {
	s := &Store{
		identity: identity,
		storage:  storage,
		deviceID: "default",
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted user, if any. A record whose token fails
// verification is erased.
func (s *Store) Restore(ctx context.Context) error {
	user, ok, err := s.storage.LoadDeviceUser(ctx, s.deviceID)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !ok {
		return nil
	}

	if s.verifier != nil {
		if err := s.verifier.Verify(user.Token); err != nil {
			s.logger.Info().Err(err).Str("user_id", user.ID).Msg("discarding persisted session")
			if err := s.storage.DeleteDeviceUser(ctx, s.deviceID); err != nil {
				s.logger.Warn().Err(err).Msg("erase stale session")
			}
			return nil
		}
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	s.logger.Debug().Str("user_id", user.ID).Msg("session restored")
	return nil
}

// SignIn authenticates with the identity backend.
func (s *Store) SignIn(ctx context.Context, email, password string) (models.User, error) {
	fields := map[string]string{}
	if strings.TrimSpace(email) == "" {
		fields["email"] = "Email is required"
	}
	if password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		return models.User{}, apperr.NewValidation(fields)
	}

	user, err := s.identity.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return models.User{}, s.identityFailure("sign in", err)
	}

	s.establish(ctx, user)
	return user, nil
}

// SignUp registers with the identity backend and signs the new user in.
func (s *Store) SignUp(ctx context.Context, email, password, displayName string) (models.User, error) {
	fields := map[string]string{}
	if strings.TrimSpace(email) == "" {
		fields["email"] = "Email is required"
	}
	if password == "" {
		fields["password"] = "Password is required"
	}
	if strings.TrimSpace(displayName) == "" {
		fields["display_name"] = "Name is required"
	}
	if len(fields) > 0 {
		return models.User{}, apperr.NewValidation(fields)
	}

	user, err := s.identity.SignUp(ctx, strings.TrimSpace(email), password, strings.TrimSpace(displayName))
	if err != nil {
		return models.User{}, s.identityFailure("sign up", err)
	}

	s.establish(ctx, user)

	if s.registrar != nil {
		if err := s.registrar.RegisterUser(ctx, user); err != nil {
			s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("register user with backend")
		}
	}
	return user, nil
}

// identityFailure keeps transport failures classified and collapses every
// other rejection into a generic auth error.
func (s *Store) identityFailure(op string, err error) error {
	switch {
	case errors.Is(err, apperr.ErrNetwork), errors.Is(err, apperr.ErrTimeout),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Debug().Err(err).Str("op", op).Msg("identity backend rejected credentials")
	return fmt.Errorf("%s: %w", op, apperr.ErrAuth)
}

func (s *Store) establish(ctx context.Context, user models.User) {
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	if err := s.storage.SaveDeviceUser(ctx, s.deviceID, user); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("persist session")
	}
}

// SignOut erases the stored user and resets memory. Signing out when nobody
// is signed in is a no-op that still clears storage.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	var err error
	if delErr := s.storage.DeleteDeviceUser(ctx, s.deviceID); delErr != nil {
		err = fmt.Errorf("sign out: %w", delErr)
	}

	for _, fn := range s.onSignOut {
		fn()
	}
	return err
}

// CurrentUser returns the signed-in user.
func (s *Store) CurrentUser() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether someone is signed in.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.CurrentUser()
	return ok
}

// Require is the guard every protected action calls first.
func (s *Store) Require() (models.User, error) {
	user, ok := s.CurrentUser()
	if !ok {
		return models.User{}, ErrNotAuthenticated
	}
	return user, nil
}

// Token returns the bearer token of the signed-in user, or "".
func (s *Store) Token() string {
	user, _ := s.CurrentUser()
	return user.Token
}
