// Package identity adapts an identity backend to the session store. Local is
// a self-hosted provider backed by the Postgres user table; any other
// provider only needs to satisfy the same two methods.
package identity

import (
	"context"
	"errors"
	"fmt"

	"toria/internal/apperr"
	"toria/internal/models"
	"toria/internal/store"
)

// UserStore is the credential storage used by Local.
type UserStore interface {
	CreateUser(ctx context.Context, email, password, displayName string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(user models.User) (string, error)
}

// Local authenticates against a UserStore and issues signed tokens.
type Local struct {
	users  UserStore
	tokens TokenIssuer
}

// NewLocal wires a Local provider.
func NewLocal(users UserStore, tokens TokenIssuer) *Local {
	return &Local{users: users, tokens: tokens}
}

// SignIn checks credentials and returns the user with a fresh token.
func (l *Local) SignIn(ctx context.Context, email, password string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}

	user, err := l.users.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			return models.User{}, fmt.Errorf("sign in: %w", apperr.ErrAuth)
		}
		return models.User{}, fmt.Errorf("sign in: %w", err)
	}
	return l.withToken(user)
}

// SignUp registers a new user and returns it with a fresh token.
func (l *Local) SignUp(ctx context.Context, email, password, displayName string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}

	user, err := l.users.CreateUser(ctx, email, password, displayName)
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return models.User{}, fmt.Errorf("sign up: %w", apperr.ErrAuth)
		}
		return models.User{}, fmt.Errorf("sign up: %w", err)
	}
	return l.withToken(user)
}

func (l *Local) withToken(user models.User) (models.User, error) {
	token, err := l.tokens.Issue(user)
	if err != nil {
		return models.User{}, fmt.Errorf("issue token: %w", err)
	}
	user.Token = token
	return user, nil
}
