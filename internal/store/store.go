// Package store holds durable state for the client: the local identity
// provider's user table and the per-device signed-in user record.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"toria/internal/models"
)

var (
	// ErrUserExists signals the email is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates a sign-in failure.
	ErrInvalidCredentials = errors.New("invalid email or password")

	dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateUser registers a new user and returns it without a token.
func (s *Store) CreateUser(ctx context.Context, email, password, displayName string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)
	if email == "" || password == "" {
		return models.User{}, fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Email, user.DisplayName, hash); err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

// Authenticate validates credentials and returns the matching user.
func (s *Store) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var (
		user models.User
		hash []byte
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, avatar_url, email_verified, password_hash
		FROM users
		WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.DisplayName, &user.AvatarURL, &user.EmailVerified, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// SaveDeviceUser persists the signed-in user for a device, replacing any
// previous record.
func (s *Store) SaveDeviceUser(ctx context.Context, deviceID string, user models.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode device user: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO device_sessions (device_id, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (device_id) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = NOW()
	`, deviceID, payload); err != nil {
		return fmt.Errorf("save device user: %w", err)
	}
	return nil
}

// LoadDeviceUser returns the persisted user for a device. The boolean is
// false when no record exists.
func (s *Store) LoadDeviceUser(ctx context.Context, deviceID string) (models.User, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload
		FROM device_sessions
		WHERE device_id = $1
	`, deviceID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, false, nil
		}
		return models.User{}, false, fmt.Errorf("load device user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return models.User{}, false, fmt.Errorf("decode device user: %w", err)
	}
	return user, true, nil
}

// DeleteDeviceUser erases the persisted user. Deleting a missing record is
// not an error.
func (s *Store) DeleteDeviceUser(ctx context.Context, deviceID string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM device_sessions
		WHERE device_id = $1
	`, deviceID); err != nil {
		return fmt.Errorf("delete device user: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
