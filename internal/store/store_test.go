package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"toria/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestCreateUserSuccess(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO users (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
	`)).
		WithArgs(sqlmock.AnyArg(), "asha@example.com", "Asha", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := s.CreateUser(context.Background(), "  Asha@Example.com ", "secret", "Asha")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == "" || user.Email != "asha@example.com" {
		t.Fatalf("unexpected user %#v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := s.CreateUser(context.Background(), "asha@example.com", "secret", "Asha")
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestCreateUserRequiresFields(t *testing.T) {
	s, mock := newMockStore(t)

	if _, err := s.CreateUser(context.Background(), " ", "secret", "Asha"); err == nil {
		t.Fatalf("expected error for blank email")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query expected: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	query := regexp.QuoteMeta(`
		SELECT id, email, display_name, avatar_url, email_verified, password_hash
		FROM users
		WHERE email = $1
	`)
	columns := []string{"id", "email", "display_name", "avatar_url", "email_verified", "password_hash"}

	tests := []struct {
		name     string
		password string
		setup    func(sqlmock.Sqlmock)
		wantErr  error
	}{
		{
			name:     "valid credentials",
			password: "secret",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(query).WithArgs("asha@example.com").
					WillReturnRows(sqlmock.NewRows(columns).AddRow("u1", "asha@example.com", "Asha", "", true, hash))
			},
		},
		{
			name:     "wrong password",
			password: "nope",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(query).WithArgs("asha@example.com").
					WillReturnRows(sqlmock.NewRows(columns).AddRow("u1", "asha@example.com", "Asha", "", true, hash))
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			password: "secret",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(query).WithArgs("asha@example.com").WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			tc.setup(mock)

			user, err := s.Authenticate(context.Background(), "asha@example.com", tc.password)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate: %v", err)
			}
			if user.ID != "u1" || !user.EmailVerified {
				t.Fatalf("unexpected user %#v", user)
			}
		})
	}
}

func TestDeviceUserLifecycle(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	user := models.User{ID: "u1", Email: "asha@example.com", Token: "tok"}
	payload, _ := json.Marshal(user)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO device_sessions (device_id, payload, updated_at)`)).
		WithArgs("dev", payload).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload`)).
		WithArgs("dev").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM device_sessions`)).
		WithArgs("dev").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload`)).
		WithArgs("dev").
		WillReturnError(sql.ErrNoRows)

	if err := s.SaveDeviceUser(ctx, "dev", user); err != nil {
		t.Fatalf("SaveDeviceUser: %v", err)
	}

	got, ok, err := s.LoadDeviceUser(ctx, "dev")
	if err != nil || !ok {
		t.Fatalf("LoadDeviceUser: ok=%v err=%v", ok, err)
	}
	if got != user {
		t.Fatalf("got %#v, want %#v", got, user)
	}

	if err := s.DeleteDeviceUser(ctx, "dev"); err != nil {
		t.Fatalf("DeleteDeviceUser: %v", err)
	}

	if _, ok, err := s.LoadDeviceUser(ctx, "dev"); err != nil || ok {
		t.Fatalf("expected no record after delete, got ok=%v err=%v", ok, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
