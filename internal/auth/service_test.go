package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/GavinBoller/WatchlistVercel-sub001/internal/database"
)

func newMockService(t *testing.T, bootstrapAdmin bool) (Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(database.NewWithDB(db), bootstrapAdmin), mock
}

func userRow(id int64, username, role string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "username", "role", "created_at", "updated_at"}).
		AddRow(id, username, role, now, now)
}

func TestRegister(t *testing.T) {
	svc, mock := newMockService(t, false)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("gavin", sqlmock.AnyArg(), RoleUser).
		WillReturnRows(userRow(1, "gavin", RoleUser))

	user, err := svc.Register(context.Background(), "gavin", "hunter2hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 1 || user.Username != "gavin" || user.Role != RoleUser {
		t.Errorf("unexpected user: %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRegisterUsernameTaken(t *testing.T) {
	svc, mock := newMockService(t, false)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("gavin", sqlmock.AnyArg(), RoleUser).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	_, err := svc.Register(context.Background(), "gavin", "hunter2hunter2")
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("expected ErrUsernameExists, got %v", err)
	}
}

func TestRegisterBootstrapsFirstAdmin(t *testing.T) {
	svc, mock := newMockService(t, true)

	// No admin exists yet, so the first account gets the admin role.
	mock.ExpectQuery(`SELECT 1 FROM users WHERE role = 'admin'`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("gavin", sqlmock.AnyArg(), RoleAdmin).
		WillReturnRows(userRow(1, "gavin", RoleAdmin))

	user, err := svc.Register(context.Background(), "gavin", "hunter2hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != RoleAdmin {
		t.Errorf("expected admin role, got %s", user.Role)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRegisterSkipsBootstrapWhenAdminExists(t *testing.T) {
	svc, mock := newMockService(t, true)

	mock.ExpectQuery(`SELECT 1 FROM users WHERE role = 'admin'`).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("second", sqlmock.AnyArg(), RoleUser).
		WillReturnRows(userRow(2, "second", RoleUser))

	user, err := svc.Register(context.Background(), "second", "hunter2hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != RoleUser {
		t.Errorf("expected user role, got %s", user.Role)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, mock := newMockService(t, false)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now()
	mock.ExpectQuery(`SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE username = \$1`).
		WithArgs("gavin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at", "updated_at"}).
			AddRow(1, "gavin", string(hash), RoleUser, now, now))

	user, err := svc.Authenticate(context.Background(), "gavin", "hunter2hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 1 || user.Username != "gavin" {
		t.Errorf("unexpected user: %+v", user)
	}
	// The hash never leaves the service.
	if user.PasswordHash != "" {
		t.Error("expected password hash to be cleared")
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc, mock := newMockService(t, false)

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	now := time.Now()
	mock.ExpectQuery(`SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE username = \$1`).
		WithArgs("gavin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at", "updated_at"}).
			AddRow(1, "gavin", string(hash), RoleUser, now, now))

	_, err := svc.Authenticate(context.Background(), "gavin", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc, mock := newMockService(t, false)

	mock.ExpectQuery(`SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE username = \$1`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Authenticate(context.Background(), "nobody", "whatever")
	// Unknown usernames read the same as bad passwords.
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestGetUserByIDNotFound(t *testing.T) {
	svc, mock := newMockService(t, false)

	mock.ExpectQuery(`SELECT id, username, role, created_at, updated_at FROM users WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetUserByID(context.Background(), 99)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	svc, mock := newMockService(t, false)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, username, role, created_at FROM users ORDER BY id ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "role", "created_at"}).
			AddRow(1, "admin", RoleAdmin, now).
			AddRow(2, "gavin", RoleUser, now))

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].ID != 1 || users[1].ID != 2 {
		t.Errorf("users out of order: %+v", users)
	}
}

func TestDeleteUser(t *testing.T) {
	svc, mock := newMockService(t, false)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.DeleteUser(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteUserMissingIsNoOp(t *testing.T) {
	svc, mock := newMockService(t, false)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := svc.DeleteUser(context.Background(), 99); err != nil {
		t.Errorf("expected no-op success, got %v", err)
	}
}
