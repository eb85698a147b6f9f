// Package auth implements account management for the watchlist server:
// registration, password authentication and the admin user operations.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/GavinBoller/WatchlistVercel-sub001/internal/database"
)

var (
	// ErrInvalidCredentials is returned when the username/password pair is wrong.
	// Unknown usernames and bad passwords are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when a user does not exist
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameExists is returned when the username is already taken
	ErrUsernameExists = errors.New("username already taken")
)

// Service defines the account operations exposed to handlers.
type Service interface {
	Register(ctx context.Context, username, password string) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	GetUserByID(ctx context.Context, userID int64) (*User, error)
	ListUsers(ctx context.Context) ([]UserSummary, error)
	DeleteUser(ctx context.Context, userID int64) error
}

type service struct {
	db             database.Service
	bootstrapAdmin bool
}

// NewService creates the account service. When bootstrapAdmin is set, the
// first account registered on an admin-less database gets the admin role.
func NewService(db database.Service, bootstrapAdmin bool) Service {
	return &service{
		db:             db,
		bootstrapAdmin: bootstrapAdmin,
	}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *service) Register(ctx context.Context, username, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := RoleUser
	if s.bootstrapAdmin {
		hasAdmin, err := s.hasAdmin(ctx)
		if err != nil {
			return nil, err
		}
		if !hasAdmin {
			role = RoleAdmin
		}
	}

	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, username, role, created_at, updated_at
	`

	var user User
	err = s.db.QueryRow(ctx, query, username, string(hash), role).Scan(
		&user.ID, &user.Username, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("Created user", "user_id", user.ID, "username", user.Username, "role", user.Role)

	return &user, nil
}

// Authenticate verifies a username/password pair and returns the account.
func (s *service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	query := `
		SELECT id, username, password_hash, role, created_at, updated_at
		FROM users
		WHERE username = $1
	`

	var user User
	err := s.db.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return &user, nil
}

// GetUserByID retrieves a user by identifier.
func (s *service) GetUserByID(ctx context.Context, userID int64) (*User, error) {
	query := `
		SELECT id, username, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user User
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&user.ID, &user.Username, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// ListUsers returns every account without credential material, ordered by id.
func (s *service) ListUsers(ctx context.Context) ([]UserSummary, error) {
	query := `
		SELECT id, username, role, created_at
		FROM users
		ORDER BY id ASC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []UserSummary{}
	for rows.Next() {
		var u UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// DeleteUser removes an account. Deleting a missing id is a no-op success so
// repeated admin cleanups stay idempotent. Watchlist rows cascade in the
// schema.
func (s *service) DeleteUser(ctx context.Context, userID int64) error {
	res, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		slog.Debug("Delete of missing user treated as no-op", "user_id", userID)
		return nil
	}

	slog.Info("Deleted user", "user_id", userID)
	return nil
}

func (s *service) hasAdmin(ctx context.Context) (bool, error) {
	var one int
	err := s.db.QueryRow(ctx, `SELECT 1 FROM users WHERE role = 'admin' LIMIT 1`).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check for admin: %w", err)
	}
	return true, nil
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
