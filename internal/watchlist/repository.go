package watchlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GavinBoller/WatchlistVercel-sub001/internal/database"
)

var (
	ErrEntryNotFound = errors.New("watchlist entry not found")
	ErrNotOwner      = errors.New("entry belongs to another user")
)

const entryColumns = "id, user_id, movie_id, title, poster_path, status, rating, notes, created_at, updated_at"

// Repository handles all database operations for watchlist entries
type Repository struct {
	db database.Service
}

// NewRepository creates a new watchlist repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

// ListByUser returns every entry owned by userID, ordered by id ascending so
// results are stable across identical reads.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM watchlist_entries
		WHERE user_id = $1
		ORDER BY id ASC
	`, entryColumns)

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		slog.Error("Failed to query watchlist", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return entries, nil
}

// Create inserts a new entry owned by userID.
func (r *Repository) Create(ctx context.Context, userID int64, req CreateEntryRequest) (*Entry, error) {
	status := req.Status
	if status == "" {
		status = StatusWantToWatch
	}

	query := fmt.Sprintf(`
		INSERT INTO watchlist_entries (user_id, movie_id, title, poster_path, status, rating, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s
	`, entryColumns)

	entry := &Entry{}
	err := r.db.QueryRow(ctx, query,
		userID, req.MovieID, req.Title, req.PosterPath, status, req.Rating, req.Notes,
	).Scan(
		&entry.ID, &entry.UserID, &entry.MovieID, &entry.Title, &entry.PosterPath,
		&entry.Status, &entry.Rating, &entry.Notes, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		slog.Error("Failed to create watchlist entry", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	return entry, nil
}

// GetByID retrieves a single entry regardless of owner. Callers decide
// whether the requesting identity may see it.
func (r *Repository) GetByID(ctx context.Context, entryID int64) (*Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM watchlist_entries
		WHERE id = $1
	`, entryColumns)

	entry := &Entry{}
	err := r.db.QueryRow(ctx, query, entryID).Scan(
		&entry.ID, &entry.UserID, &entry.MovieID, &entry.Title, &entry.PosterPath,
		&entry.Status, &entry.Rating, &entry.Notes, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return entry, nil
}

// Update modifies an entry if userID owns it. Only fields set in the patch
// are touched.
func (r *Repository) Update(ctx context.Context, entryID, userID int64, patch UpdateEntryRequest) (*Entry, error) {
	existing, err := r.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrNotOwner
	}

	setClauses := []string{}
	args := []any{}
	argPos := 1

	addSet := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if patch.Title != nil {
		addSet("title", *patch.Title)
	}
	if patch.PosterPath != nil {
		addSet("poster_path", *patch.PosterPath)
	}
	if patch.Status != nil {
		addSet("status", *patch.Status)
	}
	if patch.Rating != nil {
		addSet("rating", *patch.Rating)
	}
	if patch.Notes != nil {
		addSet("notes", *patch.Notes)
	}

	if len(setClauses) == 0 {
		return existing, nil
	}

	query := fmt.Sprintf(`
		UPDATE watchlist_entries
		SET %s, updated_at = NOW()
		WHERE id = $%d AND user_id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argPos, argPos+1, entryColumns)
	args = append(args, entryID, userID)

	entry := &Entry{}
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&entry.ID, &entry.UserID, &entry.MovieID, &entry.Title, &entry.PosterPath,
		&entry.Status, &entry.Rating, &entry.Notes, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		slog.Error("Failed to update watchlist entry", "entry_id", entryID, "error", err)
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	return entry, nil
}

// Delete removes an entry if userID owns it.
func (r *Repository) Delete(ctx context.Context, entryID, userID int64) error {
	existing, err := r.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return ErrNotOwner
	}

	res, err := r.db.Exec(ctx, `DELETE FROM watchlist_entries WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		slog.Error("Failed to delete watchlist entry", "entry_id", entryID, "error", err)
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

// scanEntry scans the standard entry column set from a row iterator.
func scanEntry(rows *sql.Rows) (*Entry, error) {
	entry := &Entry{}
	err := rows.Scan(
		&entry.ID, &entry.UserID, &entry.MovieID, &entry.Title, &entry.PosterPath,
		&entry.Status, &entry.Rating, &entry.Notes, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}
