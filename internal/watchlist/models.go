package watchlist

import "time"

// Watch status values for an entry.
const (
	StatusWantToWatch = "want_to_watch"
	StatusWatching    = "watching"
	StatusWatched     = "watched"
)

// ValidStatus reports whether s is one of the known watch statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusWantToWatch, StatusWatching, StatusWatched:
		return true
	}
	return false
}

// Entry represents a tracked movie on a user's watchlist.
type Entry struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	MovieID    int64     `json:"movieId"`
	Title      string    `json:"title"`
	PosterPath string    `json:"posterPath"`
	Status     string    `json:"status"`
	Rating     *int      `json:"rating,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CreateEntryRequest is the request body for adding a movie to the watchlist.
// The owning user comes from the session, never from the body.
type CreateEntryRequest struct {
	MovieID    int64   `json:"movieId" binding:"required,gt=0"`
	Title      string  `json:"title" binding:"required,max=500"`
	PosterPath string  `json:"posterPath" binding:"max=500"`
	Status     string  `json:"status" binding:"omitempty,oneof=want_to_watch watching watched"`
	Rating     *int    `json:"rating,omitempty" binding:"omitempty,min=1,max=10"`
	Notes      *string `json:"notes,omitempty" binding:"omitempty,max=2000"`
}

// UpdateEntryRequest is the request body for modifying an entry. Only the
// provided fields change.
type UpdateEntryRequest struct {
	Title      *string `json:"title,omitempty" binding:"omitempty,max=500"`
	PosterPath *string `json:"posterPath,omitempty" binding:"omitempty,max=500"`
	Status     *string `json:"status,omitempty" binding:"omitempty,oneof=want_to_watch watching watched"`
	Rating     *int    `json:"rating,omitempty" binding:"omitempty,min=1,max=10"`
	Notes      *string `json:"notes,omitempty" binding:"omitempty,max=2000"`
}
