package watchlist

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for watchlist entries.
type Handler struct {
	service Service
}

// NewHandler creates a new watchlist handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetWatchlist handles GET /api/watchlist/:userId.
// The path id must be a positive integer and must match the authenticated
// user unless the requester is an admin; both checks run before any store
// access.
func (h *Handler) GetWatchlist(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id must be a positive integer"})
		return
	}

	requesterID, role, ok := requestIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if requesterID != userID && role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot view another user's watchlist"})
		return
	}

	entries, err := h.service.GetWatchlist(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Failed to fetch watchlist", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch watchlist"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// AddEntry handles POST /api/watchlist
func (h *Handler) AddEntry(c *gin.Context) {
	requesterID, _, ok := requestIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.service.AddEntry(c.Request.Context(), requesterID, req)
	if err != nil {
		slog.Error("Failed to add watchlist entry", "user_id", requesterID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add entry"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// UpdateEntry handles PATCH /api/watchlist/:id
func (h *Handler) UpdateEntry(c *gin.Context) {
	requesterID, _, ok := requestIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || entryID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry id must be a positive integer"})
		return
	}

	var patch UpdateEntryRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.service.UpdateEntry(c.Request.Context(), entryID, requesterID, patch)
	if err != nil {
		h.writeEntryError(c, entryID, err, "update")
		return
	}

	c.JSON(http.StatusOK, entry)
}

// RemoveEntry handles DELETE /api/watchlist/:id
func (h *Handler) RemoveEntry(c *gin.Context) {
	requesterID, _, ok := requestIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || entryID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry id must be a positive integer"})
		return
	}

	if err := h.service.RemoveEntry(c.Request.Context(), entryID, requesterID); err != nil {
		h.writeEntryError(c, entryID, err, "delete")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) writeEntryError(c *gin.Context, entryID int64, err error, op string) {
	switch {
	case errors.Is(err, ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
	case errors.Is(err, ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot modify another user's entry"})
	default:
		slog.Error("Watchlist operation failed", "op", op, "entry_id", entryID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

// requestIdentity reads the identity injected by the session middleware.
func requestIdentity(c *gin.Context) (int64, string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, "", false
	}
	userID, ok := v.(int64)
	if !ok {
		return 0, "", false
	}
	return userID, c.GetString("role"), true
}
