package movies

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Searcher is the metadata lookup used by the handler.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Movie, error)
}

// Handler handles movie metadata HTTP requests.
type Handler struct {
	searcher Searcher
}

// NewHandler creates a new movies handler
func NewHandler(searcher Searcher) *Handler {
	return &Handler{searcher: searcher}
}

// Search handles GET /api/movies/search?query=
func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}

	movies, err := h.searcher.Search(c.Request.Context(), query)
	if err != nil {
		slog.Error("Movie search failed", "query", query, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "movie search is currently unavailable"})
		return
	}

	c.JSON(http.StatusOK, movies)
}
