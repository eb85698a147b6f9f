package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health", s.healthHandler)

	// Credential endpoints are open but throttled per IP.
	credLimit := RateLimitByIP(rate.Limit(0.5), 10)
	authRoutes := r.Group("/api/auth")
	{
		authRoutes.POST("/register", credLimit, s.authHandler.Register)
		authRoutes.POST("/login", credLimit, s.authHandler.Login)
		authRoutes.POST("/logout", s.authHandler.Logout)
		authRoutes.GET("/status", s.authHandler.Status)
	}

	// Admin user management.
	adminUsers := r.Group("/api/auth/users")
	adminUsers.Use(RequireSession(s.sessions), RequireAdmin())
	{
		adminUsers.GET("", s.authHandler.ListUsers)
		adminUsers.DELETE("/:id", s.authHandler.DeleteUser)
	}

	// Everything below requires a valid session.
	api := r.Group("/api")
	api.Use(RequireSession(s.sessions))
	{
		api.GET("/watchlist/:userId", s.watchlistHandler.GetWatchlist)
		api.POST("/watchlist", s.watchlistHandler.AddEntry)
		api.PATCH("/watchlist/:id", s.watchlistHandler.UpdateEntry)
		api.DELETE("/watchlist/:id", s.watchlistHandler.RemoveEntry)

		api.GET("/movies/search", s.movieSearchHandler)

		posters := api.Group("/posters")
		{
			posters.POST("/upload-url", s.posterUploadURLHandler)
			posters.POST("/download-url", s.posterDownloadURLHandler)
		}
	}

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	response := make(map[string]any)

	response["database"] = s.db.Health()

	sessionHealth := map[string]string{"status": "up"}
	if err := s.sessionStore.Ping(c.Request.Context()); err != nil {
		sessionHealth["status"] = "down"
		sessionHealth["error"] = err.Error()
	}
	response["sessions"] = sessionHealth

	if s.storage != nil {
		storageHealth := map[string]string{"status": "up"}
		if err := s.storage.Health(c.Request.Context()); err != nil {
			storageHealth["status"] = "down"
			storageHealth["error"] = err.Error()
		}
		response["storage"] = storageHealth
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) movieSearchHandler(c *gin.Context) {
	if s.moviesHandler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "movie search is not configured"})
		return
	}
	s.moviesHandler.Search(c)
}

const (
	posterUploadTTL   = 15 * time.Minute
	posterDownloadTTL = 1 * time.Hour
)

type posterUploadURLRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

type posterUploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	PosterKey string `json:"poster_key"`
	ExpiresAt int64  `json:"expires_at"`
}

type posterDownloadURLRequest struct {
	PosterKey string `json:"poster_key" binding:"required"`
}

type posterDownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
	ExpiresAt   int64  `json:"expires_at"`
}

// posterUploadURLHandler issues a presigned URL for uploading a custom poster
func (s *Server) posterUploadURLHandler(c *gin.Context) {
	if s.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "poster storage is not configured"})
		return
	}

	var req posterUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	posterKey := fmt.Sprintf("posters/%s-%s", uuid.New().String(), req.Filename)

	uploadURL, err := s.storage.GenerateUploadURL(c.Request.Context(), posterKey, req.ContentType, posterUploadTTL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, posterUploadURLResponse{
		UploadURL: uploadURL,
		PosterKey: posterKey,
		ExpiresAt: time.Now().Add(posterUploadTTL).Unix(),
	})
}

// posterDownloadURLHandler issues a presigned URL for fetching a stored poster
func (s *Server) posterDownloadURLHandler(c *gin.Context) {
	if s.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "poster storage is not configured"})
		return
	}

	var req posterDownloadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	downloadURL, err := s.storage.GenerateDownloadURL(c.Request.Context(), req.PosterKey, posterDownloadTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate download URL"})
		return
	}

	c.JSON(http.StatusOK, posterDownloadURLResponse{
		DownloadURL: downloadURL,
		ExpiresAt:   time.Now().Add(posterDownloadTTL).Unix(),
	})
}
