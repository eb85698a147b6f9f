package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GavinBoller/WatchlistVercel-sub001/internal/session"
)

const sessionCookie = "session_id"

// Handler handles authentication and admin user-management HTTP requests.
type Handler struct {
	service       Service
	sessionMgr    session.Manager
	sessionMaxAge int
	cookieSecure  bool
}

// NewHandler creates a new authentication handler
func NewHandler(service Service, sessionMgr session.Manager, sessionMaxAge int, cookieSecure bool) *Handler {
	return &Handler{
		service:       service,
		sessionMgr:    sessionMgr,
		sessionMaxAge: sessionMaxAge,
		cookieSecure:  cookieSecure,
	}
}

// Register handles POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrUsernameExists) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "username_taken",
				"field": "username",
			})
			return
		}
		slog.Error("Failed to register user", "username", req.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}

	if !h.startSession(c, user) {
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{User: user})
}

// Login handles POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		slog.Error("Failed to authenticate user", "username", req.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}

	if !h.startSession(c, user) {
		return
	}

	c.JSON(http.StatusOK, AuthResponse{User: user})
}

// Logout handles POST /api/auth/logout.
// Logout is best-effort: the cookie is cleared and 200 returned even when the
// session store is unreachable, so the client never stays in a logged-in
// looking state.
func (h *Handler) Logout(c *gin.Context) {
	sessionID, err := c.Cookie(sessionCookie)
	if err == nil {
		if err := h.sessionMgr.Delete(c.Request.Context(), sessionID); err != nil {
			slog.Warn("Failed to delete session on logout", "session_id", sessionID, "error", err)
		}
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Status handles GET /api/auth/status.
// It always answers 200: any failure along the way (no cookie, store error,
// expired or malformed session) degrades to isAuthenticated=false rather
// than an error status.
func (h *Handler) Status(c *gin.Context) {
	sessionID, err := c.Cookie(sessionCookie)
	if err != nil {
		c.JSON(http.StatusOK, StatusResponse{IsAuthenticated: false})
		return
	}

	sess, err := h.sessionMgr.Get(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusOK, StatusResponse{IsAuthenticated: false})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		IsAuthenticated: true,
		User: &UserSummary{
			ID:       sess.UserID,
			Username: sess.Username,
			Role:     sess.Role,
		},
	})
}

// ListUsers handles GET /api/auth/users (admin only, enforced by middleware)
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list users", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// DeleteUser handles DELETE /api/auth/users/:id (admin only, enforced by middleware)
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id must be a positive integer"})
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), userID); err != nil {
		slog.Error("Failed to delete user", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete user"})
		return
	}

	c.Status(http.StatusNoContent)
}

// startSession creates a session for the user and sets the cookie. On failure
// it writes a 500 response and returns false.
func (h *Handler) startSession(c *gin.Context, user *User) bool {
	sessionID, err := h.sessionMgr.Create(c.Request.Context(), user.ID, user.Username, user.Role, h.sessionMaxAge)
	if err != nil {
		slog.Error("Failed to create session", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return false
	}

	c.SetCookie(sessionCookie, sessionID, h.sessionMaxAge, "/", "", h.cookieSecure, true)
	return true
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", h.cookieSecure, true)
}
