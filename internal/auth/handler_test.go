package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GavinBoller/WatchlistVercel-sub001/internal/session"
)

// Mock account service for handler tests
type mockAuthService struct {
	registerFunc func(ctx context.Context, username, password string) (*User, error)
	authFunc     func(ctx context.Context, username, password string) (*User, error)
	listFunc     func(ctx context.Context) ([]UserSummary, error)
	deleteFunc   func(ctx context.Context, userID int64) error
	deleted      []int64
}

func (m *mockAuthService) Register(ctx context.Context, username, password string) (*User, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, username, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if m.authFunc != nil {
		return m.authFunc(ctx, username, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) GetUserByID(ctx context.Context, userID int64) (*User, error) {
	return nil, ErrUserNotFound
}

func (m *mockAuthService) ListUsers(ctx context.Context) ([]UserSummary, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []UserSummary{}, nil
}

func (m *mockAuthService) DeleteUser(ctx context.Context, userID int64) error {
	m.deleted = append(m.deleted, userID)
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, userID)
	}
	return nil
}

// Mock session manager for handler tests
type mockSessions struct {
	createErr error
	deleteErr error
	getFunc   func(ctx context.Context, sessionID string) (*session.Session, error)
	deleted   []string
}

func (m *mockSessions) Create(ctx context.Context, userID int64, username, role string, maxAge int) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	return "new-session-id", nil
}

func (m *mockSessions) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, sessionID)
	}
	return nil, session.ErrSessionNotFound
}

func (m *mockSessions) Delete(ctx context.Context, sessionID string) error {
	m.deleted = append(m.deleted, sessionID)
	return m.deleteErr
}

func (m *mockSessions) Validate(ctx context.Context, sessionID string) (bool, error) {
	sess, err := m.Get(ctx, sessionID)
	return sess != nil, err
}

func authRouter(svc Service, sessions session.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, sessions, 3600, false)
	r := gin.New()
	grp := r.Group("/api/auth")
	grp.POST("/register", h.Register)
	grp.POST("/login", h.Login)
	grp.POST("/logout", h.Logout)
	grp.GET("/status", h.Status)
	grp.GET("/users", h.ListUsers)
	grp.DELETE("/users/:id", h.DeleteUser)
	return r
}

func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	return nil
}

func TestRegisterHandler(t *testing.T) {
	svc := &mockAuthService{
		registerFunc: func(ctx context.Context, username, password string) (*User, error) {
			return &User{ID: 1, Username: username, Role: RoleUser}, nil
		},
	}
	r := authRouter(svc, &mockSessions{})

	body := `{"username": "gavin", "password": "hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	cookie := sessionCookieFrom(t, w)
	if cookie == nil || cookie.Value != "new-session-id" {
		t.Fatalf("expected session cookie, got %v", cookie)
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
}

func TestRegisterHandlerConflict(t *testing.T) {
	svc := &mockAuthService{
		registerFunc: func(ctx context.Context, username, password string) (*User, error) {
			return nil, ErrUsernameExists
		},
	}
	r := authRouter(svc, &mockSessions{})

	body := `{"username": "gavin", "password": "hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "username_taken" || resp["field"] != "username" {
		t.Errorf("unexpected conflict body: %v", resp)
	}
}

func TestRegisterHandlerValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"short username", `{"username": "ab", "password": "hunter2hunter2"}`},
		{"short password", `{"username": "gavin", "password": "short"}`},
		{"missing fields", `{}`},
	}

	r := authRouter(&mockAuthService{}, &mockSessions{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	svc := &mockAuthService{
		authFunc: func(ctx context.Context, username, password string) (*User, error) {
			return &User{ID: 7, Username: username, Role: RoleUser}, nil
		},
	}
	r := authRouter(svc, &mockSessions{})

	body := `{"username": "gavin", "password": "hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if cookie := sessionCookieFrom(t, w); cookie == nil || cookie.Value != "new-session-id" {
		t.Errorf("expected session cookie, got %v", cookie)
	}

	var resp AuthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.User == nil || resp.User.ID != 7 {
		t.Errorf("unexpected response user: %+v", resp.User)
	}
}

func TestLoginHandlerInvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		authFunc: func(ctx context.Context, username, password string) (*User, error) {
			return nil, ErrInvalidCredentials
		},
	}
	r := authRouter(svc, &mockSessions{})

	body := `{"username": "gavin", "password": "wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
	if cookie := sessionCookieFrom(t, w); cookie != nil {
		t.Errorf("no session cookie should be set, got %v", cookie)
	}
}

func TestLoginHandlerSessionStoreDown(t *testing.T) {
	svc := &mockAuthService{
		authFunc: func(ctx context.Context, username, password string) (*User, error) {
			return &User{ID: 7, Username: username, Role: RoleUser}, nil
		},
	}
	r := authRouter(svc, &mockSessions{createErr: errors.New("redis: connection refused")})

	body := `{"username": "gavin", "password": "hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
}

func TestLogoutHandler(t *testing.T) {
	sessions := &mockSessions{}
	r := authRouter(&mockAuthService{}, sessions)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "sess-123"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if len(sessions.deleted) != 1 || sessions.deleted[0] != "sess-123" {
		t.Errorf("expected session sess-123 to be deleted, got %v", sessions.deleted)
	}

	cookie := sessionCookieFrom(t, w)
	if cookie == nil || cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Errorf("expected cleared session cookie, got %v", cookie)
	}
}

func TestLogoutHandlerStoreFailure(t *testing.T) {
	// Logout succeeds even when the store delete fails.
	sessions := &mockSessions{deleteErr: errors.New("redis: connection refused")}
	r := authRouter(&mockAuthService{}, sessions)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "sess-123"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if cookie := sessionCookieFrom(t, w); cookie == nil || cookie.MaxAge >= 0 {
		t.Errorf("expected cleared session cookie, got %v", cookie)
	}
}

func TestLogoutHandlerNoCookie(t *testing.T) {
	sessions := &mockSessions{}
	r := authRouter(&mockAuthService{}, sessions)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if len(sessions.deleted) != 0 {
		t.Errorf("no delete expected without a cookie, got %v", sessions.deleted)
	}
}

func TestStatusHandler(t *testing.T) {
	sessions := &mockSessions{
		getFunc: func(ctx context.Context, sessionID string) (*session.Session, error) {
			return &session.Session{
				ID:        sessionID,
				UserID:    7,
				Username:  "gavin",
				Role:      "user",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	r := authRouter(&mockAuthService{}, sessions)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "sess-123"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp StatusResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.IsAuthenticated {
		t.Error("expected isAuthenticated true")
	}
	if resp.User == nil || resp.User.ID != 7 || resp.User.Username != "gavin" {
		t.Errorf("unexpected user: %+v", resp.User)
	}
}

func TestStatusHandlerDegradesToAnonymous(t *testing.T) {
	cases := []struct {
		name    string
		cookie  bool
		getFunc func(ctx context.Context, sessionID string) (*session.Session, error)
	}{
		{"no cookie", false, nil},
		{"unknown session", true, func(ctx context.Context, sessionID string) (*session.Session, error) {
			return nil, session.ErrSessionNotFound
		}},
		{"expired session", true, func(ctx context.Context, sessionID string) (*session.Session, error) {
			return nil, session.ErrSessionExpired
		}},
		{"store failure", true, func(ctx context.Context, sessionID string) (*session.Session, error) {
			return nil, errors.New("redis: connection refused")
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := authRouter(&mockAuthService{}, &mockSessions{getFunc: tc.getFunc})

			req := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
			if tc.cookie {
				req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "sess-123"})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			// Status never errors; it reports anonymous instead.
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}

			var resp StatusResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.IsAuthenticated {
				t.Error("expected isAuthenticated false")
			}
			if resp.User != nil {
				t.Errorf("expected no user, got %+v", resp.User)
			}
		})
	}
}

func TestListUsersHandler(t *testing.T) {
	svc := &mockAuthService{
		listFunc: func(ctx context.Context) ([]UserSummary, error) {
			return []UserSummary{
				{ID: 1, Username: "admin", Role: RoleAdmin},
				{ID: 2, Username: "gavin", Role: RoleUser},
			}, nil
		},
	}
	r := authRouter(svc, &mockSessions{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/users", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var users []UserSummary
	if err := json.NewDecoder(w.Body).Decode(&users); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	// Credential material never appears in the listing.
	if bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Error("response must not contain password material")
	}
}

func TestDeleteUserHandler(t *testing.T) {
	svc := &mockAuthService{}
	r := authRouter(svc, &mockSessions{})

	req := httptest.NewRequest(http.MethodDelete, "/api/auth/users/2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != 2 {
		t.Errorf("expected delete of user 2, got %v", svc.deleted)
	}
}

func TestDeleteUserHandlerBadID(t *testing.T) {
	svc := &mockAuthService{}
	r := authRouter(svc, &mockSessions{})

	for _, id := range []string{"abc", "-1", "0"} {
		req := httptest.NewRequest(http.MethodDelete, "/api/auth/users/"+id, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("id %q: expected status 400, got %d", id, w.Code)
		}
	}
	if len(svc.deleted) != 0 {
		t.Errorf("no deletes expected, got %v", svc.deleted)
	}
}
