package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"booking-svc/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func setupAuthTest(t *testing.T) *gin.Engine {
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	handler := NewAuthHandler(config.AuthConfig{
		JWTSecret:     "test-secret",
		AdminEmail:    "admin@mimpibungalow.com",
		AdminPassword: "mimpi2024",
	}, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/login", handler.Login)
	router.GET("/auth/me", handler.Me)
	return router
}

func TestLogin_Success(t *testing.T) {
	router := setupAuthTest(t)

	w := postJSON(router, "/auth/login", `{"email":"admin@mimpibungalow.com","password":"mimpi2024"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Success || resp.Data.Token == "" {
		t.Errorf("Expected a signed token, got %s", w.Body.String())
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	router := setupAuthTest(t)

	w := postJSON(router, "/auth/login", `{"email":"admin@mimpibungalow.com","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	router := setupAuthTest(t)

	w := postJSON(router, "/auth/login", `{"email":"someone@example.com","password":"mimpi2024"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	router := setupAuthTest(t)

	w := postJSON(router, "/auth/login", `{"email":"admin@mimpibungalow.com"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestMe_ValidToken(t *testing.T) {
	router := setupAuthTest(t)

	login := postJSON(router, "/auth/login", `{"email":"admin@mimpibungalow.com","password":"mimpi2024"}`)
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(login.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse login response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Data.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
}

func TestMe_InvalidToken(t *testing.T) {
	router := setupAuthTest(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestMe_NoToken(t *testing.T) {
	router := setupAuthTest(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}
