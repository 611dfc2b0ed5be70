package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"opc_crm_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type testJWTConfig struct{ secret string }

func (c testJWTConfig) GetJWTAccessSecret() string { return c.secret }

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newAuthEngine(secret string, seen *Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/me", AuthRequired(testJWTConfig{secret: secret}), func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		*seen = id
		c.Status(http.StatusNoContent)
	})
	return engine
}

func TestAuthRequiredExtractsIdentity(t *testing.T) {
	userID := uuid.New()
	var seen Identity
	engine := newAuthEngine("secret", &seen)

	token := signToken(t, "secret", jwt.MapClaims{
		"sub":      userID.String(),
		"type":     "access",
		"username": "mgarcia",
		"roles":    []string{"admin"},
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if seen.UserID() != userID || seen.Username() != "mgarcia" || !seen.HasRole("admin") {
		t.Errorf("identity = %v %q %v", seen.UserID(), seen.Username(), seen.Roles())
	}
}

func TestAuthRequiredRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header"},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": uuid.NewString(), "type": "access"})},
		{name: "refresh token", header: "Bearer " + signToken(t, "secret", jwt.MapClaims{"sub": uuid.NewString(), "type": "refresh"})},
		{name: "bad subject", header: "Bearer " + signToken(t, "secret", jwt.MapClaims{"sub": "nope", "type": "access"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen Identity
			engine := newAuthEngine("secret", &seen)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestHandleErrorMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err  error
		want int
	}{
		{err: apperr.NotFound("lead not found"), want: http.StatusNotFound},
		{err: apperr.Gone("original lead no longer exists"), want: http.StatusGone},
		{err: apperr.Conflict("phone already registered"), want: http.StatusConflict},
		{err: http.ErrHandlerTimeout, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		if !HandleError(c, tt.err) {
			t.Fatalf("HandleError(%v) returned false", tt.err)
		}
		if rec.Code != tt.want {
			t.Errorf("HandleError(%v) status = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
}
