package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wellness-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("admin-secret")

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, role string, exp time.Time) string {
	t.Helper()
	claims := &models.Claims{
		Username: "ops",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func adminRouter(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AdminAuth(secret, zap.NewNop()), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("username"))
	})
	return r
}

func TestAdminAuth(t *testing.T) {
	future := time.Now().Add(time.Hour)
	tests := []struct {
		name   string
		secret []byte
		header string
		want   int
	}{
		{"valid admin", testSecret, "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, models.RoleAdmin, future), http.StatusOK},
		{"missing header", testSecret, "", http.StatusUnauthorized},
		{"bad format", testSecret, "Token abc", http.StatusUnauthorized},
		{"non admin", testSecret, "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, models.RoleUser, future), http.StatusUnauthorized},
		{"expired", testSecret, "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, models.RoleAdmin, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"wrong secret", testSecret, "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), models.RoleAdmin, future), http.StatusUnauthorized},
		{"wrong algorithm", testSecret, "Bearer " + signToken(t, jwt.SigningMethodHS512, testSecret, models.RoleAdmin, future), http.StatusUnauthorized},
		{"disabled", nil, "Bearer " + signToken(t, jwt.SigningMethodHS256, testSecret, models.RoleAdmin, future), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			adminRouter(tt.secret).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.example"}), RequestLogger(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
