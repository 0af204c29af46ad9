package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classmeet/classmeet-api/internal/models"
	"github.com/classmeet/classmeet-api/internal/service"
)

const testCookieName = "auth_token"

func signToken(t *testing.T, secret string, role models.UserRole) string {
	t.Helper()
	now := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID: "user-1",
		Role:   role,
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authTestRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	authService := service.NewAuthService(nil, nil, nil, service.AuthConfig{Secret: secret, Expiry: time.Hour})
	router := gin.New()
	router.GET("/whoami", Auth(authService, testCookieName), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID, "role": claims.Role})
	})
	return router
}

func TestAuthAcceptsSessionCookie(t *testing.T) {
	router := authTestRouter("middleware-secret")
	token := signToken(t, "middleware-secret", models.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user-1")
}

func TestAuthFallsBackToBearerHeader(t *testing.T) {
	router := authTestRouter("middleware-secret")
	token := signToken(t, "middleware-secret", models.RoleTeacher)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	router := authTestRouter("middleware-secret")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHENTICATED")
}

func TestAuthRejectsForgedToken(t *testing.T) {
	router := authTestRouter("middleware-secret")
	token := signToken(t, "other-secret", models.RoleTeacher)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireBlocksMissingCapability(t *testing.T) {
	router := authTestRouter("middleware-secret")
	router.POST("/teachers-only",
		Auth(mustAuthService("middleware-secret"), testCookieName),
		Require(models.CapOwnClass),
		func(c *gin.Context) { c.Status(http.StatusNoContent) })

	token := signToken(t, "middleware-secret", models.RoleStudent)
	req := httptest.NewRequest(http.MethodPost, "/teachers-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func mustAuthService(secret string) *service.AuthService {
	return service.NewAuthService(nil, nil, nil, service.AuthConfig{Secret: secret, Expiry: time.Hour})
}
