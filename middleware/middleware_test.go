package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"torchtally/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func setupRouter(commissionerOnly bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/")
	group.Use(AuthMiddleware(testSecret))
	if commissionerOnly {
		group.Use(RequireCommissioner())
	}
	group.GET("/ping", func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router
}

func doRequest(t *testing.T, router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	token, err := services.GenerateToken(testSecret, 5, false)
	require.NoError(t, err)

	w := doRequest(t, setupRouter(false), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	w := doRequest(t, setupRouter(false), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsNonBearerHeader(t *testing.T) {
	w := doRequest(t, setupRouter(false), "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	w := doRequest(t, setupRouter(false), "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	token, err := services.GenerateToken("other-secret", 5, false)
	require.NoError(t, err)

	w := doRequest(t, setupRouter(false), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireCommissionerAllowsCommissioner(t *testing.T) {
	token, err := services.GenerateToken(testSecret, 1, true)
	require.NoError(t, err)

	w := doRequest(t, setupRouter(true), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireCommissionerRejectsRegularPlayer(t *testing.T) {
	token, err := services.GenerateToken(testSecret, 2, false)
	require.NoError(t, err)

	w := doRequest(t, setupRouter(true), "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
