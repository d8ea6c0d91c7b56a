package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkesici/greenhouse-manager/internal/auth"
	"github.com/tkesici/greenhouse-manager/internal/models"
)

const testSecret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func issueToken(t *testing.T, expiry time.Duration, user *models.User) string {
	t.Helper()
	token, err := auth.NewTokenIssuer(testSecret, expiry).Issue(user)
	require.NoError(t, err)
	return token
}

func authRouter() (*gin.Engine, *auth.TokenIssuer) {
	issuer := auth.NewTokenIssuer(testSecret, time.Hour)
	router := gin.New()
	router.GET("/protected", Auth(issuer), func(c *gin.Context) {
		tenantID := c.GetInt64(ContextTenantID)
		c.JSON(http.StatusOK, gin.H{"tenant_id": tenantID})
	})
	return router, issuer
}

func TestAuthMissingHeader(t *testing.T) {
	router, _ := authRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthBadHeaderFormat(t *testing.T) {
	router, _ := authRouter()

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "token-without-scheme"},
		{"wrong scheme", "Basic dXNlcjpwdw=="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/protected", nil)
			req.Header.Set("Authorization", tt.header)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthInvalidToken(t *testing.T) {
	router, _ := authRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")
}

func TestAuthExpiredToken(t *testing.T) {
	router, _ := authRouter()

	token := issueToken(t, -time.Minute, &models.User{ID: 1, TenantID: 1, Role: models.RoleUser})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token expired")
}

func TestAuthValidTokenSetsClaims(t *testing.T) {
	router, _ := authRouter()

	token := issueToken(t, time.Hour, &models.User{ID: 5, TenantID: 9, Role: models.RoleUser})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tenant_id": 9}`, w.Body.String())
}

func tenantAccessRouter() *gin.Engine {
	issuer := auth.NewTokenIssuer(testSecret, time.Hour)
	router := gin.New()
	router.GET("/tenant/:tenantId/data", Auth(issuer), TenantAccess(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestTenantAccessOwnTenant(t *testing.T) {
	router := tenantAccessRouter()
	token := issueToken(t, time.Hour, &models.User{ID: 1, TenantID: 3, Role: models.RoleUser})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/tenant/3/data", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTenantAccessOtherTenantForbidden(t *testing.T) {
	router := tenantAccessRouter()
	token := issueToken(t, time.Hour, &models.User{ID: 1, TenantID: 3, Role: models.RoleUser})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/tenant/4/data", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTenantAccessAdminBypass(t *testing.T) {
	router := tenantAccessRouter()
	token := issueToken(t, time.Hour, &models.User{ID: 1, TenantID: 3, Role: models.RoleAdmin})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/tenant/4/data", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTenantAccessInvalidTenantParam(t *testing.T) {
	router := tenantAccessRouter()
	token := issueToken(t, time.Hour, &models.User{ID: 1, TenantID: 3, Role: models.RoleUser})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/tenant/abc/data", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func deviceRouter(plainText bool) *gin.Engine {
	router := gin.New()
	router.GET("/device", DeviceKey("s3cret", plainText), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestDeviceKeyMatch(t *testing.T) {
	router := deviceRouter(false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/device?key=s3cret", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeviceKeyMismatch(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"wrong key", "?key=wrong"},
		{"missing key", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := deviceRouter(false)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/device"+tt.query, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Contains(t, w.Body.String(), "Unauthorized device request")
		})
	}
}

func TestDeviceKeyMismatchPlainText(t *testing.T) {
	router := deviceRouter(true)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/device?key=wrong", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "UNAUTHORIZED", w.Body.String())
}
