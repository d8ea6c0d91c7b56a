package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tkesici/greenhouse-manager/internal/auth"
	"github.com/tkesici/greenhouse-manager/internal/metrics"
	"github.com/tkesici/greenhouse-manager/internal/models"
)

const (
	ContextUserID   = "user_id"
	ContextTenantID = "tenant_id"
	ContextRole     = "role"
	ContextClaims   = "claims"
)

// TokenVerifier decodes and validates a bearer token. *auth.TokenIssuer
// satisfies it.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Auth validates the Authorization bearer token and stores the decoded claims
// in the request context. Routes behind this middleware can trust
// ContextTenantID and ContextRole without re-reading the database.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			metrics.IncrementAuthFailures("missing_token")
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			metrics.IncrementAuthFailures("invalid_token")
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := verifier.Verify(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				metrics.IncrementAuthFailures("expired_token")
				c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Token expired"})
			} else {
				metrics.IncrementAuthFailures("invalid_token")
				c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Invalid token"})
			}
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextTenantID, claims.TenantID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// TenantAccess ensures the :tenantId URL parameter matches the token's tenant.
// Admins may access any tenant. Must run after Auth.
func TenantAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		param := c.Param("tenantId")
		if param == "" {
			c.Next()
			return
		}

		requestedTenantID, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid tenant ID"})
			c.Abort()
			return
		}

		role, exists := c.Get(ContextRole)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "No role information in token"})
			c.Abort()
			return
		}

		if role == models.RoleAdmin {
			c.Next()
			return
		}

		tokenTenantID, exists := c.Get(ContextTenantID)
		if !exists || tokenTenantID.(int64) != requestedTenantID {
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Access denied to this tenant"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// DeviceKey authenticates field-device requests via the shared-secret `key`
// query parameter. Devices do not carry bearer tokens. Arduino firmware parses
// bare text, so plainText switches the rejection body from JSON to a token
// string.
func DeviceKey(key string, plainText bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("key") != key {
			metrics.IncrementAuthFailures("device_key")
			if plainText {
				c.String(http.StatusForbidden, "UNAUTHORIZED")
			} else {
				c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Unauthorized device request"})
			}
			c.Abort()
			return
		}

		c.Next()
	}
}
