package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tkesici/greenhouse-manager/internal/auth"
	"github.com/tkesici/greenhouse-manager/internal/metrics"
	"github.com/tkesici/greenhouse-manager/internal/models"
	"github.com/tkesici/greenhouse-manager/internal/repository"
)

// UserStore is the credential-store surface the auth handler needs.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// TenantStore resolves and auto-provisions tenants at registration.
type TenantStore interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// GreenhouseLister lists a tenant's greenhouses for the login response.
type GreenhouseLister interface {
	ListByTenant(ctx context.Context, tenantID int64) ([]models.Greenhouse, error)
}

// TokenSigner issues bearer tokens. *auth.TokenIssuer satisfies it.
type TokenSigner interface {
	Issue(user *models.User) (string, error)
}

type AuthHandler struct {
	users       UserStore
	tenants     TenantStore
	greenhouses GreenhouseLister
	tokens      TokenSigner
	bcryptCost  int
	logger      *zap.Logger
}

func NewAuthHandler(users UserStore, tenants TenantStore, greenhouses GreenhouseLister, tokens TokenSigner, bcryptCost int, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:       users,
		tenants:     tenants,
		greenhouses: greenhouses,
		tokens:      tokens,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// Login godoc
// @Summary Authenticate a user
// @Description Verify credentials, return a bearer token and the tenant's greenhouses
// @Tags auth
// @Accept json
// @Produce json
// @Param login body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Username and password required"))
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// A missing username is distinguishable from a bad password,
			// preserving the original contract.
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}
		h.logger.Error("Failed to look up user", zap.Error(err), zap.String("username", req.Username))
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		metrics.IncrementAuthFailures("bad_credentials")
		h.logger.Warn("Password mismatch", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid username or password."})
		return
	}

	greenhouses, err := h.greenhouses.ListByTenant(c.Request.Context(), user.TenantID)
	if err != nil {
		h.logger.Error("Failed to list greenhouses for login", zap.Error(err), zap.Int64("tenant_id", user.TenantID))
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}
	if greenhouses == nil {
		greenhouses = []models.Greenhouse{}
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("Failed to sign token", zap.Error(err), zap.Int64("user_id", user.ID))
		c.JSON(http.StatusInternalServerError, errorBody("Failed to generate authentication token."))
		return
	}

	h.logger.Info("User logged in",
		zap.Int64("user_id", user.ID),
		zap.Int64("tenant_id", user.TenantID),
		zap.String("role", user.Role))

	c.JSON(http.StatusOK, models.LoginResponse{
		Status: "success",
		Token:  token,
		User: models.PublicUser{
			ID:       user.ID,
			Username: user.Username,
			TenantID: user.TenantID,
			Role:     user.Role,
		},
		Greenhouses: greenhouses,
	})
}

// Register godoc
// @Summary Register a new user
// @Description Create a user, auto-provisioning a tenant when none is given or the given one does not exist
// @Tags auth
// @Accept json
// @Produce json
// @Param register body models.RegisterRequest true "Registration request"
// @Success 201 {object} models.RegisterResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Username and password are required."))
		return
	}

	ctx := c.Request.Context()

	if _, err := h.users.GetByUsername(ctx, req.Username); err == nil {
		c.JSON(http.StatusConflict, errorBody("Username already exists"))
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		h.logger.Error("Failed to check existing username", zap.Error(err), zap.String("username", req.Username))
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}

	tenantID, err := h.resolveTenant(ctx, req.Username, req.TenantID)
	if err != nil {
		h.logger.Error("Failed to resolve tenant", zap.Error(err), zap.String("username", req.Username))
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		h.logger.Error("Failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}

	// Self-registration never grants admin.
	user := &models.User{
		TenantID:     tenantID,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}

	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			c.JSON(http.StatusConflict, errorBody("Username already exists"))
			return
		}
		h.logger.Error("Failed to create user", zap.Error(err), zap.String("username", req.Username))
		c.JSON(http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}

	c.JSON(http.StatusCreated, models.RegisterResponse{
		Status:  "success",
		Message: "User registered successfully",
		User: models.PublicUser{
			ID:       user.ID,
			Username: user.Username,
			TenantID: user.TenantID,
		},
	})
}

// resolveTenant attaches the user to the requested tenant when it exists, and
// auto-provisions a fresh tenant otherwise.
func (h *AuthHandler) resolveTenant(ctx context.Context, username string, requested *int64) (int64, error) {
	if requested != nil {
		exists, err := h.tenants.Exists(ctx, *requested)
		if err != nil {
			return 0, err
		}
		if exists {
			return *requested, nil
		}

		tenant := &models.Tenant{Name: fmt.Sprintf("Auto-created tenant for %s", username)}
		if err := h.tenants.Create(ctx, tenant); err != nil {
			return 0, err
		}
		h.logger.Info("Requested tenant not found, auto-created replacement",
			zap.Int64("requested", *requested),
			zap.Int64("created", tenant.ID))
		return tenant.ID, nil
	}

	tenant := &models.Tenant{Name: fmt.Sprintf("Default Tenant for %s", username)}
	if err := h.tenants.Create(ctx, tenant); err != nil {
		return 0, err
	}
	h.logger.Info("No tenant given, auto-created default tenant", zap.Int64("created", tenant.ID))
	return tenant.ID, nil
}
