package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hendrik2009/hearo-backend/config"
	apperrors "github.com/hendrik2009/hearo-backend/internal/errors"
	"github.com/hendrik2009/hearo-backend/internal/middleware"
	"github.com/hendrik2009/hearo-backend/pkg/util"
)

// AuthController authenticates the box's single admin principal
type AuthController struct {
	admin config.AdminConfig
	jwt   config.JWTConfig
}

func NewAuthController(admin config.AdminConfig, jwt config.JWTConfig) *AuthController {
	return &AuthController{admin: admin, jwt: jwt}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login issues an admin token
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Username and password are required")
		return
	}

	if ctrl.admin.PasswordHash == "" {
		log.Error("Admin login attempted without a configured credential", nil)
		apperrors.RespondWithError(c, http.StatusInternalServerError,
			apperrors.InternalServerError, "Admin access is not configured")
		return
	}

	if req.Username != ctrl.admin.Username ||
		!util.VerifyPassword(ctrl.admin.PasswordHash, req.Password) {
		log.Warn("Failed admin login", map[string]interface{}{
			"username": req.Username,
		})
		apperrors.RespondWithError(c, http.StatusUnauthorized,
			apperrors.AuthInvalidCredentials, "Invalid username or password")
		return
	}

	token, err := util.GenerateToken(req.Username, "admin", ctrl.jwt.Secret, ctrl.jwt.TokenExpiry)
	if err != nil {
		log.Error("Failed to generate token", err)
		apperrors.InternalError(c, "Failed to generate token")
		return
	}

	log.Info("Admin logged in", map[string]interface{}{
		"username": req.Username,
	})

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int64(ctrl.jwt.TokenExpiry.Seconds()),
	})
}
