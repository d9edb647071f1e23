package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/internal/middleware"
	"github.com/rentitout/backend/internal/models"
	apperrors "github.com/rentitout/backend/pkg/errors"
	"github.com/rentitout/backend/pkg/logger"
	"github.com/rentitout/backend/pkg/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func validatePasswordStrength(password string) error {
	var hasLetter, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}
	if len(password) < 8 || !hasLetter || !hasNumber {
		return fmt.Errorf("password must be at least 8 characters long and contain a letter and a number")
	}
	return nil
}

type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
	Type     string `json:"type"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func authResponse(c *gin.Context, status int, user *models.User) {
	token, err := utils.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}

func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validatePasswordStrength(input.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Self-service accounts are buyers or sellers; admins are promoted.
	role := models.RoleBuyer
	if input.Role != "" {
		role = models.Role(input.Role)
		if role != models.RoleBuyer && role != models.RoleSeller {
			c.JSON(http.StatusBadRequest, gin.H{"error": "role must be buyer or seller"})
			return
		}
	}
	attire := models.AttireType(input.Type)
	if attire != "" && attire != models.AttireBride && attire != models.AttireGroom {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be bride or groom"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Name:     utils.CleanText(input.Name, 100),
		Email:    utils.NormalizeEmail(input.Email),
		Password: string(hashedPassword),
		Role:     role,
		Type:     attire,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			_ = c.Error(apperrors.Conflict("An account with this email already exists. Please sign in instead."))
			return
		}
		logger.Error().Err(err).Msg("Registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("User registered")
	authResponse(c, http.StatusCreated, &user)
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", utils.NormalizeEmail(input.Email)).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error().Err(err).Msg("Login lookup failed")
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		logger.Warn().Str("user_id", user.ID).Msg("Login failed: invalid password")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("User logged in")
	authResponse(c, http.StatusOK, &user)
}

// Logout revokes the presented token until its natural expiry.
func Logout(c *gin.Context) {
	v, exists := c.Get("claims")
	claims, ok := v.(*utils.Claims)
	if !exists || !ok || claims == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Already logged out"})
		return
	}

	if err := database.BlacklistToken(claims.GetJTI(), claims.GetExpiresAt()); err != nil {
		logger.Error().Err(err).Str("jti", claims.GetJTI()).Msg("Failed to blacklist token")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// Me returns the signed-in user.
func Me(c *gin.Context) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", middleware.CurrentUserID(c)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
