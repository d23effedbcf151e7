package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/StackTheCode/invoice-shield/internal/model"
	"github.com/StackTheCode/invoice-shield/pkg/database"
	"github.com/StackTheCode/invoice-shield/pkg/jwtutil"
	"github.com/StackTheCode/invoice-shield/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterRequest defines the structure for registration requests
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
}

// LoginRequest defines the structure for login requests
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned on successful registration or login
type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

const bcryptCost = 12

// Register creates a new company and its first user account
func Register(c echo.Context) error {
	log := logger.FromContext(c)

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	db := database.GetDB()

	var count int64
	db.Model(&model.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		log.Warn("Email already registered", zap.String("email", email))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Email already registered"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Registration failed"})
	}

	companyName := req.CompanyName
	if companyName == "" {
		owner := req.Name
		if owner == "" {
			owner = email
		}
		companyName = fmt.Sprintf("%s's Company", owner)
	}

	company := model.Company{
		Name:         companyName,
		Email:        email,
		APIKey:       "ak_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Tier:         "free",
		MonthlyQuota: 50,
	}
	user := model.User{
		Email:    email,
		Password: string(hashed),
		Name:     req.Name,
		Role:     "user",
	}

	// Company and first user are created together or not at all
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		user.CompanyID = company.ID
		return tx.Create(&user).Error
	})
	if err != nil {
		log.Error("Registration failed", zap.String("email", email), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Registration failed"})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, company.ID, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Registration failed"})
	}

	log.Info("Company registered",
		zap.String("company_id", company.ID.String()),
		zap.String("user_id", user.ID.String()))
	return c.JSON(http.StatusCreated, AuthResponse{Token: token, User: &user})
}

// Login authenticates a user and returns a JWT with company context
func Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	db := database.GetDB()

	var user model.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		log.Warn("Login failed: unknown email", zap.String("email", email))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Login failed: wrong password", zap.String("email", email))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})
	}

	now := time.Now()
	db.Model(&user).Update("last_login", now)
	user.LastLogin = &now

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.CompanyID, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Login failed"})
	}

	log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("company_id", user.CompanyID.String()))
	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: &user})
}
