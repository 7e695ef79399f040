package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CUknot/arena_backend/errs"
	"github.com/CUknot/arena_backend/models"
	"github.com/CUknot/arena_backend/utils"
)

// AccountStore is the persistence used by registration and login.
type AccountStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuthController struct {
	users  AccountStore
	secret string
	ttl    time.Duration
}

func NewAuthController(users AccountStore, secret string, ttl time.Duration) *AuthController {
	return &AuthController{users: users, secret: secret, ttl: ttl}
}

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register handles user registration
// @Router /api/register [post]
func (a *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := a.users.FindUserByEmail(c.Request.Context(), input.Email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
		return
	} else if !errors.Is(err, errs.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return
	}

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	}
	if err := a.users.CreateUser(c.Request.Context(), &user); err != nil {
		if errs.Is(err, errs.KindCreation) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	a.respondWithToken(c, http.StatusCreated, "User registered successfully", &user)
}

// Login handles user authentication
// @Router /api/login [post]
func (a *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := a.users.FindUserByEmail(c.Request.Context(), input.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := user.ValidatePassword(input.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	a.respondWithToken(c, http.StatusOK, "Login successful", user)
}

// respondWithToken issues a fresh token for user and writes it with the
// public account fields.
func (a *AuthController) respondWithToken(c *gin.Context, status int, message string, user *models.User) {
	token, err := utils.GenerateToken(user.ID, a.secret, a.ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(status, gin.H{
		"message": message,
		"user":    user,
		"token":   token,
	})
}
