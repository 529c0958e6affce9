package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillswap/skillswap/db"
	"github.com/skillswap/skillswap/service/security"
	"github.com/skillswap/skillswap/service/worker"
	"gorm.io/gorm"
)

// User data return to client
type UserData struct {
	ID       uint   `json:"id"` // Account ID
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Struct holds both access token and refresh token
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Response struct after login
type AuthResponse struct {
	UserData UserData `json:"user"`
	Tokens   Tokens   `json:"tokens"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Username string `json:"username" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Helper to create the access/refresh token pair for an account
func (server *Server) createTokens(account *db.Account) (Tokens, error) {
	accessToken, err := server.jwtService.CreateToken(account.ID, security.AccessToken, int(account.TokenVersion))
	if err != nil {
		return Tokens{}, err
	}

	refreshToken, err := server.jwtService.CreateToken(account.ID, security.RefreshToken, int(account.TokenVersion))
	if err != nil {
		return Tokens{}, err
	}

	return Tokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Handler for email/password registration
func (server *Server) HandleRegister(ctx *gin.Context) {
	// Get the request body and validate
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	// Check if the email is already taken
	var existing db.Account
	result := server.queries.DB.Where("email = ?", req.Email).First(&existing)
	if result.Error == nil {
		ctx.JSON(http.StatusConflict, ErrorResponse{"Email already registered"})
		return
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		server.logger.Error("POST /api/auth/register: failed to check existing account", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// Hash the password
	hashed, err := security.BcryptHash(req.Password)
	if err != nil {
		server.logger.Error("POST /api/auth/register: failed to hash password", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// Create the account
	account := db.Account{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		TokenVersion: 1,
	}
	result = server.queries.DB.Create(&account)
	if result.Error != nil {
		server.logger.Error("POST /api/auth/register: failed to create account", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	tokens, err := server.createTokens(&account)
	if err != nil {
		server.logger.Error("POST /api/auth/register: failed to create JWT tokens", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, AuthResponse{
		UserData: UserData{ID: account.ID, Username: account.Username, Email: account.Email},
		Tokens:   tokens,
	})

	// Create background task: send welcome email
	err = server.distributor.DistributeTaskSendWelcomeEmail(context.Background(), worker.EmailPayload{
		Email:    account.Email,
		Username: account.Username,
	})
	if err != nil {
		server.logger.Error("POST /api/auth/register: failed to distribute \"send welcome email\" task", "error", err)
		// Should NOT return here
	}
}

// Handler for email/password login
func (server *Server) HandleLogin(ctx *gin.Context) {
	// Get the request body and validate
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	// Fetch the account by email
	var account db.Account
	result := server.queries.DB.Where("email = ?", req.Email).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusUnauthorized, ErrorResponse{"Invalid email or password"})
			return
		}

		server.logger.Error("POST /api/auth/login: failed to fetch account", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// Accounts created through OAuth have no password to compare against
	if account.PasswordHash == "" || !security.BcryptCompare(account.PasswordHash, req.Password) {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{"Invalid email or password"})
		return
	}

	tokens, err := server.createTokens(&account)
	if err != nil {
		server.logger.Error("POST /api/auth/login: failed to create JWT tokens", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, AuthResponse{
		UserData: UserData{ID: account.ID, Username: account.Username, Email: account.Email},
		Tokens:   tokens,
	})
}

// Handler for logout. Bumping the token version invalidates every token
// issued before this call.
func (server *Server) HandleLogout(ctx *gin.Context) {
	claims, _ := ctx.Get(claimsKey)
	requesterID := claims.(*security.CustomClaims).ID

	var account db.Account
	result := server.queries.DB.First(&account, requesterID)
	if result.Error != nil {
		server.logger.Error("POST /api/auth/logout: failed to fetch account", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	account.TokenVersion++
	result = server.queries.DB.Save(&account)
	if result.Error != nil {
		server.logger.Error("POST /api/auth/logout: failed to update token version", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, "Logged out successfully")
}

// Handler for exchanging a refresh token for a new token pair
func (server *Server) HandleRefreshToken(ctx *gin.Context) {
	claims, _ := ctx.Get(claimsKey)
	requesterID := claims.(*security.CustomClaims).ID

	var account db.Account
	result := server.queries.DB.First(&account, requesterID)
	if result.Error != nil {
		server.logger.Error("POST /api/auth/token/refresh: failed to fetch account", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	tokens, err := server.createTokens(&account)
	if err != nil {
		server.logger.Error("POST /api/auth/token/refresh: failed to create JWT tokens", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, AuthResponse{
		UserData: UserData{ID: account.ID, Username: account.Username, Email: account.Email},
		Tokens:   tokens,
	})
}
