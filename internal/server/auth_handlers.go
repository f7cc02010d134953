package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"campusnest/internal/middleware"
	"campusnest/internal/models"
	"campusnest/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL is the lifetime of an access token. Revoked ids are kept in Redis
// for the same duration.
const tokenTTL = 7 * 24 * time.Hour

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Name         string          `json:"name" validate:"required,notblank,max=120"`
	Email        string          `json:"email" validate:"required,email_addr"`
	Password     string          `json:"password" validate:"required,password"`
	Role         models.UserRole `json:"role" validate:"required,oneof=buyer seller"`
	IsStudent    bool            `json:"isStudent"`
	StudentLevel string          `json:"studentLevel" validate:"omitempty,oneof='Part 1' 'Part 2' 'Part 3' 'Part 4' 'Part 5' 'Part 6' Masters"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a buyer or seller account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup request"
// @Success 201 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	req.Email = validation.NormalizeEmail(req.Email)

	if err := validation.Struct(req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return s.respondServiceError(c, models.NewInternalError(err))
	}

	user := &models.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Password:  string(hashedPassword),
		Role:      req.Role,
		IsStudent: req.IsStudent,
		// Seller identity checks are not wired to a provider yet; sellers are
		// recorded as verified at signup.
		BVNVerified: req.Role == models.RoleSeller,
	}
	if req.IsStudent {
		user.StudentLevel = req.StudentLevel
	}

	// Duplicate emails surface as a conflict from the unique index.
	if err := s.store.Users.Create(c.UserContext(), user); err != nil {
		return s.respondServiceError(c, err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return s.respondServiceError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.store.Users.GetByEmail(c.UserContext(), validation.NormalizeEmail(req.Email))
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid credentials"))
		}
		return s.respondServiceError(c, err)
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}
	if user.IsBanned {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Your account has been banned"))
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return s.respondServiceError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the presented access token
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	tokenString := middleware.BearerToken(c)
	if tokenString != "" && s.redis != nil {
		claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
		if err == nil && claims.JTI != "" {
			if err := s.redis.Set(c.UserContext(), blacklistKey(claims.JTI), "1", tokenTTL).Err(); err != nil {
				return s.respondServiceError(c, models.NewInternalError(err))
			}
		}
	}

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// generateToken creates a signed access token for userID.
func (s *Server) generateToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": middleware.TokenIssuer,
		"aud": middleware.TokenAudience,
		"exp": now.Add(tokenTTL).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}
