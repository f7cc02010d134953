package middleware

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Token issuer and audience stamped on every access token.
const (
	TokenIssuer   = "campusnest-api"
	TokenAudience = "campusnest-client"
)

var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrInvalidIssuer   = errors.New("invalid token issuer")
	ErrInvalidAudience = errors.New("invalid token audience")
	ErrInvalidSubject  = errors.New("invalid subject claim")
)

// TokenClaims is the subset of JWT claims the API relies on.
type TokenClaims struct {
	UserID uint
	JTI    string
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get(fiber.HeaderAuthorization), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// ParseToken validates an HS256 access token and returns its claims.
func ParseToken(secret, tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if issuer, ok := claims["iss"].(string); !ok || issuer != TokenIssuer {
		return nil, ErrInvalidIssuer
	}
	if audience, ok := claims["aud"].(string); !ok || audience != TokenAudience {
		return nil, ErrInvalidAudience
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidSubject
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidSubject
	}

	jti, _ := claims["jti"].(string)
	return &TokenClaims{UserID: uint(userID), JTI: jti}, nil
}
