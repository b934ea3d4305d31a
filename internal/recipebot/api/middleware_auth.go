package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/blueplan/recipebot/internal/recipebot/config"
	logx "github.com/blueplan/recipebot/internal/recipebot/log"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// authUserKey holds the user id proven by the bearer token.
const authUserKey = "auth_user_id"

const tokenIssuer = "recipebot"

// AuthMiddleware validates HS256 bearer tokens.
type AuthMiddleware struct {
	jwtSecret      string
	whitelistPaths []string
	logger         *logx.Logger
	config         *config.SecurityConfig
}

// JWTClaims identifies a chat user. Either UserID or the subject may carry the id.
type JWTClaims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// User returns the id the token was issued for.
func (c *JWTClaims) User() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

func NewAuthMiddleware(cfg *config.SecurityConfig, logger *logx.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:      cfg.JWTSecretKey,
		whitelistPaths: cfg.Whitelist,
		logger:         logger,
		config:         cfg,
	}
}

// RequireAuth rejects requests without a valid token and records the token's
// user for the handlers.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !am.config.EnableAuth || am.isWhitelisted(c.Request.URL.Path) {
			c.Next()
			return
		}

		token := am.extractToken(c)
		if token == "" {
			am.logger.Warn(c.Request.Context(), "missing auth token",
				logx.KV("path", c.Request.URL.Path),
				logx.KV("ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Code:    http.StatusUnauthorized,
				Message: "missing bearer token",
			})
			return
		}

		claims, err := am.validateToken(token)
		if err != nil {
			am.logger.Warn(c.Request.Context(), "token validation failed",
				logx.KV("error", err),
				logx.KV("path", c.Request.URL.Path),
				logx.KV("ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Code:    http.StatusUnauthorized,
				Message: "invalid token",
			})
			return
		}

		c.Set(authUserKey, claims.User())
		c.Set("user_id", claims.User())
		c.Next()
	}
}

// GenerateToken issues a token for userID valid for ttl.
func (am *AuthMiddleware) GenerateToken(userID string, ttl time.Duration) (string, error) {
	return GenerateToken(am.jwtSecret, userID, ttl)
}

// GenerateToken issues an HS256 token for userID signed with secret.
func GenerateToken(secret, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	claims := JWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// extractToken reads the Authorization header, falling back to the "token"
// query parameter that browser WebSocket clients have to use.
func (am *AuthMiddleware) extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Query("token")
}

func (am *AuthMiddleware) validateToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(am.jwtSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.User() == "" {
		return nil, errors.New("token carries no user")
	}
	return claims, nil
}

func (am *AuthMiddleware) isWhitelisted(path string) bool {
	for _, whitelistPath := range am.whitelistPaths {
		if path == whitelistPath || strings.HasPrefix(path, whitelistPath+"/") {
			return true
		}
	}
	return false
}
