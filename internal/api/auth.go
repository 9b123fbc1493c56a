package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/oggyb/irlobby/internal/logger"
)

// ContextUserID is the gin context key holding the authenticated user id.
const ContextUserID = "userID"

var errInvalidToken = errors.New("invalid token")

// Claims is the access token payload.
type Claims struct {
	UserID uint64 `json:"user_id"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 access token for userID. ttl <= 0 means no expiry.
func IssueToken(secret string, userID uint64, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Subject:  fmt.Sprint(userID),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates an HS256 token and returns its user id.
func ParseToken(secret, raw string) (uint64, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return 0, errInvalidToken
	}
	return claims.UserID, nil
}

// TokenAuthenticator adapts ParseToken to the websocket handler.
func TokenAuthenticator(secret string) func(string) (uint64, error) {
	return func(raw string) (uint64, error) {
		return ParseToken(secret, raw)
	}
}

// AuthMiddleware validates the Bearer token in the Authorization header.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		userID, err := ParseToken(secret, strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserID, userID)
		ctx := c.Request.Context()
		l := logger.FromContext(ctx).With("user_id", userID)
		c.Request = c.Request.WithContext(logger.WithContext(ctx, l))
		c.Next()
	}
}

func currentUser(c *gin.Context) uint64 {
	v, _ := c.Get(ContextUserID)
	id, _ := v.(uint64)
	return id
}
