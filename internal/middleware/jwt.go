package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// CaregiverKey is the gin context key holding the authenticated caregiver id.
const CaregiverKey = "caregiver_id"

// Claims are issued by the account service; the caregiver id is the subject.
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) CaregiverID() string { return c.Subject }

func GenerateToken(secret []byte, caregiverID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   caregiverID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ValidateToken(secret []byte, tokenStr string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("token has no caregiver subject")
	}
	return &claims, nil
}

// RequireAuth ensures a valid JWT is present, either as a Bearer header or as a
// token query parameter (browsers cannot set headers on websocket upgrades).
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		claims, err := ValidateToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// Store the caregiver for downstream handlers
		c.Set(CaregiverKey, claims.CaregiverID())
		c.Next()
	}
}

// CaregiverID reads the id set by RequireAuth or RequireDevice.
func CaregiverID(c *gin.Context) string {
	return c.GetString(CaregiverKey)
}
