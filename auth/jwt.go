package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/drewmudry/voicereel-api/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func GenerateJWT(userID uint, email string) (string, error) {
	secretKey := []byte(os.Getenv("JWT_SECRET"))

	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour * 7)), // 7 days
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

func ValidateJWT(tokenString string) (*Claims, error) {
	secretKey := []byte(os.Getenv("JWT_SECRET"))

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// Middleware to protect routes. Accepts either the session cookie set by the
// OAuth callback or a Bearer JWT.
func AuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionToken, err := c.Cookie("session_token"); err == nil && sessionToken != "" {
			if authorizeSession(c, db, sessionToken) {
				c.Next()
			}
			return
		}

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			claims, err := ValidateJWT(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				c.Abort()
				return
			}
			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			c.Next()
			return
		}

		c.JSON(http.StatusUnauthorized, gin.H{"error": "No authentication token provided"})
		c.Abort()
	}
}

func authorizeSession(c *gin.Context, db *gorm.DB, sessionToken string) bool {
	var session models.Session
	result := db.Preload("User").Where("session_token = ?", sessionToken).First(&session)

	if result.Error != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
		c.Abort()
		return false
	}

	if session.IsExpired() {
		db.Delete(&session)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
		c.Abort()
		return false
	}

	session.UpdateLastAccessed(db)

	c.Set("user_id", session.UserID)
	c.Set("email", session.User.Email)
	c.Set("session", &session)
	return true
}
