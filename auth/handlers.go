package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/drewmudry/voicereel-api/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const sessionLifetime = 7 * 24 * time.Hour

type Handler struct {
	DB          *gorm.DB
	GoogleOAuth *GoogleOAuth
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		DB:          db,
		GoogleOAuth: NewGoogleOAuth(),
	}
}

// InitiateGoogleLogin starts the OAuth flow
func (h *Handler) InitiateGoogleLogin(c *gin.Context) {
	// State token for CSRF protection
	state, err := generateStateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start login"})
		return
	}

	c.SetCookie("oauth_state", state, 3600, "/", "", false, true)

	url := h.GoogleOAuth.Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback handles the OAuth callback
func (h *Handler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	storedState, _ := c.Cookie("oauth_state")

	if state == "" || state != storedState {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state token"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No authorization code"})
		return
	}

	googleUser, err := h.GoogleOAuth.GetUserInfo(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user info"})
		return
	}

	// Find or create user
	var user models.User
	result := h.DB.Where("google_id = ?", googleUser.ID).First(&user)

	if result.Error == gorm.ErrRecordNotFound {
		user = *models.CreateUserFromGoogle(*googleUser)
		if err := h.DB.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}
	} else if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	} else {
		now := time.Now()
		user.LastLoginAt = &now
		h.DB.Save(&user)
	}

	// Create a session backed by a database row; the cookie only carries
	// the opaque token
	sessionToken, err := models.GenerateSessionToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}
	session := models.Session{
		SessionToken:   sessionToken,
		UserID:         user.ID,
		UserAgent:      c.Request.UserAgent(),
		IPAddress:      c.ClientIP(),
		ExpiresAt:      time.Now().Add(sessionLifetime),
		LastAccessedAt: time.Now(),
	}
	if err := h.DB.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.SetCookie("session_token", sessionToken, int(sessionLifetime.Seconds()), "/", "", false, true)
	c.SetCookie("oauth_state", "", -1, "/", "", false, true)

	// JWT for clients that prefer Bearer auth over cookies
	token, err := GenerateJWT(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	c.Redirect(http.StatusTemporaryRedirect, fmt.Sprintf("%s/auth/callback?token=%s", frontendURL, token))
}

// GetCurrentUser returns the authenticated user's info
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Logout deletes the session row and clears the cookie
func (h *Handler) Logout(c *gin.Context) {
	if sessionToken, err := c.Cookie("session_token"); err == nil && sessionToken != "" {
		h.DB.Where("session_token = ?", sessionToken).Delete(&models.Session{})
	}
	c.SetCookie("session_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func generateStateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
