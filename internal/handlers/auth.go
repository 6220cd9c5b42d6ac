package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/events"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/logger"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/middleware"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/models"

	"github.com/gin-gonic/gin"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type loginRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// publicUser strips the authorization token, which only travels in the
// HttpOnly cookie.
func publicUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	copied := *u
	copied.Authorization = ""
	return &copied
}

func handleLogin(c *gin.Context) {
	svc := services(c)
	p := middleware.GetProfile(c)

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Code = strings.TrimSpace(req.Code)

	if req.Email == "" || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and code are required"})
		return
	}
	if !emailRegex.MatchString(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid email address"})
		return
	}

	res, err := svc.Backend.Login(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		logger.Warn("Login failed", "email", req.Email, "error", err)
		respondError(c, err)
		return
	}

	middleware.SetSessionCookies(c, svc.Config, res.Credentials)
	p.Auth.SetUser(res.User)

	logger.Info("User logged in", "email", req.Email, "role", res.User.Role, "profile", p.ID)
	events.Emit(svc.Events, events.UserLoggedIn, p.ID, gin.H{"user_id": res.User.ID, "role": res.User.Role})

	message := res.Message
	if message == "" {
		message = "Login successful"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "user": publicUser(res.User)})
}

func handleLogout(c *gin.Context) {
	svc := services(c)
	p := middleware.GetProfile(c)

	middleware.ClearCookie(c, svc.Config, middleware.SessionCookie)
	middleware.ClearCookie(c, svc.Config, middleware.AuthCookie)
	p.Auth.SetUser(nil)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func handleMe(c *gin.Context) {
	a := middleware.GetProfile(c).Auth
	c.JSON(http.StatusOK, gin.H{
		"user":            publicUser(a.User()),
		"isAuthenticated": a.IsAuthenticated(),
		"isAdmin":         a.IsAdmin(),
		"isSeller":        a.IsSeller(),
		"hasSellerAccess": a.HasSellerAccess(),
	})
}
