package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/backend"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/config"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/logger"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/models"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/profile"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	ProfileCookie = "rb_profile"
	SessionCookie = "riftbattle_session"
	AuthCookie    = "riftbattle_auth"

	profileMaxAge = 365 * 24 * 60 * 60
	sessionMaxAge = 7 * 24 * 60 * 60
)

type rateLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet keeps one token bucket per client IP.
type limiterSet struct {
	mu      sync.Mutex
	clients map[string]*rateLimiter
	every   time.Duration
	burst   int
	idle    time.Duration
}

func newLimiterSet(every time.Duration, burst int, idle time.Duration) *limiterSet {
	return &limiterSet{
		clients: make(map[string]*rateLimiter),
		every:   every,
		burst:   burst,
		idle:    idle,
	}
}

func (s *limiterSet) allow(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, client := range s.clients {
		if now.Sub(client.lastSeen) > s.idle {
			delete(s.clients, key)
		}
	}

	client, exists := s.clients[ip]
	if !exists {
		client = &rateLimiter{limiter: rate.NewLimiter(rate.Every(s.every), s.burst)}
		s.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter.Allow()
}

func limit(cfg *config.Config, set *limiterSet, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip rate limiting in development mode
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		if !set.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": message})
			c.Abort()
			return
		}
		c.Next()
	}
}

func RateLimit(cfg *config.Config) gin.HandlerFunc {
	return limit(cfg, newLimiterSet(time.Second/20, 20, 10*time.Minute), "Rate limit exceeded")
}

// AuthRateLimit guards OTP login attempts.
func AuthRateLimit(cfg *config.Config) gin.HandlerFunc {
	return limit(cfg, newLimiterSet(time.Minute, 5, 30*time.Minute), "Authentication rate limit exceeded")
}

type clientTracker struct {
	errors404    []time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

// Blocker temporarily bans clients that keep probing unknown routes.
type Blocker struct {
	cfg      *config.Config
	mu       sync.Mutex
	trackers map[string]*clientTracker
}

func NewBlocker(cfg *config.Config) *Blocker {
	return &Blocker{cfg: cfg, trackers: make(map[string]*clientTracker)}
}

func (b *Blocker) IPBlocker() gin.HandlerFunc {
	return func(c *gin.Context) {
		if b.cfg.IsDevelopment() {
			c.Next()
			return
		}

		b.mu.Lock()
		tracker, exists := b.trackers[c.ClientIP()]
		blocked := exists && time.Now().Before(tracker.blockedUntil)
		b.mu.Unlock()

		if blocked {
			c.JSON(http.StatusForbidden, gin.H{"error": "Too many invalid requests, try again later"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (b *Blocker) Track404AndBlock() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if b.cfg.IsDevelopment() || c.Writer.Status() != http.StatusNotFound {
			return
		}

		ip := c.ClientIP()
		now := time.Now()

		b.mu.Lock()
		defer b.mu.Unlock()

		tracker, exists := b.trackers[ip]
		if !exists {
			tracker = &clientTracker{}
			b.trackers[ip] = tracker
		}
		tracker.lastSeen = now

		// Only 404s from the last 5 minutes count.
		cutoff := now.Add(-5 * time.Minute)
		recent := tracker.errors404[:0]
		for _, t := range tracker.errors404 {
			if t.After(cutoff) {
				recent = append(recent, t)
			}
		}
		tracker.errors404 = append(recent, now)

		if len(tracker.errors404) >= 10 {
			tracker.blockedUntil = now.Add(15 * time.Minute)
			logger.Warn("Blocked client after repeated 404s", "ip", ip, "count", len(tracker.errors404))
			tracker.errors404 = nil
		}

		for key, t := range b.trackers {
			if now.Sub(t.lastSeen) > 30*time.Minute && now.After(t.blockedUntil) {
				delete(b.trackers, key)
			}
		}
	}
}

// CORS echoes allowed origins with credentials. Paths under one of the
// public prefixes are readable from any origin without credentials.
func CORS(allowedOrigins string, public ...string) gin.HandlerFunc {
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return func(c *gin.Context) {
		if isPublic(c.Request.URL.Path, public) {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		} else {
			origin := c.GetHeader("Origin")
			for _, allowedOrigin := range origins {
				if origin != "" && origin == allowedOrigin {
					c.Header("Access-Control-Allow-Origin", origin)
					c.Header("Access-Control-Allow-Credentials", "true")
					c.Header("Vary", "Origin")
					break
				}
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		}
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func isPublic(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// CSRF rejects state-changing requests that a plain HTML form could forge:
// they must carry a JSON body or the X-Requested-With header.
func CSRF(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if strings.HasPrefix(c.ContentType(), "application/json") || c.GetHeader("X-Requested-With") != "" {
			c.Next()
			return
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Cross-site request rejected"})
		c.Abort()
	}
}

func SetCookie(c *gin.Context, cfg *config.Config, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", cfg.CookieSecure, true)
}

func ClearCookie(c *gin.Context, cfg *config.Config, name string) {
	SetCookie(c, cfg, name, "", -1)
}

// SetSessionCookies stores the backend session and authorization token.
func SetSessionCookies(c *gin.Context, cfg *config.Config, creds backend.Credentials) {
	SetCookie(c, cfg, SessionCookie, creds.Session, sessionMaxAge)
	SetCookie(c, cfg, AuthCookie, creds.Authorization, sessionMaxAge)
}

// Profile attaches the caller's profile, minting a profile cookie for new
// browsers.
func Profile(registry *profile.Registry, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(ProfileCookie)
		if err != nil || !profile.ValidID(id) {
			id = profile.NewID()
			SetCookie(c, cfg, ProfileCookie, id, profileMaxAge)
		}

		c.Set("profile", registry.Get(c.Request.Context(), id))
		c.Next()
	}
}

func GetProfile(c *gin.Context) *profile.Profile {
	if p, exists := c.Get("profile"); exists {
		return p.(*profile.Profile)
	}
	return nil
}

const credentialsKey = "credentials"

// Credentials returns the relayed backend session, as resolved by
// SessionRequired or else read from the request cookies.
func Credentials(c *gin.Context) backend.Credentials {
	if v, ok := c.Get(credentialsKey); ok {
		if creds, ok := v.(backend.Credentials); ok {
			return creds
		}
	}
	session, _ := c.Cookie(SessionCookie)
	authorization, _ := c.Cookie(AuthCookie)
	return backend.Credentials{Session: session, Authorization: authorization}
}

// SessionRequired aborts with 401 unless both session cookies are present.
func SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := Credentials(c)
		if !creds.Complete() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		c.Set(credentialsKey, creds)
		c.Next()
	}
}

// SellerRequired asks the backend for the caller's role and lets only
// sellers and admins through. Must run after SessionRequired.
func SellerRequired(client *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := Credentials(c)
		user, err := client.GetRole(c.Request.Context(), creds)
		if err != nil {
			status, message, ok := backend.HTTPStatus(err)
			if !ok {
				status, message = http.StatusInternalServerError, "Internal server error"
			}
			logger.Warn("Role lookup failed", "path", c.FullPath(), "error", err)
			c.JSON(status, gin.H{"error": message})
			c.Abort()
			return
		}

		if user.Role != models.RoleSeller && user.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Seller access required"})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

func SecurityHeaders(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip security headers in development mode to allow browser automation tools
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Next()
	}
}

func LogRequests() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] %s %s %d %s %s\n",
			param.TimeStamp.Format("2006/01/02 15:04:05"),
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency,
			param.ClientIP,
		)
	})
}
