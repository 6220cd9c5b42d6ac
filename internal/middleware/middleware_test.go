package middleware

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/backend"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/config"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/database"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/profile"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/storage"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func prodConfig() *config.Config {
	return &config.Config{Environment: "production", CookieSecure: true}
}

func ok(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }

func TestAuthRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/login", AuthRateLimit(prodConfig()), ok)

	var last int
	for i := 0; i < 6; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("Expected the sixth attempt to be limited, got %d", last)
	}
}

func TestRateLimitSkippedInDevelopment(t *testing.T) {
	r := gin.New()
	r.POST("/login", AuthRateLimit(&config.Config{Environment: "development"}), ok)

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected no limiting in development, got %d", w.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS("https://riftbattle.com, http://localhost:3000", "/public"))
	r.GET("/x", ok)
	r.GET("/public/products", ok)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://riftbattle.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "https://riftbattle.com" {
		t.Error("Expected allowed origin to be echoed")
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("Expected unknown origin to be ignored")
	}

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected preflight 204, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/public/products", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" || w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("Expected public path to allow any origin without credentials")
	}
}

func TestCSRF(t *testing.T) {
	r := gin.New()
	r.Use(CSRF(prodConfig()))
	r.POST("/x", ok)

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected form post to be rejected, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected JSON post to pass, got %d", w.Code)
	}
}

func TestTrack404AndBlock(t *testing.T) {
	b := NewBlocker(prodConfig())
	r := gin.New()
	r.Use(b.IPBlocker(), b.Track404AndBlock())
	r.GET("/ok", ok)

	for i := 0; i < 10; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected client to be blocked after 10 404s, got %d", w.Code)
	}
}

func TestSessionRequired(t *testing.T) {
	r := gin.New()
	r.GET("/x", SessionRequired(), ok)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "s"})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without auth cookie, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "s"})
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: "a"})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with both cookies, got %d", w.Code)
	}
}

func TestCredentialsComeFromSessionRequired(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	c.Request.AddCookie(&http.Cookie{Name: SessionCookie, Value: "s"})
	c.Request.AddCookie(&http.Cookie{Name: AuthCookie, Value: "a"})

	SessionRequired()(c)
	stored, exists := c.Get(credentialsKey)
	if !exists {
		t.Fatal("Expected SessionRequired to store the credentials")
	}
	if got := stored.(backend.Credentials); got.Session != "s" || got.Authorization != "a" {
		t.Errorf("Unexpected stored credentials %+v", got)
	}

	// Handlers see the resolved session even when cookies are gone.
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	if got := Credentials(c); got.Session != "s" || got.Authorization != "a" {
		t.Errorf("Expected credentials from context, got %+v", got)
	}
}

func TestSellerRequired(t *testing.T) {
	var role atomic.Value
	role.Store("user")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"role": role.Load().(string)})
	}))
	defer srv.Close()

	r := gin.New()
	r.GET("/x", SessionRequired(), SellerRequired(backend.NewClient(srv.URL, "session", time.Second)), ok)

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "s"})
		req.AddCookie(&http.Cookie{Name: AuthCookie, Value: "a"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := do(); code != http.StatusForbidden {
		t.Errorf("Expected 403 for a buyer, got %d", code)
	}
	role.Store("admin")
	if code := do(); code != http.StatusOK {
		t.Errorf("Expected 200 for an admin, got %d", code)
	}
}

func TestProfileMintsCookie(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatal("Failed to open test database:", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatal("Failed to run migrations:", err)
	}
	registry := profile.NewRegistry(storage.NewSQLiteStore(db))

	r := gin.New()
	r.Use(Profile(registry, prodConfig()))
	r.GET("/x", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetProfile(c).ID})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	var minted *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == ProfileCookie {
			minted = ck
		}
	}
	if minted == nil || !profile.ValidID(minted.Value) || !minted.HttpOnly {
		t.Fatalf("Expected an HttpOnly profile cookie, got %+v", minted)
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(minted)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["id"] != minted.Value {
		t.Errorf("Expected the cookie profile to be reused, got %q", body["id"])
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("Expected no new cookie for a known profile")
	}
}
