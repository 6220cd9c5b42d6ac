package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/auth"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/backend"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/cart"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/config"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/cosmetics"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/email"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/events"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/logger"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/marketplace"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/middleware"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/models"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/poll"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/profile"

	"github.com/gin-gonic/gin"
)

// CatalogSource supplies the cosmetics catalog used for filter facets.
type CatalogSource interface {
	Entries(ctx context.Context) ([]models.Cosmetic, error)
}

// Services are the dependencies route handlers reach through the context.
type Services struct {
	Config   *config.Config
	Backend  *backend.Client
	Catalog  CatalogSource
	Names    *cosmetics.Table
	Registry *profile.Registry
	Email    *email.Service
	Events   events.Publisher
}

func SetupRoutes(r *gin.Engine, svc *Services) {
	cfg := svc.Config
	blocker := middleware.NewBlocker(cfg)

	r.Use(middleware.LogRequests())
	r.Use(middleware.SecurityHeaders(cfg))
	r.Use(blocker.IPBlocker())
	r.Use(blocker.Track404AndBlock())
	r.Use(middleware.CORS(cfg.AllowedOrigins, "/api/marketplace/get_products"))
	r.Use(middleware.RateLimit(cfg))
	r.Use(addServicesContext(svc))

	r.GET("/healthz", handleHealth)

	api := r.Group("/api")
	api.Use(middleware.CSRF(cfg))

	api.GET("/get_skins_info", handleGetSkinsInfo)
	api.GET("/marketplace/get_products", handleGetProducts)
	api.POST("/marketplace/filter", handleFilterProducts)

	withProfile := api.Group("/")
	withProfile.Use(middleware.Profile(svc.Registry, cfg))
	{
		withProfile.POST("/auth/login", middleware.AuthRateLimit(cfg), handleLogin)
		withProfile.POST("/auth/logout", handleLogout)
		withProfile.GET("/auth/me", handleMe)

		withProfile.POST("/create_order", handleCreateOrder)

		withProfile.GET("/cart", handleGetCart)
		withProfile.POST("/cart/items", handleAddCartItem)
		withProfile.DELETE("/cart/items/:id", handleRemoveCartItem)
		withProfile.PUT("/cart/items/:id/quantity", handleUpdateQuantity)
		withProfile.PUT("/cart/items/:id/warranty", handleUpdateWarranty)
		withProfile.POST("/cart/items/:id/save", handleSaveForLater)
		withProfile.POST("/cart/saved/:id/move", handleMoveToCart)
		withProfile.DELETE("/cart/saved/:id", handleRemoveSavedItem)
		withProfile.POST("/cart/clear", handleClearCart)
	}

	seller := api.Group("/seller")
	seller.Use(middleware.SessionRequired())
	{
		seller.PUT("/edit_product/:id", handleEditProduct)
		seller.GET("/get-link", middleware.SellerRequired(svc.Backend), handleGetSellerLink)
		seller.GET("/get_skins", handleGetSkins)
	}
}

func addServicesContext(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("services", svc)
		c.Next()
	}
}

func services(c *gin.Context) *Services {
	return c.MustGet("services").(*Services)
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps an error onto the status taxonomy. Raw error text is
// only relayed for validation failures.
func respondError(c *gin.Context, err error) {
	if status, message, ok := backend.HTTPStatus(err); ok {
		body := gin.H{"error": message}
		if status >= http.StatusBadGateway {
			body["retryable"] = true
		}
		logger.Warn("Backend call failed", "path", c.FullPath(), "status", status, "error", err)
		c.JSON(status, body)
		return
	}

	switch {
	case errors.Is(err, cart.ErrInvalidWarranty),
		errors.Is(err, cart.ErrInvalidPrice),
		errors.Is(err, marketplace.ErrInvalidPriceRange),
		errors.Is(err, marketplace.ErrNegativePrice),
		errors.Is(err, auth.ErrFlagConflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, poll.ErrExhausted), errors.Is(err, context.DeadlineExceeded):
		logger.Warn("Gave up waiting on backend", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Timed out waiting for the marketplace, please try again", "retryable": true})
	default:
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func parseID(c *gin.Context, name, label string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label})
		return 0, false
	}
	return id, true
}
