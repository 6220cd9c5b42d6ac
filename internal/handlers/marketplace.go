package handlers

import (
	"net/http"
	"strings"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/logger"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/marketplace"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/models"

	"github.com/gin-gonic/gin"
)

func handleGetProducts(c *gin.Context) {
	raw, err := services(c).Backend.GetProducts(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func handleFilterProducts(c *gin.Context) {
	svc := services(c)

	var f models.FilterState
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter"})
		return
	}
	if err := marketplace.Validate(f); err != nil {
		respondError(c, err)
		return
	}

	products, err := svc.Backend.ListProducts(c.Request.Context(), nil)
	if err != nil {
		respondError(c, err)
		return
	}

	// Without the catalog, ids still resolve through the local name table.
	var catalog []models.Cosmetic
	if svc.Catalog != nil {
		catalog, err = svc.Catalog.Entries(c.Request.Context())
		if err != nil {
			logger.Warn("Cosmetics catalog unavailable, filtering without it", "error", err)
		}
	}

	pipeline := marketplace.NewPipeline(catalog, svc.Names)
	filtered, err := pipeline.Apply(products, f)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": filtered,
		"facets":   pipeline.Facets(products),
	})
}

func handleGetSkinsInfo(c *gin.Context) {
	id := strings.TrimSpace(c.Query("athenaID"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "athenaID is required"})
		return
	}
	c.JSON(http.StatusOK, services(c).Names.Describe(id))
}
