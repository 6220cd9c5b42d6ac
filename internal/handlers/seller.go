package handlers

import (
	"net/http"
	"strings"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/backend"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/logger"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/middleware"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/poll"

	"github.com/gin-gonic/gin"
)

var requiredProductFields = []string{"name", "price", "athena_ids", "stats", "description", "credentials"}

func handleEditProduct(c *gin.Context) {
	svc := services(c)
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var product map[string]interface{}
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var missing []string
	for _, field := range requiredProductFields {
		if v, ok := product[field]; !ok || v == nil || v == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing required fields: " + strings.Join(missing, ", "),
			"missing": missing,
		})
		return
	}
	if _, ok := product["athena_ids"].([]interface{}); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "athena_ids must be an array"})
		return
	}
	if _, ok := product["price"].(float64); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a number"})
		return
	}

	raw, err := svc.Backend.EditProduct(c.Request.Context(), middleware.Credentials(c), id, product)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Product updated", "product_id", id)
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func handleGetSellerLink(c *gin.Context) {
	raw, err := services(c).Backend.GetSellerLink(c.Request.Context(), middleware.Credentials(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// handleGetSkins reads the locker behind a device code. With wait=1 it
// keeps polling until the code has been authorised on the Epic side.
func handleGetSkins(c *gin.Context) {
	svc := services(c)
	deviceCode := strings.TrimSpace(c.Query("device_code"))
	if deviceCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device_code is required"})
		return
	}
	creds := middleware.Credentials(c)

	var (
		skins *backend.Skins
		err   error
	)
	if c.Query("wait") == "1" {
		skins, err = svc.Backend.WaitForSkins(c.Request.Context(), creds, deviceCode, poll.Options{
			Interval:    svc.Config.SkinsPollInterval,
			MaxAttempts: svc.Config.SkinsPollAttempts,
		})
	} else {
		skins, err = svc.Backend.GetSkins(c.Request.Context(), creds, deviceCode)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if !skins.Ready {
		status = http.StatusAccepted
	}
	c.JSON(status, skins)
}
