package handlers

import (
	"net/http"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/cart"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/events"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/middleware"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/models"

	"github.com/gin-gonic/gin"
)

func cartView(s *cart.Store) gin.H {
	return gin.H{
		"items":       s.Items(),
		"savedItems":  s.Saved(),
		"lines":       s.Lines(),
		"count":       s.CartCount(),
		"total":       s.CartTotal(),
		"grand_total": s.GrandTotal(),
	}
}

func currentCart(c *gin.Context) *cart.Store {
	return middleware.GetProfile(c).Cart
}

func handleGetCart(c *gin.Context) {
	c.JSON(http.StatusOK, cartView(currentCart(c)))
}

func handleAddCartItem(c *gin.Context) {
	var item models.CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if item.ID <= 0 || item.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Item id and name are required"})
		return
	}

	s := currentCart(c)
	if err := s.AddItem(item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartView(s))
}

func handleRemoveCartItem(c *gin.Context) {
	id, ok := parseID(c, "id", "item ID")
	if !ok {
		return
	}
	s := currentCart(c)
	s.RemoveItem(id)
	c.JSON(http.StatusOK, cartView(s))
}

func handleUpdateQuantity(c *gin.Context) {
	id, ok := parseID(c, "id", "item ID")
	if !ok {
		return
	}

	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity is required"})
		return
	}

	s := currentCart(c)
	s.UpdateQuantity(id, *req.Quantity)
	c.JSON(http.StatusOK, cartView(s))
}

func handleUpdateWarranty(c *gin.Context) {
	id, ok := parseID(c, "id", "item ID")
	if !ok {
		return
	}

	var req struct {
		Warranty *int `json:"warranty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Warranty == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Warranty is required"})
		return
	}

	s := currentCart(c)
	if err := s.UpdateWarranty(id, *req.Warranty); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartView(s))
}

func handleSaveForLater(c *gin.Context) {
	id, ok := parseID(c, "id", "item ID")
	if !ok {
		return
	}
	s := currentCart(c)
	s.SaveForLater(id)
	c.JSON(http.StatusOK, cartView(s))
}

func handleMoveToCart(c *gin.Context) {
	id, ok := parseID(c, "id", "item ID")
	if !ok {
		return
	}
	s := currentCart(c)
	s.MoveToCart(id)
	c.JSON(http.StatusOK, cartView(s))
}

func handleRemoveSavedItem(c *gin.Context) {
	id, ok := parseID(c, "id", "item ID")
	if !ok {
		return
	}
	s := currentCart(c)
	s.RemoveSavedItem(id)
	c.JSON(http.StatusOK, cartView(s))
}

func handleClearCart(c *gin.Context) {
	p := middleware.GetProfile(c)
	count := p.Cart.CartCount()
	p.Cart.ClearCart()
	if count > 0 {
		events.Emit(services(c).Events, events.CartCleared, p.ID, gin.H{"count": count})
	}
	c.JSON(http.StatusOK, cartView(p.Cart))
}
