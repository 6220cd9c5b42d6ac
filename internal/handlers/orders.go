package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/backend"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/cart"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/email"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/events"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/logger"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	PaymentPayPal        = "paypal"
	PaymentTelegramStars = "telegram_stars"
	PaymentNOWPayments   = "nowpayments"
)

var mockPaymentURLs = map[string]string{
	PaymentPayPal:        "https://www.sandbox.paypal.com/checkoutnow?token=%s",
	PaymentTelegramStars: "https://t.me/riftbattle_bot?start=pay_%s",
	PaymentNOWPayments:   "https://nowpayments.io/payment/?iid=%s",
}

func mockPaymentURL(method, orderID string) (string, bool) {
	pattern, ok := mockPaymentURLs[method]
	if !ok {
		return "", false
	}
	return fmt.Sprintf(pattern, orderID), true
}

type createOrderRequest struct {
	Email         string `json:"email"`
	ProductID     int    `json:"product_id"`
	PaymentMethod string `json:"payment_method"`
	Coupon        string `json:"coupon"`
	Warranty      int    `json:"warranty"`
}

func (r createOrderRequest) validate() string {
	switch {
	case r.Email == "":
		return "Email is required"
	case !emailRegex.MatchString(r.Email):
		return "Please enter a valid email address"
	case r.ProductID <= 0:
		return "product_id is required"
	case r.PaymentMethod == "":
		return "payment_method is required"
	}
	if _, ok := mockPaymentURLs[r.PaymentMethod]; !ok {
		return "Unsupported payment method"
	}
	if !cart.ValidWarranty(r.Warranty) {
		return cart.ErrInvalidWarranty.Error()
	}
	return ""
}

// handleCreateOrder places the order with the backend. When the backend
// cannot take it, a demo payment link is issued instead; validation errors
// reported by the backend are relayed as they are.
func handleCreateOrder(c *gin.Context) {
	svc := services(c)
	p := middleware.GetProfile(c)

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	req.Coupon = strings.TrimSpace(req.Coupon)

	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	order, err := svc.Backend.CreateOrder(c.Request.Context(), backend.OrderRequest{
		Email:         req.Email,
		ProductID:     req.ProductID,
		PaymentMethod: req.PaymentMethod,
		Coupon:        req.Coupon,
		Warranty:      req.Warranty,
	})

	var statusErr *backend.StatusError
	switch {
	case err == nil:
		orderID := stringField(order, "order_id", "id")
		logger.Info("Order created", "email", req.Email, "order_id", orderID, "product_id", req.ProductID)
		events.Emit(svc.Events, events.OrderCreated, p.ID, order)
		svc.Email.SendOrderReceiptAsync(email.Receipt{
			Email:         req.Email,
			OrderID:       orderID,
			ProductID:     req.ProductID,
			PaymentMethod: req.PaymentMethod,
			PaymentURL:    stringField(order, "payment_url", "url"),
			Warranty:      req.Warranty,
		})
		c.JSON(http.StatusOK, order)

	case errors.As(err, &statusErr), errors.Is(err, backend.ErrUnauthorized), errors.Is(err, backend.ErrForbidden):
		respondError(c, err)

	default:
		logger.Warn("Backend order failed, issuing demo payment link", "email", req.Email, "error", err)
		orderID := "mock_" + uuid.NewString()
		paymentURL, _ := mockPaymentURL(req.PaymentMethod, orderID)
		mock := gin.H{
			"order_id":       orderID,
			"product_id":     req.ProductID,
			"payment_method": req.PaymentMethod,
			"payment_url":    paymentURL,
			"status":         "pending",
			"mock":           true,
		}
		events.Emit(svc.Events, events.OrderMocked, p.ID, mock)
		svc.Email.SendOrderReceiptAsync(email.Receipt{
			Email:         req.Email,
			OrderID:       orderID,
			ProductID:     req.ProductID,
			PaymentMethod: req.PaymentMethod,
			PaymentURL:    paymentURL,
			Warranty:      req.Warranty,
			Mock:          true,
		})
		c.JSON(http.StatusOK, mock)
	}
}

func stringField(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
