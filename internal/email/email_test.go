package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/config"
)

func TestDisabledWithoutCredentials(t *testing.T) {
	s := NewService(&config.Config{MailgunDomain: "mg.riftbattle.com"})
	if s.IsEnabled() {
		t.Error("Expected service to be disabled without an API key")
	}
	if err := s.SendOrderReceipt(context.Background(), Receipt{Email: "a@b.com"}); !errors.Is(err, ErrDisabled) {
		t.Errorf("Expected ErrDisabled, got %v", err)
	}
}

func TestReceiptEscapesInput(t *testing.T) {
	r := Receipt{
		OrderID:       "ord-1",
		ProductID:     42,
		ProductName:   "<script>alert(1)</script>",
		PaymentMethod: "paypal",
		PaymentURL:    "https://pay.example/checkout?a=1&b=2",
		Warranty:      6,
		Mock:          true,
	}

	body := receiptHTML(r)
	if strings.Contains(body, "<script>") {
		t.Error("Expected product name to be escaped")
	}
	if !strings.Contains(body, "a=1&amp;b=2") {
		t.Error("Expected payment URL to be escaped")
	}
	if !strings.Contains(body, "6 months") || !strings.Contains(body, "demo payment link") {
		t.Error("Expected warranty and demo notice in receipt")
	}

	text := receiptText(Receipt{OrderID: "ord-2", ProductID: 7})
	if !strings.Contains(text, "Product #7") || !strings.Contains(text, "Warranty: None") {
		t.Errorf("Unexpected text receipt:\n%s", text)
	}
}
