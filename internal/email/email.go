package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v5"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/config"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/logger"
)

var ErrDisabled = errors.New("email service is not configured")

type Service struct {
	client      mailgun.Mailgun
	domain      string
	senderEmail string
	senderName  string
	enabled     bool
}

func NewService(cfg *config.Config) *Service {
	enabled := cfg.MailgunDomain != "" && cfg.MailgunAPIKey != ""

	var client mailgun.Mailgun
	if enabled {
		client = mailgun.NewMailgun(cfg.MailgunAPIKey)
	}

	return &Service{
		client:      client,
		domain:      cfg.MailgunDomain,
		senderEmail: cfg.MailgunSenderEmail,
		senderName:  cfg.MailgunSenderName,
		enabled:     enabled,
	}
}

func (s *Service) IsEnabled() bool {
	return s != nil && s.enabled
}

// Receipt is what the buyer is told after an order is placed.
type Receipt struct {
	Email         string
	OrderID       string
	ProductID     int
	ProductName   string
	PaymentMethod string
	PaymentURL    string
	Warranty      int
	Mock          bool
}

func (s *Service) SendOrderReceipt(ctx context.Context, r Receipt) error {
	if !s.IsEnabled() {
		return ErrDisabled
	}

	subject := fmt.Sprintf("Your Rift Battle order %s", r.OrderID)
	message := mailgun.NewMessage(
		s.domain,
		fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail),
		subject,
		receiptText(r),
		r.Email,
	)
	message.SetHTML(receiptHTML(r))

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := s.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send order receipt: %w", err)
	}

	logger.Info("Order receipt sent", "email", r.Email, "order_id", r.OrderID, "response", resp)
	return nil
}

// SendOrderReceiptAsync sends the receipt off the request path.
func (s *Service) SendOrderReceiptAsync(r Receipt) {
	if !s.IsEnabled() {
		return
	}
	go func() {
		if err := s.SendOrderReceipt(context.Background(), r); err != nil {
			logger.Error("Failed to send order receipt", "email", r.Email, "order_id", r.OrderID, "error", err)
		}
	}()
}
