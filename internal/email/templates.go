package email

import (
	"fmt"
	"html"
	"strings"
)

func warrantyLabel(months int) string {
	if months == 0 {
		return "None"
	}
	return fmt.Sprintf("%d months", months)
}

func productLabel(r Receipt) string {
	if r.ProductName != "" {
		return r.ProductName
	}
	return fmt.Sprintf("Product #%d", r.ProductID)
}

func receiptHTML(r Receipt) string {
	var notice string
	if r.Mock {
		notice = `<p class="notice">This is a demo payment link. No funds will be taken.</p>`
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Rift Battle order %[1]s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #1a1a2e; background-color: #f4f4f8; padding: 20px; }
        .container { background-color: white; max-width: 600px; margin: 0 auto; padding: 32px; border-radius: 12px; }
        .logo { font-size: 26px; font-weight: bold; color: #6c2bd9; }
        td { padding: 6px 12px 6px 0; }
        .cta-button { display: inline-block; background-color: #6c2bd9; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; }
        .notice { color: #a05a00; font-size: 14px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="logo">Rift Battle</div>
        <p>Thanks for your order. Complete the payment to receive your account.</p>
        <table>
            <tr><td>Order</td><td>%[1]s</td></tr>
            <tr><td>Product</td><td>%[2]s</td></tr>
            <tr><td>Payment method</td><td>%[3]s</td></tr>
            <tr><td>Warranty</td><td>%[4]s</td></tr>
        </table>
        <p><a href="%[5]s" class="cta-button">Pay now</a></p>
        %[6]s
    </div>
</body>
</html>`,
		html.EscapeString(r.OrderID),
		html.EscapeString(productLabel(r)),
		html.EscapeString(r.PaymentMethod),
		warrantyLabel(r.Warranty),
		html.EscapeString(r.PaymentURL),
		notice,
	)
}

func receiptText(r Receipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thanks for your Rift Battle order.\n\n")
	fmt.Fprintf(&b, "Order: %s\n", r.OrderID)
	fmt.Fprintf(&b, "Product: %s\n", productLabel(r))
	fmt.Fprintf(&b, "Payment method: %s\n", r.PaymentMethod)
	fmt.Fprintf(&b, "Warranty: %s\n\n", warrantyLabel(r.Warranty))
	fmt.Fprintf(&b, "Complete your payment here: %s\n", r.PaymentURL)
	if r.Mock {
		b.WriteString("\nThis is a demo payment link. No funds will be taken.\n")
	}
	return b.String()
}
