// Package notify implements the order-confirmation messaging collaborator.
// Errors are returned to the orchestrator, which treats them as soft; a
// failed confirmation never blocks order placement.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/glowcart/checkout-api/internal/domain/order"
)

// SMTPConfig holds the mail transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// Configured reports whether the transport has enough settings to send.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

var _ order.Notifier = (*SMTPNotifier)(nil)

// SMTPNotifier sends order confirmations over plain SMTP.
type SMTPNotifier struct {
	cfg SMTPConfig
	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates a notifier for the given transport settings.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

// SendOrderConfirmation mails a plain-text confirmation to the order's
// customer email.
func (n *SMTPNotifier) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	msg := buildConfirmation(n.cfg.From, o)
	if err := n.send(addr, auth, n.cfg.From, []string{o.Email}, msg); err != nil {
		return errors.Wrapf(err, "send confirmation for order %s", o.ID)
	}
	return nil
}

func buildConfirmation(from string, o *order.Order) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", o.Email)
	fmt.Fprintf(&b, "Subject: Order confirmation %s\r\n", o.ID)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")

	fmt.Fprintf(&b, "Hi %s,\r\n\r\nThanks for your order %s.\r\n\r\n", o.FullName, o.ID)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %dx %s @ %s\r\n", it.Quantity, it.Name, it.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\r\nSubtotal: %s\r\n", o.Totals.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Shipping: %s\r\n", o.Totals.ShippingCost.StringFixed(2))
	fmt.Fprintf(&b, "Tax: %s\r\n", o.Totals.Tax.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s\r\n\r\n", o.Totals.GrandTotal.StringFixed(2))
	fmt.Fprintf(&b, "Shipping to: %s\r\n", o.Address)

	return []byte(b.String())
}

var _ order.Notifier = (*LogNotifier)(nil)

// LogNotifier records confirmations in the log instead of sending mail.
// Wired when no SMTP transport is configured.
type LogNotifier struct{}

// NewLogNotifier returns a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// SendOrderConfirmation logs the confirmation and succeeds.
func (n *LogNotifier) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	zctx.From(ctx).Info("order confirmation (no mail transport configured)",
		zap.String("order_id", o.ID),
		zap.String("email", o.Email),
		zap.String("grand_total", o.Totals.GrandTotal.String()),
	)
	return nil
}
