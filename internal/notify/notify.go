// Package notify sends best-effort admin notifications about orders. Callers
// log failures and carry on; checkout never depends on a notification landing.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/wneessen/go-mail"

	"github.com/rainballs/jivot-bez-shum/internal/models"
)

type Notifier interface {
	// OrderEvent reports an order lifecycle event ("created", "paid").
	OrderEvent(ctx context.Context, order *models.Order, event string) error
}

var bodyTemplate = template.Must(template.New("order_admin").Parse(`Order #{{.Order.ID}} — {{.Event}}

Customer: {{.Order.FullName}}
Email:    {{.Order.Email}}
Phone:    {{.Order.Phone}}

Delivery: {{.Order.DeliveryMethod}} via {{.Order.Courier}}
{{- if .ToAddress}}
Address:  {{.Order.AddressLine}}, {{.Order.City}} {{.Order.PostalCode}}
{{- else}}
Office:   {{.Order.OfficeText}}
{{- end}}

Quantity: {{.Order.Quantity}}
Subtotal: {{.Order.SubtotalBGN}} BGN / {{.Order.SubtotalEUR}} EUR
Shipping: {{.Order.ShippingBGN}} BGN / {{.Order.ShippingEUR}} EUR
Total:    {{.Order.TotalBGN}} BGN / {{.Order.TotalEUR}} EUR

Payment:  {{if .Order.PaymentMethod}}{{.Order.PaymentMethod}}{{else}}not chosen{{end}}
Paid:     {{.Order.Paid}}

{{.SiteURL}}
`))

func subject(order *models.Order, event string) string {
	status := "UNPAID"
	if order.Paid {
		status = "PAID"
	}
	return fmt.Sprintf("[Order #%d] %s — %s — %s", order.ID, event, status, order.FullName)
}

func renderBody(order *models.Order, event, siteURL string) (string, error) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, map[string]any{
		"Order":     order,
		"Event":     event,
		"SiteURL":   siteURL,
		"ToAddress": order.DeliveryMethod == models.DeliveryToAddress,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Mailer delivers notifications to the shop admin over SMTP.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	SiteURL  string
}

func (m *Mailer) OrderEvent(ctx context.Context, order *models.Order, event string) error {
	body, err := renderBody(order, event, m.SiteURL)
	if err != nil {
		return fmt.Errorf("render notification: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return err
	}
	if err := msg.To(m.To); err != nil {
		return err
	}
	msg.Subject(subject(order, event))
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{mail.WithPort(m.Port)}
	if m.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.Username),
			mail.WithPassword(m.Password),
		)
	}
	client, err := mail.NewClient(m.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// LogNotifier stands in when SMTP is not configured and writes the would-be
// email to the log instead.
type LogNotifier struct {
	SiteURL string
}

func (l *LogNotifier) OrderEvent(_ context.Context, order *models.Order, event string) error {
	body, err := renderBody(order, event, l.SiteURL)
	if err != nil {
		return err
	}
	slog.Info("order notification (email not configured)",
		"subject", subject(order, event),
		"body", body,
	)
	return nil
}
