package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"portfolio-backend-go/internal/metrics"
	"portfolio-backend-go/internal/models"

	"gopkg.in/gomail.v2"
)

// Notifier is told about every stored contact message.
type Notifier interface {
	ContactReceived(ctx context.Context, contact models.Contact) error
}

type NopNotifier struct{}

func (NopNotifier) ContactReceived(context.Context, models.Contact) error { return nil }

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	NotifyTo string
}

// SMTPNotifier mails the site owner and sends the submitter an auto-reply.
type SMTPNotifier struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)}
}

func (n *SMTPNotifier) ContactReceived(ctx context.Context, contact models.Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	messages := []*gomail.Message{n.ownerMessage(contact), n.autoReply(contact)}
	err := n.dialer.DialAndSend(messages...)
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	metrics.NotificationsTotal.WithLabelValues("contact", outcome).Add(float64(len(messages)))
	if err != nil {
		return fmt.Errorf("send contact mail: %w", err)
	}
	return nil
}

func (n *SMTPNotifier) ownerMessage(c models.Contact) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", n.cfg.NotifyTo)
	m.SetHeader("Reply-To", c.Email)
	m.SetHeader("Subject", "Portfolio Contact: "+html.UnescapeString(c.Subject))
	m.SetBody("text/html", OwnerNotificationHTML(c, time.Now()))
	return m
}

func (n *SMTPNotifier) autoReply(c models.Contact) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", c.Email)
	m.SetHeader("Subject", "Thank you for your message")
	m.SetBody("text/html", AutoReplyHTML(c))
	return m
}

// OwnerNotificationHTML renders the owner mail. Contact text fields are
// stored escaped and are used as-is.
func OwnerNotificationHTML(c models.Contact, at time.Time) string {
	var b strings.Builder
	b.WriteString("<h2>New Contact Form Submission</h2>\n")
	fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>\n", c.Name)
	fmt.Fprintf(&b, "<p><strong>Email:</strong> %s</p>\n", html.EscapeString(c.Email))
	fmt.Fprintf(&b, "<p><strong>Subject:</strong> %s</p>\n", c.Subject)
	fmt.Fprintf(&b, "<p><strong>Message:</strong></p>\n<p>%s</p>\n<hr>\n", withBreaks(c.Message))
	fmt.Fprintf(&b, "<p><small>Submitted at: %s</small></p>\n", at.UTC().Format(time.RFC1123))
	fmt.Fprintf(&b, "<p><small>IP: %s</small></p>\n", html.EscapeString(c.IPAddress))
	return b.String()
}

func AutoReplyHTML(c models.Contact) string {
	var b strings.Builder
	b.WriteString("<h2>Thank you for contacting me!</h2>\n")
	fmt.Fprintf(&b, "<p>Hi %s,</p>\n", c.Name)
	b.WriteString("<p>I've received your message and will get back to you as soon as possible.</p>\n")
	fmt.Fprintf(&b, "<p><strong>Your message:</strong></p>\n<p>%s</p>\n", withBreaks(c.Message))
	b.WriteString("<br>\n<p>Best regards</p>\n")
	return b.String()
}

func withBreaks(s string) string {
	return strings.ReplaceAll(s, "\n", "<br>")
}
