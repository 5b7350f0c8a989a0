package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	gomail "gopkg.in/gomail.v2"

	"rentory/pkg/config"
	"rentory/pkg/logger"
	"rentory/pkg/model"
)

// Mailer sends booking invites and cancellations over SMTP with an
// attached ICS payload, so standard calendar clients pick the event up
// automatically.
type Mailer struct {
	dialer *gomail.Dialer
	ics    *ICSBuilder
	from   string
	log    *logger.Logger
	now    func() time.Time
}

func NewMailer(cfg *config.Config, log *logger.Logger) *Mailer {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	dialer.TLSConfig = &tls.Config{
		ServerName: cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}

	return &Mailer{
		dialer: dialer,
		ics:    NewICSBuilder(cfg.MailDomain),
		from:   cfg.MailFrom,
		log:    log,
		now:    time.Now,
	}
}

func (m *Mailer) SendInvite(ctx context.Context, recipients []string, detail *model.BookingDetail) (string, error) {
	ics := m.ics.BuildInvite(detail, m.now())
	subject := inviteSubject(detail)
	body := inviteBody(detail)

	messageID, err := m.send(ctx, recipients, subject, body, ics, "REQUEST")
	if err != nil {
		return "", fmt.Errorf("failed to send invite for booking %s: %w", detail.ID.Hex(), err)
	}
	return messageID, nil
}

func (m *Mailer) SendCancellation(ctx context.Context, recipients []string, detail *model.BookingDetail) (string, error) {
	ics := m.ics.BuildCancellation(detail, m.now())
	subject := "Storniert: " + inviteSubject(detail)
	body := "Die folgende Buchung wurde storniert:\r\n\r\n" + inviteBody(detail)

	messageID, err := m.send(ctx, recipients, subject, body, ics, "CANCEL")
	if err != nil {
		return "", fmt.Errorf("failed to send cancellation for booking %s: %w", detail.ID.Hex(), err)
	}
	return messageID, nil
}

func (m *Mailer) send(ctx context.Context, recipients []string, subject, body, ics, method string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), m.ics.Domain)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-ID", messageID)
	msg.SetBody("text/plain", body)
	msg.Attach("invite.ics",
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write([]byte(ics))
			return err
		}),
		gomail.SetHeader(map[string][]string{
			"Content-Type": {fmt.Sprintf("text/calendar; method=%s; charset=UTF-8", method)},
		}),
	)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return "", err
	}
	return messageID, nil
}

func inviteSubject(detail *model.BookingDetail) string {
	if detail.Customer != nil && detail.Customer.Name != "" {
		return fmt.Sprintf("Buchung %s (%s)", detail.Customer.Name, detail.StartDate.Format("02.01.2006"))
	}
	return fmt.Sprintf("Buchung (%s)", detail.StartDate.Format("02.01.2006"))
}

func inviteBody(detail *model.BookingDetail) string {
	var b strings.Builder
	if detail.Customer != nil {
		fmt.Fprintf(&b, "Kunde: %s\r\n", detail.Customer.Name)
	}
	fmt.Fprintf(&b, "Zeitraum: %s - %s\r\n",
		detail.StartDate.Format("02.01.2006 15:04"),
		detail.EndDate.Format("02.01.2006 15:04"),
	)
	if len(detail.Items) > 0 {
		b.WriteString("Artikel:\r\n")
		for _, line := range detail.Items {
			name := "Unbekannter Artikel"
			if line.Item != nil {
				name = line.Item.Name
			}
			fmt.Fprintf(&b, "  - %s (%dx)\r\n", name, line.Quantity)
		}
	}
	if detail.Notes != "" {
		fmt.Fprintf(&b, "Notizen: %s\r\n", detail.Notes)
	}
	return b.String()
}
