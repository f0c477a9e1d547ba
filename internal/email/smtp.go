package email

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// NewSender builds the configured Sender. With email disabled or no SMTP
// host, a NoopSender keeps the notification paths alive without sending.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		return NoopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(), cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(), cfg.GetEmailFromName(),
	), nil
}

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string, attachments ...Attachment) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	for _, att := range attachments {
		msg.AttachReader(att.FileName, bytes.NewReader(att.Content))
	}

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendSelectionInviteEmail(ctx context.Context, toEmail, propertyName, galleryURL string) error {
	subject := fmt.Sprintf(subjectSelectionInviteFmt, propertyName)
	content, err := renderEmailTemplate("selection_invite.html", selectionInviteEmailData{
		baseEmailData: baseEmailData{
			Title:    "Galerie bereit",
			Heading:  "Ihre Galerie ist bereit",
			CTALabel: "Galerie öffnen",
			CTAURL:   galleryURL,
		},
		PropertyName: propertyName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendFinalizationConfirmationEmail(ctx context.Context, toEmail, propertyName string, selectedCount, addonCount int) error {
	subject := fmt.Sprintf(subjectFinalizationConfirmFmt, propertyName)
	content, err := renderEmailTemplate("finalization_confirmation.html", finalizationConfirmationEmailData{
		baseEmailData: baseEmailData{
			Title:   "Auswahl eingegangen",
			Heading: "Auswahl eingegangen",
		},
		PropertyName:  propertyName,
		SelectedCount: selectedCount,
		AddonCount:    addonCount,
		HasAddons:     addonCount > 0,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendDeliveryEmail(ctx context.Context, toEmail, propertyName, downloadURL string) error {
	subject := fmt.Sprintf(subjectDeliveryFmt, propertyName)
	content, err := renderEmailTemplate("delivery.html", deliveryEmailData{
		baseEmailData: baseEmailData{
			Title:    "Bilder fertig",
			Heading:  "Ihre Bilder sind fertig",
			CTALabel: "Bilder herunterladen",
			CTAURL:   downloadURL,
		},
		PropertyName: propertyName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendReopenRequestedEmail(ctx context.Context, toEmail, propertyName, clientEmail, reason string) error {
	subject := fmt.Sprintf(subjectReopenRequestedFmt, propertyName)
	content, err := renderEmailTemplate("reopen_requested.html", reopenRequestedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Wiedereröffnung angefragt",
			Heading: "Wiedereröffnung angefragt",
		},
		PropertyName: propertyName,
		ClientEmail:  clientEmail,
		Reason:       reason,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendReopenApprovedEmail(ctx context.Context, toEmail, propertyName, galleryURL string) error {
	subject := fmt.Sprintf(subjectReopenApprovedFmt, propertyName)
	content, err := renderEmailTemplate("reopen_approved.html", reopenApprovedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Galerie wieder geöffnet",
			Heading:  "Galerie wieder geöffnet",
			CTALabel: "Zur Galerie",
			CTAURL:   galleryURL,
		},
		PropertyName: propertyName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendReopenDeniedEmail(ctx context.Context, toEmail, propertyName string) error {
	subject := fmt.Sprintf(subjectReopenDeniedFmt, propertyName)
	content, err := renderEmailTemplate("reopen_denied.html", reopenDeniedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Anfrage zur Wiedereröffnung",
			Heading: "Anfrage zur Wiedereröffnung",
		},
		PropertyName: propertyName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return s.send(ctx, toEmail, subject, htmlContent)
}
