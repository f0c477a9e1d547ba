// Package email renders and delivers transactional mail for the gallery
// lifecycle: selection invites, finalization confirmations, delivery notices
// and reopen decisions.
package email

import "context"

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte // raw file bytes
	FileName string // e.g. "auswahl-villa-sonnenhof.pdf"
	MIMEType string // e.g. "application/pdf"
}

type Sender interface {
	SendSelectionInviteEmail(ctx context.Context, toEmail, propertyName, galleryURL string) error
	SendFinalizationConfirmationEmail(ctx context.Context, toEmail, propertyName string, selectedCount, addonCount int) error
	SendDeliveryEmail(ctx context.Context, toEmail, propertyName, downloadURL string) error
	SendReopenRequestedEmail(ctx context.Context, toEmail, propertyName, clientEmail, reason string) error
	SendReopenApprovedEmail(ctx context.Context, toEmail, propertyName, galleryURL string) error
	SendReopenDeniedEmail(ctx context.Context, toEmail, propertyName string) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender is used when no mail transport is configured. All sends succeed
// without doing anything.
type NoopSender struct{}

func (NoopSender) SendSelectionInviteEmail(ctx context.Context, toEmail, propertyName, galleryURL string) error {
	return nil
}

func (NoopSender) SendFinalizationConfirmationEmail(ctx context.Context, toEmail, propertyName string, selectedCount, addonCount int) error {
	return nil
}

func (NoopSender) SendDeliveryEmail(ctx context.Context, toEmail, propertyName, downloadURL string) error {
	return nil
}

func (NoopSender) SendReopenRequestedEmail(ctx context.Context, toEmail, propertyName, clientEmail, reason string) error {
	return nil
}

func (NoopSender) SendReopenApprovedEmail(ctx context.Context, toEmail, propertyName, galleryURL string) error {
	return nil
}

func (NoopSender) SendReopenDeniedEmail(ctx context.Context, toEmail, propertyName string) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}
