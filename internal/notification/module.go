// Package notification provides event handlers for sending notifications
// (emails and outbound webhooks) in response to domain events.
// This module subscribes to events and inverts the dependency: domain modules
// no longer need to know about SMTP providers or webhook endpoints.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/internal/email"
	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	notificationoutbox "github.com/npsfilm/proof-perfect-sub000/internal/notification/outbox"
	"github.com/npsfilm/proof-perfect-sub000/internal/webhook"
	"github.com/npsfilm/proof-perfect-sub000/platform/logger"

	"github.com/google/uuid"
)

const (
	invalidOutboxPayloadPrefix = "invalid payload: "
	maxOutboxRetryAttempts     = 5
	outboxRetryBaseDelay       = time.Minute
	outboxRetryMaxDelay        = 60 * time.Minute
)

// Outbox email templates.
const (
	templateSelectionInvite   = "selection_invite"
	templateSelectionReminder = "selection_reminder"
	templateFinalizeConfirm   = "finalization_confirmation"
	templateDelivery          = "delivery"
	templateReopenRequested   = "reopen_requested"
	templateReopenApproved    = "reopen_approved"
	templateReopenDenied      = "reopen_denied"
	templateWebhookEvent      = "webhook_event"
)

// emailOutboxPayload is the durable payload for every email template. Which
// fields matter depends on the template.
type emailOutboxPayload struct {
	ToEmail       string `json:"toEmail"`
	PropertyName  string `json:"propertyName,omitempty"`
	GalleryURL    string `json:"galleryUrl,omitempty"`
	DownloadURL   string `json:"downloadUrl,omitempty"`
	ClientEmail   string `json:"clientEmail,omitempty"`
	Reason        string `json:"reason,omitempty"`
	SelectedCount int    `json:"selectedCount,omitempty"`
	AddonCount    int    `json:"addonCount,omitempty"`
}

// Module wires domain events to email and webhook delivery. With an outbox
// repository configured, notifications are persisted first and delivered by
// the worker; without one they go out inline, best effort.
type Module struct {
	emailSender        email.Sender
	webhooks           *webhook.Client
	notificationOutbox *notificationoutbox.Repository
	appBaseURL         string
	studioEmail        string
	log                *logger.Logger
}

// NewModule creates a new notification module
func NewModule(emailSender email.Sender, webhooks *webhook.Client, appBaseURL, studioEmail string, log *logger.Logger) *Module {
	return &Module{
		emailSender: emailSender,
		webhooks:    webhooks,
		appBaseURL:  appBaseURL,
		studioEmail: studioEmail,
		log:         log,
	}
}

// SetNotificationOutbox injects the notification outbox repository.
func (m *Module) SetNotificationOutbox(repo *notificationoutbox.Repository) {
	m.notificationOutbox = repo
}

// Name returns the module name for logging
func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes the module to all lifecycle events it handles.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.GallerySent{}.EventName(), m)
	bus.Subscribe(events.GalleryFinalized{}.EventName(), m)
	bus.Subscribe(events.GalleryProcessingStarted{}.EventName(), m)
	bus.Subscribe(events.GalleryDelivered{}.EventName(), m)
	bus.Subscribe(events.GalleryReopened{}.EventName(), m)
	bus.Subscribe(events.ReopenRequested{}.EventName(), m)
	bus.Subscribe(events.ReopenResolved{}.EventName(), m)
	bus.Subscribe(events.SelectionReminderDue{}.EventName(), m)
	bus.Subscribe(events.NotificationOutboxDue{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.GallerySent:
		return m.handleGallerySent(ctx, e)
	case events.GalleryFinalized:
		return m.handleGalleryFinalized(ctx, e)
	case events.GalleryProcessingStarted:
		m.log.Info("gallery processing started", "galleryId", e.GalleryID.String())
		return nil
	case events.GalleryDelivered:
		return m.handleGalleryDelivered(ctx, e)
	case events.GalleryReopened:
		return m.handleGalleryReopened(ctx, e)
	case events.ReopenRequested:
		return m.handleReopenRequested(ctx, e)
	case events.ReopenResolved:
		return m.handleReopenResolved(ctx, e)
	case events.SelectionReminderDue:
		return m.handleSelectionReminderDue(ctx, e)
	case events.NotificationOutboxDue:
		return m.handleNotificationOutboxDue(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) galleryURL(slug string) string {
	return m.appBaseURL + "/gallery/" + slug
}

func (m *Module) handleGallerySent(ctx context.Context, e events.GallerySent) error {
	galleryURL := m.galleryURL(e.Slug)
	for _, to := range e.ClientEmails {
		m.dispatchEmail(ctx, templateSelectionInvite, emailOutboxPayload{
			ToEmail:      to,
			PropertyName: e.PropertyName,
			GalleryURL:   galleryURL,
		})
	}
	m.dispatchWebhook(ctx, webhook.Payload{
		Event:        "send",
		GalleryID:    e.GalleryID,
		PropertyName: e.PropertyName,
		ClientEmails: e.ClientEmails,
		DownloadLink: galleryURL,
		OccurredAt:   e.OccurredAt(),
	})
	return nil
}

func (m *Module) handleGalleryFinalized(ctx context.Context, e events.GalleryFinalized) error {
	for _, to := range e.ClientEmails {
		m.dispatchEmail(ctx, templateFinalizeConfirm, emailOutboxPayload{
			ToEmail:       to,
			PropertyName:  e.PropertyName,
			SelectedCount: e.SelectedCount,
			AddonCount:    e.AddonCount,
		})
	}
	return nil
}

func (m *Module) handleGalleryDelivered(ctx context.Context, e events.GalleryDelivered) error {
	for _, to := range e.ClientEmails {
		m.dispatchEmail(ctx, templateDelivery, emailOutboxPayload{
			ToEmail:      to,
			PropertyName: e.PropertyName,
			DownloadURL:  e.DownloadLink,
		})
	}
	m.dispatchWebhook(ctx, webhook.Payload{
		Event:        "deliver",
		GalleryID:    e.GalleryID,
		PropertyName: e.PropertyName,
		ClientEmails: e.ClientEmails,
		DownloadLink: e.DownloadLink,
		OccurredAt:   e.OccurredAt(),
	})
	return nil
}

func (m *Module) handleGalleryReopened(ctx context.Context, e events.GalleryReopened) error {
	galleryURL := m.galleryURL(e.Slug)
	for _, to := range e.ClientEmails {
		m.dispatchEmail(ctx, templateReopenApproved, emailOutboxPayload{
			ToEmail:      to,
			PropertyName: e.PropertyName,
			GalleryURL:   galleryURL,
		})
	}
	return nil
}

func (m *Module) handleReopenRequested(ctx context.Context, e events.ReopenRequested) error {
	if m.studioEmail == "" {
		return nil
	}
	m.dispatchEmail(ctx, templateReopenRequested, emailOutboxPayload{
		ToEmail:      m.studioEmail,
		PropertyName: e.PropertyName,
		ClientEmail:  e.ClientEmail,
		Reason:       e.Reason,
	})
	return nil
}

func (m *Module) handleReopenResolved(ctx context.Context, e events.ReopenResolved) error {
	// Approval already triggers GalleryReopened with the gallery link; only
	// the denial needs its own mail.
	if e.Approved {
		return nil
	}
	for _, to := range e.ClientEmails {
		m.dispatchEmail(ctx, templateReopenDenied, emailOutboxPayload{
			ToEmail:      to,
			PropertyName: e.PropertyName,
		})
	}
	return nil
}

func (m *Module) handleSelectionReminderDue(ctx context.Context, e events.SelectionReminderDue) error {
	galleryURL := m.galleryURL(e.Slug)
	for _, to := range e.ClientEmails {
		m.dispatchEmail(ctx, templateSelectionReminder, emailOutboxPayload{
			ToEmail:      to,
			PropertyName: e.PropertyName,
			GalleryURL:   galleryURL,
		})
	}
	return nil
}

// dispatchEmail persists the mail in the outbox when one is configured,
// otherwise sends inline. Failures are logged, never propagated; a lost
// notification must not roll back the transition that triggered it.
func (m *Module) dispatchEmail(ctx context.Context, template string, payload emailOutboxPayload) {
	if m.notificationOutbox != nil {
		id, err := m.notificationOutbox.Insert(ctx, notificationoutbox.InsertParams{
			Kind:     "email",
			Template: template,
			Payload:  payload,
			RunAt:    time.Now().UTC(),
		})
		if err != nil {
			m.log.DispatchError(template, payload.ToEmail, err)
			return
		}
		m.log.Info("outbox message enqueued", "outboxId", id.String(), "kind", "email", "template", template)
		return
	}

	if err := m.sendEmail(ctx, template, payload); err != nil {
		m.log.DispatchError(template, payload.ToEmail, err)
	}
}

func (m *Module) dispatchWebhook(ctx context.Context, payload webhook.Payload) {
	if m.webhooks == nil || !m.webhooks.HasEndpoints() {
		return
	}
	if m.notificationOutbox != nil {
		id, err := m.notificationOutbox.Insert(ctx, notificationoutbox.InsertParams{
			Kind:     "webhook",
			Template: templateWebhookEvent,
			Payload:  payload,
			RunAt:    time.Now().UTC(),
		})
		if err != nil {
			m.log.DispatchError(payload.Event, payload.GalleryID.String(), err)
			return
		}
		m.log.Info("outbox message enqueued", "outboxId", id.String(), "kind", "webhook", "event", payload.Event)
		return
	}

	if err := m.webhooks.Dispatch(ctx, payload); err != nil {
		m.log.DispatchError(payload.Event, payload.GalleryID.String(), err)
	}
}

func (m *Module) sendEmail(ctx context.Context, template string, p emailOutboxPayload) error {
	switch template {
	case templateSelectionInvite, templateSelectionReminder:
		return m.emailSender.SendSelectionInviteEmail(ctx, p.ToEmail, p.PropertyName, p.GalleryURL)
	case templateFinalizeConfirm:
		return m.emailSender.SendFinalizationConfirmationEmail(ctx, p.ToEmail, p.PropertyName, p.SelectedCount, p.AddonCount)
	case templateDelivery:
		return m.emailSender.SendDeliveryEmail(ctx, p.ToEmail, p.PropertyName, p.DownloadURL)
	case templateReopenRequested:
		return m.emailSender.SendReopenRequestedEmail(ctx, p.ToEmail, p.PropertyName, p.ClientEmail, p.Reason)
	case templateReopenApproved:
		return m.emailSender.SendReopenApprovedEmail(ctx, p.ToEmail, p.PropertyName, p.GalleryURL)
	case templateReopenDenied:
		return m.emailSender.SendReopenDeniedEmail(ctx, p.ToEmail, p.PropertyName)
	default:
		return fmt.Errorf("unknown email template %q", template)
	}
}

func (m *Module) handleNotificationOutboxDue(ctx context.Context, e events.NotificationOutboxDue) error {
	if m.notificationOutbox == nil {
		m.log.Debug("notification outbox repository not configured; skipping outbox due event", "outboxId", e.OutboxID)
		return nil
	}
	rec, process, err := m.prepareOutboxRecord(ctx, e.OutboxID)
	if err != nil || !process {
		if err != nil {
			m.log.Error("failed to prepare outbox record", "outboxId", e.OutboxID, "error", err)
		}
		return err
	}

	var processErr error
	switch rec.Kind {
	case "email":
		processErr = m.processEmailOutbox(ctx, rec)
	case "webhook":
		processErr = m.processWebhookOutbox(ctx, rec)
	default:
		_ = m.notificationOutbox.MarkFailed(ctx, rec.ID, "unsupported outbox kind: "+rec.Kind)
		return nil
	}

	if processErr != nil {
		m.handleOutboxDeliveryError(ctx, rec, processErr)
		return processErr
	}
	_ = m.notificationOutbox.MarkSucceeded(ctx, rec.ID)
	m.log.Info("outbox record processed", "outboxId", rec.ID.String(), "kind", rec.Kind, "template", rec.Template)

	return nil
}

func (m *Module) prepareOutboxRecord(ctx context.Context, outboxID uuid.UUID) (notificationoutbox.Record, bool, error) {
	rec, err := m.notificationOutbox.GetByID(ctx, outboxID)
	if err != nil {
		return notificationoutbox.Record{}, false, err
	}
	if rec.Status == notificationoutbox.StatusSucceeded {
		m.log.Debug("outbox record already succeeded; skipping", "outboxId", rec.ID.String())
		return rec, false, nil
	}
	if err := m.notificationOutbox.MarkProcessing(ctx, rec.ID); err != nil {
		return notificationoutbox.Record{}, false, err
	}
	return rec, true, nil
}

func (m *Module) processEmailOutbox(ctx context.Context, rec notificationoutbox.Record) error {
	var payload emailOutboxPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		_ = m.notificationOutbox.MarkFailed(ctx, rec.ID, invalidOutboxPayloadPrefix+err.Error())
		return nil
	}
	if payload.ToEmail == "" {
		_ = m.notificationOutbox.MarkFailed(ctx, rec.ID, invalidOutboxPayloadPrefix+"missing recipient")
		return nil
	}
	return m.sendEmail(ctx, rec.Template, payload)
}

func (m *Module) processWebhookOutbox(ctx context.Context, rec notificationoutbox.Record) error {
	var payload webhook.Payload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		_ = m.notificationOutbox.MarkFailed(ctx, rec.ID, invalidOutboxPayloadPrefix+err.Error())
		return nil
	}
	if m.webhooks == nil {
		_ = m.notificationOutbox.MarkFailed(ctx, rec.ID, "webhook client not configured")
		return nil
	}
	return m.webhooks.Dispatch(ctx, payload)
}

func (m *Module) handleOutboxDeliveryError(ctx context.Context, rec notificationoutbox.Record, deliveryErr error) {
	attempt := rec.Attempts + 1
	if attempt >= maxOutboxRetryAttempts {
		_ = m.notificationOutbox.MarkFailed(ctx, rec.ID, deliveryErr.Error())
		m.log.Warn("notification outbox exhausted retries",
			"outboxId", rec.ID.String(),
			"kind", rec.Kind,
			"template", rec.Template,
			"attempt", attempt,
			"error", deliveryErr,
		)
		return
	}

	retryAt := time.Now().UTC().Add(computeOutboxRetryDelay(attempt))
	if err := m.notificationOutbox.ScheduleRetry(ctx, rec.ID, retryAt, deliveryErr.Error()); err != nil {
		_ = m.notificationOutbox.MarkFailed(ctx, rec.ID, deliveryErr.Error())
		m.log.Error("notification outbox retry scheduling failed; marked failed",
			"outboxId", rec.ID.String(),
			"attempt", attempt,
			"error", err,
		)
		return
	}

	m.log.Warn("notification outbox scheduled retry",
		"outboxId", rec.ID.String(),
		"kind", rec.Kind,
		"template", rec.Template,
		"attempt", attempt,
		"retryAt", retryAt,
		"error", deliveryErr,
	)
}

func computeOutboxRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := outboxRetryBaseDelay << (attempt - 1)
	if delay > outboxRetryMaxDelay {
		return outboxRetryMaxDelay
	}
	return delay
}
