// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/npsfilm/proof-perfect-sub000/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Gallery Lifecycle Events
// =============================================================================

// GallerySent is published when a gallery moves from planning to open and the
// selection link goes out to the client.
type GallerySent struct {
	BaseEvent
	GalleryID    uuid.UUID `json:"galleryId"`
	Slug         string    `json:"slug"`
	PropertyName string    `json:"propertyName"`
	ClientEmails []string  `json:"clientEmails"`
}

func (e GallerySent) EventName() string { return "galleries.gallery.sent" }

// GalleryFinalized is published when a client completes the finalization
// protocol and the gallery closes.
type GalleryFinalized struct {
	BaseEvent
	GalleryID     uuid.UUID `json:"galleryId"`
	Slug          string    `json:"slug"`
	PropertyName  string    `json:"propertyName"`
	ClientEmails  []string  `json:"clientEmails"`
	SelectedCount int       `json:"selectedCount"`
	AddonCount    int       `json:"addonCount"`
}

func (e GalleryFinalized) EventName() string { return "galleries.gallery.finalized" }

// GalleryProcessingStarted is published when editing work begins on a closed gallery.
type GalleryProcessingStarted struct {
	BaseEvent
	GalleryID    uuid.UUID `json:"galleryId"`
	PropertyName string    `json:"propertyName"`
}

func (e GalleryProcessingStarted) EventName() string { return "galleries.gallery.processing_started" }

// GalleryDelivered is published when finished assets are handed over to the client.
type GalleryDelivered struct {
	BaseEvent
	GalleryID    uuid.UUID `json:"galleryId"`
	Slug         string    `json:"slug"`
	PropertyName string    `json:"propertyName"`
	ClientEmails []string  `json:"clientEmails"`
	DownloadLink string    `json:"downloadLink,omitempty"`
}

func (e GalleryDelivered) EventName() string { return "galleries.gallery.delivered" }

// GalleryReopened is published when a gallery is moved back to open for
// another round of selection.
type GalleryReopened struct {
	BaseEvent
	GalleryID      uuid.UUID `json:"galleryId"`
	Slug           string    `json:"slug"`
	PropertyName   string    `json:"propertyName"`
	ClientEmails   []string  `json:"clientEmails"`
	PreviousStatus string    `json:"previousStatus"`
}

func (e GalleryReopened) EventName() string { return "galleries.gallery.reopened" }

// =============================================================================
// Reopen Arbitration Events
// =============================================================================

// ReopenRequested is published when a client files a reopen request on a
// closed gallery.
type ReopenRequested struct {
	BaseEvent
	RequestID    uuid.UUID `json:"requestId"`
	GalleryID    uuid.UUID `json:"galleryId"`
	PropertyName string    `json:"propertyName"`
	ClientEmail  string    `json:"clientEmail"`
	Reason       string    `json:"reason"`
}

func (e ReopenRequested) EventName() string { return "reopen.request.created" }

// ReopenResolved is published when a studio operator approves or denies a
// pending reopen request.
type ReopenResolved struct {
	BaseEvent
	RequestID    uuid.UUID `json:"requestId"`
	GalleryID    uuid.UUID `json:"galleryId"`
	PropertyName string    `json:"propertyName"`
	ClientEmails []string  `json:"clientEmails"`
	Approved     bool      `json:"approved"`
	ResolvedBy   uuid.UUID `json:"resolvedBy"`
}

func (e ReopenResolved) EventName() string { return "reopen.request.resolved" }

// =============================================================================
// Photo Events
// =============================================================================

// PhotosRegistered is published when new photos are attached to a gallery.
type PhotosRegistered struct {
	BaseEvent
	GalleryID uuid.UUID `json:"galleryId"`
	Count     int       `json:"count"`
}

func (e PhotosRegistered) EventName() string { return "photos.registered" }

// SelectionReminderDue is published by the scheduler when a gallery has been
// open for a while without being finalized.
type SelectionReminderDue struct {
	BaseEvent
	GalleryID    uuid.UUID `json:"galleryId"`
	Slug         string    `json:"slug"`
	PropertyName string    `json:"propertyName"`
	ClientEmails []string  `json:"clientEmails"`
}

func (e SelectionReminderDue) EventName() string { return "galleries.selection.reminder_due" }

// =============================================================================
// Notification Events
// =============================================================================

// NotificationOutboxDue is published by the scheduler when a notification
// outbox record should be processed.
type NotificationOutboxDue struct {
	BaseEvent
	OutboxID uuid.UUID `json:"outboxId"`
}

func (e NotificationOutboxDue) EventName() string { return "notification.outbox.due" }
