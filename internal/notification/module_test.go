package notification

import (
	"context"
	"testing"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	"github.com/npsfilm/proof-perfect-sub000/platform/logger"

	"github.com/google/uuid"
)

type testSender struct {
	inviteCalls          int
	inviteRecipients     []string
	inviteURLs           []string
	finalizeCalls        int
	lastSelectedCount    int
	lastAddonCount       int
	deliveryCalls        int
	lastDownloadURL      string
	reopenRequestedCalls int
	lastReopenRequestTo  string
	reopenDeniedCalls    int
}

func (s *testSender) SendSelectionInviteEmail(_ context.Context, toEmail, _, galleryURL string) error {
	s.inviteCalls++
	s.inviteRecipients = append(s.inviteRecipients, toEmail)
	s.inviteURLs = append(s.inviteURLs, galleryURL)
	return nil
}

func (s *testSender) SendFinalizationConfirmationEmail(_ context.Context, _, _ string, selectedCount, addonCount int) error {
	s.finalizeCalls++
	s.lastSelectedCount = selectedCount
	s.lastAddonCount = addonCount
	return nil
}

func (s *testSender) SendDeliveryEmail(_ context.Context, _, _, downloadURL string) error {
	s.deliveryCalls++
	s.lastDownloadURL = downloadURL
	return nil
}

func (s *testSender) SendReopenRequestedEmail(_ context.Context, toEmail, _, _, _ string) error {
	s.reopenRequestedCalls++
	s.lastReopenRequestTo = toEmail
	return nil
}

func (s *testSender) SendReopenApprovedEmail(context.Context, string, string, string) error {
	return nil
}

func (s *testSender) SendReopenDeniedEmail(context.Context, string, string) error {
	s.reopenDeniedCalls++
	return nil
}

func (s *testSender) SendCustomEmail(context.Context, string, string, string) error { return nil }

const testBaseURL = "https://galleries.example.com"
const testStudioEmail = "studio@example.com"

func newTestModule(sender *testSender) *Module {
	return NewModule(sender, nil, testBaseURL, testStudioEmail, logger.New("development"))
}

func TestHandleGallerySentMailsEveryRecipient(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)

	err := m.Handle(context.Background(), events.GallerySent{
		BaseEvent:    events.NewBaseEvent(),
		GalleryID:    uuid.New(),
		Slug:         "maple-street-12",
		PropertyName: "Maple Street 12",
		ClientEmails: []string{"a@example.com", "b@example.com"},
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if sender.inviteCalls != 2 {
		t.Errorf("invite calls = %d, want 2", sender.inviteCalls)
	}
	wantURL := testBaseURL + "/gallery/maple-street-12"
	for _, got := range sender.inviteURLs {
		if got != wantURL {
			t.Errorf("gallery url = %q, want %q", got, wantURL)
		}
	}
}

func TestHandleGalleryFinalizedCarriesCounts(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)

	err := m.Handle(context.Background(), events.GalleryFinalized{
		BaseEvent:     events.NewBaseEvent(),
		GalleryID:     uuid.New(),
		Slug:          "maple-street-12",
		PropertyName:  "Maple Street 12",
		ClientEmails:  []string{"a@example.com"},
		SelectedCount: 18,
		AddonCount:    3,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if sender.finalizeCalls != 1 {
		t.Fatalf("finalize calls = %d, want 1", sender.finalizeCalls)
	}
	if sender.lastSelectedCount != 18 || sender.lastAddonCount != 3 {
		t.Errorf("counts = %d/%d, want 18/3", sender.lastSelectedCount, sender.lastAddonCount)
	}
}

func TestHandleGalleryDeliveredUsesDownloadLink(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)
	link := "https://downloads.example.com/final.zip"

	err := m.Handle(context.Background(), events.GalleryDelivered{
		BaseEvent:    events.NewBaseEvent(),
		GalleryID:    uuid.New(),
		Slug:         "maple-street-12",
		PropertyName: "Maple Street 12",
		ClientEmails: []string{"a@example.com"},
		DownloadLink: link,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if sender.deliveryCalls != 1 {
		t.Fatalf("delivery calls = %d, want 1", sender.deliveryCalls)
	}
	if sender.lastDownloadURL != link {
		t.Errorf("download url = %q, want %q", sender.lastDownloadURL, link)
	}
}

func TestHandleReopenRequestedMailsTheStudio(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)

	err := m.Handle(context.Background(), events.ReopenRequested{
		BaseEvent:    events.NewBaseEvent(),
		RequestID:    uuid.New(),
		GalleryID:    uuid.New(),
		PropertyName: "Maple Street 12",
		ClientEmail:  "a@example.com",
		Reason:       "missing garden shots",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if sender.reopenRequestedCalls != 1 {
		t.Fatalf("reopen requested calls = %d, want 1", sender.reopenRequestedCalls)
	}
	if sender.lastReopenRequestTo != testStudioEmail {
		t.Errorf("recipient = %q, want %q", sender.lastReopenRequestTo, testStudioEmail)
	}
}

func TestHandleReopenRequestedWithoutStudioEmail(t *testing.T) {
	sender := &testSender{}
	m := NewModule(sender, nil, testBaseURL, "", logger.New("development"))

	err := m.Handle(context.Background(), events.ReopenRequested{
		BaseEvent: events.NewBaseEvent(),
		RequestID: uuid.New(),
		GalleryID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if sender.reopenRequestedCalls != 0 {
		t.Errorf("reopen requested calls = %d, want 0", sender.reopenRequestedCalls)
	}
}

func TestHandleReopenResolvedOnlyDenialSendsMail(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)

	approved := events.ReopenResolved{
		BaseEvent:    events.NewBaseEvent(),
		RequestID:    uuid.New(),
		GalleryID:    uuid.New(),
		ClientEmails: []string{"a@example.com"},
		Approved:     true,
	}
	if err := m.Handle(context.Background(), approved); err != nil {
		t.Fatalf("Handle(approved) error = %v", err)
	}
	if sender.reopenDeniedCalls != 0 {
		t.Errorf("denied mails after approval = %d, want 0", sender.reopenDeniedCalls)
	}

	denied := approved
	denied.Approved = false
	if err := m.Handle(context.Background(), denied); err != nil {
		t.Fatalf("Handle(denied) error = %v", err)
	}
	if sender.reopenDeniedCalls != 1 {
		t.Errorf("denied mails = %d, want 1", sender.reopenDeniedCalls)
	}
}

func TestHandleSelectionReminderDue(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)

	err := m.Handle(context.Background(), events.SelectionReminderDue{
		BaseEvent:    events.NewBaseEvent(),
		GalleryID:    uuid.New(),
		Slug:         "maple-street-12",
		PropertyName: "Maple Street 12",
		ClientEmails: []string{"a@example.com"},
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if sender.inviteCalls != 1 {
		t.Errorf("reminder mails = %d, want 1", sender.inviteCalls)
	}
}

func TestComputeOutboxRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: time.Minute},
		{attempt: 1, want: time.Minute},
		{attempt: 2, want: 2 * time.Minute},
		{attempt: 3, want: 4 * time.Minute},
		{attempt: 4, want: 8 * time.Minute},
		{attempt: 7, want: 60 * time.Minute},
		{attempt: 20, want: 60 * time.Minute},
	}
	for _, tt := range tests {
		if got := computeOutboxRetryDelay(tt.attempt); got != tt.want {
			t.Errorf("computeOutboxRetryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
