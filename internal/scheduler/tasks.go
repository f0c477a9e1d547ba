package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskNotificationOutboxDue = "notification.outbox.due"

const TaskSelectionReminder = "galleries.selection.reminder"

type NotificationOutboxDuePayload struct {
	OutboxID string `json:"outboxId"`
}

type SelectionReminderPayload struct {
	GalleryID string `json:"galleryId"`
}

func NewNotificationOutboxDueTask(payload NotificationOutboxDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationOutboxDue, data), nil
}

func ParseNotificationOutboxDuePayload(task *asynq.Task) (NotificationOutboxDuePayload, error) {
	var payload NotificationOutboxDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NotificationOutboxDuePayload{}, err
	}
	return payload, nil
}

func NewSelectionReminderTask(payload SelectionReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSelectionReminder, data), nil
}

func ParseSelectionReminderPayload(task *asynq.Task) (SelectionReminderPayload, error) {
	var payload SelectionReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SelectionReminderPayload{}, err
	}
	return payload, nil
}
