package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/task-mgmt/task-api/internal/task"
)

// Notification describes a message derived from a task lifecycle event.
type Notification struct {
	Type      string
	TaskID    string
	Message   string
	CreatedAt time.Time
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NewNotificationFromEvent converts a TaskEvent into a Notification.
func NewNotificationFromEvent(event task.TaskEvent) Notification {
	var message string
	switch event.Action {
	case task.ActionCreated:
		message = fmt.Sprintf("task %s was created", event.TaskID)
	case task.ActionUpdated:
		message = fmt.Sprintf("task %s moved to status %s", event.TaskID, event.Status)
	case task.ActionDeleted:
		message = fmt.Sprintf("task %s was deleted", event.TaskID)
	default:
		message = fmt.Sprintf("task %s emitted event %s", event.TaskID, event.Action)
	}

	return Notification{
		Type:      event.Action,
		TaskID:    event.TaskID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a Notifier that writes notifications to the log.
func NewLogNotifier(logger *slog.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Notify(ctx context.Context, notification Notification) error {
	n.logger.InfoContext(ctx, "task notification",
		slog.String("type", notification.Type),
		slog.String("task_id", notification.TaskID),
		slog.String("message", notification.Message),
	)
	return nil
}

type eventHandler struct {
	notifier Notifier
}

// NewEventHandler builds the handler that turns task events into
// notifications.
func NewEventHandler(notifier Notifier) EventHandler {
	return &eventHandler{notifier: notifier}
}

func (h *eventHandler) HandleEvent(ctx context.Context, event task.TaskEvent) error {
	return h.notifier.Notify(ctx, NewNotificationFromEvent(event))
}
