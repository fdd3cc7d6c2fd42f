package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	maxNameLength        = 255
	maxDescriptionLength = 1000

	// DefaultLimit is applied when a List caller omits the limit.
	DefaultLimit = 100
	// MaxLimit bounds the List response size regardless of the requested limit.
	MaxLimit = 500
)

const eventPublishTimeout = 5 * time.Second

type TaskService interface {
	CreateTask(ctx context.Context, name, description string) (Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (Task, error)
	ListTasks(ctx context.Context, statusFilter *string, offset, limit int) ([]Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, name, description, status *string) (Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
}

type taskService struct {
	repo     TaskRepository
	cache    *Cache
	producer EventProducer
}

// NewTaskService builds the service around an injected repository. Cache and
// producer may be nil, which disables caching and event publishing.
func NewTaskService(repo TaskRepository, cache *Cache, producer EventProducer) TaskService {
	return &taskService{
		repo:     repo,
		cache:    cache,
		producer: producer,
	}
}

func (s *taskService) CreateTask(ctx context.Context, name, description string) (Task, error) {
	if err := validateName(name); err != nil {
		return Task{}, err
	}
	if err := validateDescription(description); err != nil {
		return Task{}, err
	}

	now := time.Now().UTC()
	t := Task{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Status:      StatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, &t); err != nil {
		return Task{}, err
	}

	s.publishEvent(TaskEvent{
		TaskID:    t.ID.String(),
		Action:    ActionCreated,
		Status:    string(t.Status),
		Timestamp: now,
	})

	return t, nil
}

func (s *taskService) GetTask(ctx context.Context, id uuid.UUID) (Task, error) {
	if t, ok := s.cache.Get(ctx, id); ok {
		return t, nil
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Task{}, err
	}

	s.cache.Set(ctx, t)
	return t, nil
}

func (s *taskService) ListTasks(ctx context.Context, statusFilter *string, offset, limit int) ([]Task, error) {
	filter := ListFilter{Offset: offset, Limit: limit}

	if statusFilter != nil && *statusFilter != "" {
		status, err := ParseStatus(*statusFilter)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	if offset < 0 {
		return nil, newValidationError("offset", "must not be negative")
	}
	if limit < 0 {
		return nil, newValidationError("limit", "must not be negative")
	}
	if limit == 0 {
		filter.Limit = DefaultLimit
	}
	if filter.Limit > MaxLimit {
		filter.Limit = MaxLimit
	}

	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

func (s *taskService) UpdateTask(ctx context.Context, id uuid.UUID, name, description, status *string) (Task, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Task{}, err
	}

	now := time.Now().UTC()
	if !now.After(existing.UpdatedAt) {
		now = existing.UpdatedAt.Add(time.Microsecond)
	}

	fields := map[string]interface{}{
		"updated_at": now,
	}

	if name != nil {
		if err := validateName(*name); err != nil {
			return Task{}, err
		}
		fields["name"] = *name
	}

	if description != nil {
		if err := validateDescription(*description); err != nil {
			return Task{}, err
		}
		fields["description"] = *description
	}

	// Any status may be set from any other; only membership in the
	// enumerated set is enforced.
	if status != nil {
		parsed, err := ParseStatus(*status)
		if err != nil {
			return Task{}, err
		}
		fields["status"] = parsed
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return Task{}, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Task{}, err
	}

	s.cache.Invalidate(ctx, id)

	s.publishEvent(TaskEvent{
		TaskID:    updated.ID.String(),
		Action:    ActionUpdated,
		Status:    string(updated.Status),
		Timestamp: now,
	})

	return updated, nil
}

func (s *taskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, id)

	s.publishEvent(TaskEvent{
		TaskID:    id.String(),
		Action:    ActionDeleted,
		Timestamp: time.Now().UTC(),
	})

	return nil
}

// publishEvent hands the event to Kafka without blocking the request.
func (s *taskService) publishEvent(event TaskEvent) {
	if s.producer == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
		defer cancel()

		if err := s.producer.SendTaskEvent(ctx, event); err != nil {
			slog.Warn("failed to publish task event",
				slog.String("task_id", event.TaskID),
				slog.String("action", event.Action),
				slog.Any("error", err),
			)
		}
	}()
}

func validateName(name string) error {
	if name == "" {
		return newValidationError("name", "must not be empty")
	}
	if len(name) > maxNameLength {
		return newValidationError("name", "must not exceed 255 characters")
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > maxDescriptionLength {
		return newValidationError("description", "must not exceed 1000 characters")
	}
	return nil
}
