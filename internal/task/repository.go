package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ListFilter narrows and pages a List scan. A nil Status means no filter.
type ListFilter struct {
	Status *Status
	Offset int
	Limit  int
}

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (Task, error)
	List(ctx context.Context, filter ListFilter) ([]Task, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type taskRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, t *Task) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return errors.Wrap(err, "failed to create task")
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (Task, error) {
	var t Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Task{}, errors.WithStack(ErrNotFound)
		}
		return Task{}, errors.Wrap(err, "failed to get task")
	}
	return t, nil
}

func (r *taskRepository) List(ctx context.Context, filter ListFilter) ([]Task, error) {
	tx := r.db.WithContext(ctx).Model(&Task{})

	if filter.Status != nil {
		tx = tx.Where("status = ?", *filter.Status)
	}

	var tasks []Task
	err := tx.Order("created_at ASC, id ASC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&tasks).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}
	return tasks, nil
}

// Update applies the given column map to the row with the given id. The
// fields map always carries updated_at, so a matched row is always written.
func (r *taskRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&Task{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to update task")
	}
	if res.RowsAffected == 0 {
		return errors.WithStack(ErrNotFound)
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&Task{}, "id = ?", id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to delete task")
	}
	if res.RowsAffected == 0 {
		return errors.WithStack(ErrNotFound)
	}
	return nil
}
