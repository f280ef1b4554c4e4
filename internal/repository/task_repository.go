package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskhub/internal/model"
)

// TaskListFilter is an equality filter plus a single-column sort for task
// listings. Nil fields are unconstrained. OrderBy must already be a vetted
// column name; the service layer owns the allow-list.
type TaskListFilter struct {
	UserID   *uint
	Status   *model.TaskStatus
	Priority *model.TaskPriority
	OrderBy  string
	Order    string
}

// TaskRepository defines task persistence operations.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id uint) (*model.Task, error)
	List(ctx context.Context, filter TaskListFilter) ([]model.Task, error)
	// UpdateFields writes only the given columns.
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	// DeleteOwned deletes the task only if it belongs to userID and returns
	// the number of rows removed.
	DeleteOwned(ctx context.Context, id, userID uint) (int64, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository builds a GORM-backed repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	query := r.db.WithContext(ctx).Model(&model.Task{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.OrderBy != "" {
		query = query.Order(fmt.Sprintf("%s %s", filter.OrderBy, filter.Order))
	}

	var tasks []model.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *taskRepository) DeleteOwned(ctx context.Context, id, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Task{})
	return res.RowsAffected, res.Error
}
