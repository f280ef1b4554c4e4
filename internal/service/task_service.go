package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"taskhub/internal/cache"
	apperrors "taskhub/internal/errors"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

const taskCacheTTL = 5 * time.Minute

var (
	// ErrTitleRequired is returned when a task title is missing or blank.
	ErrTitleRequired = apperrors.Validation("title is required")
	// ErrInvalidStatus is returned when a status is outside the closed set.
	ErrInvalidStatus = apperrors.Validation("invalid status")
	// ErrInvalidPriority is returned when a priority is outside the closed set.
	ErrInvalidPriority = apperrors.Validation("invalid priority")
	// ErrInvalidDeadline is returned when a deadline cannot be parsed.
	ErrInvalidDeadline = apperrors.Validation("invalid deadline: expected YYYY-MM-DD or RFC 3339 timestamp")
	// ErrInvalidOrderBy is returned when a sort field is outside the allow-list.
	ErrInvalidOrderBy = apperrors.Validation("invalid orderBy: must be one of createdAt, updatedAt, deadline, priority")
	// ErrInvalidOrder is returned when a sort direction is neither asc nor desc.
	ErrInvalidOrder = apperrors.Validation("invalid order: must be asc or desc")
	// ErrTaskNotFound is returned when a task does not exist or belongs to
	// another user. The two cases are indistinguishable on purpose.
	ErrTaskNotFound = apperrors.NotFound("task not found")
)

// dateOnly matches a bare calendar date with no time-of-day component.
var dateOnly = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// orderColumns is the closed allow-list of sortable fields, mapped to their
// column names. Caller input never reaches the query builder unmapped.
var orderColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"deadline":  "deadline",
	"priority":  "priority",
}

// CreateTaskInput carries the caller-supplied fields for task creation.
// A nil Deadline means the field was never set and stays absent.
type CreateTaskInput struct {
	Title    string
	Priority string
	Deadline *string
}

// UpdateTaskInput carries a partial update. Only non-nil fields are written;
// everything else keeps its stored value.
type UpdateTaskInput struct {
	Title    *string
	Status   *string
	Priority *string
	Deadline *string
}

// TaskFilter selects and orders a task listing. Empty strings are
// unconstrained; OrderBy and Order default to createdAt desc.
type TaskFilter struct {
	UserID   *uint
	Status   string
	Priority string
	OrderBy  string
	Order    string
}

// TaskService handles owner-scoped task CRUD.
type TaskService interface {
	Create(ctx context.Context, userID uint, in CreateTaskInput) (*model.Task, error)
	FindAll(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	FindOne(ctx context.Context, userID, id uint) (*model.Task, error)
	Update(ctx context.Context, userID, id uint, in UpdateTaskInput) (*model.Task, error)
	Remove(ctx context.Context, userID, id uint) (*model.Task, error)
}

// Cache is the subset of cache operations the task service relies on.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Ensure the redis client satisfies Cache
var _ Cache = (*cache.Client)(nil)

type taskService struct {
	repo  repository.TaskRepository
	cache Cache
}

// NewTaskService creates a new task service.
func NewTaskService(repo repository.TaskRepository, cache Cache) TaskService {
	return &taskService{
		repo:  repo,
		cache: cache,
	}
}

func (s *taskService) cacheKey(id uint) string {
	return fmt.Sprintf("task:%d", id)
}

// normalizeDeadline converts a bare YYYY-MM-DD date to UTC midnight and
// passes full RFC 3339 timestamps through.
func normalizeDeadline(value string) (time.Time, error) {
	if dateOnly.MatchString(value) {
		t, err := time.ParseInLocation("2006-01-02", value, time.UTC)
		if err != nil {
			return time.Time{}, ErrInvalidDeadline
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, ErrInvalidDeadline
	}
	return t, nil
}

// Create persists a new task for the given owner. Status starts as pending;
// an omitted deadline is left unset rather than stored as null-at-epoch.
func (s *taskService) Create(ctx context.Context, userID uint, in CreateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	priority := model.TaskPriorityMedium
	if in.Priority != "" {
		priority = model.TaskPriority(in.Priority)
		if !priority.IsValid() {
			return nil, ErrInvalidPriority
		}
	}

	task := &model.Task{
		Title:    title,
		Status:   model.TaskStatusPending,
		Priority: priority,
		UserID:   userID,
	}
	if in.Deadline != nil {
		deadline, err := normalizeDeadline(*in.Deadline)
		if err != nil {
			return nil, err
		}
		task.Deadline = &deadline
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return task, nil
}

// FindAll returns tasks matching the filter, default order newest first.
func (s *taskService) FindAll(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	repoFilter := repository.TaskListFilter{UserID: filter.UserID}

	if filter.Status != "" {
		status := model.TaskStatus(filter.Status)
		if !status.IsValid() {
			return nil, ErrInvalidStatus
		}
		repoFilter.Status = &status
	}
	if filter.Priority != "" {
		priority := model.TaskPriority(filter.Priority)
		if !priority.IsValid() {
			return nil, ErrInvalidPriority
		}
		repoFilter.Priority = &priority
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "createdAt"
	}
	column, ok := orderColumns[orderBy]
	if !ok {
		return nil, ErrInvalidOrderBy
	}
	repoFilter.OrderBy = column

	switch filter.Order {
	case "":
		repoFilter.Order = "desc"
	case "asc", "desc":
		repoFilter.Order = filter.Order
	default:
		return nil, ErrInvalidOrder
	}

	tasks, err := s.repo.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// FindOne returns a task by id with a read-through cache. A task owned by
// another user yields the same not-found as a missing row.
func (s *taskService) FindOne(ctx context.Context, userID, id uint) (*model.Task, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Task
		if err := json.Unmarshal(data, &cached); err == nil {
			if cached.UserID != userID {
				return nil, ErrTaskNotFound
			}
			return &cached, nil
		}
	}

	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	if task.UserID != userID {
		return nil, ErrTaskNotFound
	}

	if payload, err := json.Marshal(task); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, taskCacheTTL)
	}
	return task, nil
}

// Update applies a partial update: only supplied fields are written, so a
// previously absent deadline stays absent and an empty patch touches only
// updated_at.
func (s *taskService) Update(ctx context.Context, userID, id uint, in UpdateTaskInput) (*model.Task, error) {
	if _, err := s.FindOne(ctx, userID, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		fields["title"] = title
	}
	if in.Status != nil {
		status := model.TaskStatus(*in.Status)
		if !status.IsValid() {
			return nil, ErrInvalidStatus
		}
		fields["status"] = status
	}
	if in.Priority != nil {
		priority := model.TaskPriority(*in.Priority)
		if !priority.IsValid() {
			return nil, ErrInvalidPriority
		}
		fields["priority"] = priority
	}
	if in.Deadline != nil {
		deadline, err := normalizeDeadline(*in.Deadline)
		if err != nil {
			return nil, err
		}
		fields["deadline"] = deadline
	}
	if len(fields) == 0 {
		// GORM skips empty update maps, but an empty patch still refreshes
		// updated_at.
		fields["updated_at"] = time.Now().UTC()
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))

	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Deleted between the existence check and the write.
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("reload task: %w", err)
	}
	return task, nil
}

// Remove deletes a task with an owner-scoped conditional delete and returns
// its prior state.
func (s *taskService) Remove(ctx context.Context, userID, id uint) (*model.Task, error) {
	task, err := s.FindOne(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.DeleteOwned(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	if rows == 0 {
		return nil, ErrTaskNotFound
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return task, nil
}
