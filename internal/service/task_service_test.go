package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	apperrors "taskhub/internal/errors"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// MockTaskRepository is a mock implementation of TaskRepository.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, filter repository.TaskListFilter) ([]model.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockTaskRepository) DeleteOwned(ctx context.Context, id, userID uint) (int64, error) {
	args := m.Called(ctx, id, userID)
	return args.Get(0).(int64), args.Error(1)
}

// fakeCache is a map-backed Cache; TTLs are ignored.
type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	return f.entries[key], nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.entries[key] = value
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func newTaskService(repo *MockTaskRepository) TaskService {
	return NewTaskService(repo, newFakeCache())
}

func TestTaskService_Create(t *testing.T) {
	deadlineDate := "2025-07-03"
	deadlineStamp := "2025-07-03T15:04:05Z"
	badDeadline := "next tuesday"

	tests := []struct {
		name          string
		input         CreateTaskInput
		expectedError error
		check         func(*testing.T, *model.Task)
	}{
		{
			name:          "empty title",
			input:         CreateTaskInput{Title: ""},
			expectedError: ErrTitleRequired,
		},
		{
			name:          "blank title after trimming",
			input:         CreateTaskInput{Title: "   "},
			expectedError: ErrTitleRequired,
		},
		{
			name:          "invalid priority",
			input:         CreateTaskInput{Title: "T", Priority: "urgent"},
			expectedError: ErrInvalidPriority,
		},
		{
			name:          "unparseable deadline",
			input:         CreateTaskInput{Title: "T", Deadline: &badDeadline},
			expectedError: ErrInvalidDeadline,
		},
		{
			name:  "defaults applied",
			input: CreateTaskInput{Title: "  Trimmed  "},
			check: func(t *testing.T, task *model.Task) {
				assert.Equal(t, "Trimmed", task.Title)
				assert.Equal(t, model.TaskStatusPending, task.Status)
				assert.Equal(t, model.TaskPriorityMedium, task.Priority)
				assert.Nil(t, task.Deadline)
			},
		},
		{
			name:  "calendar date becomes UTC midnight",
			input: CreateTaskInput{Title: "T", Priority: "high", Deadline: &deadlineDate},
			check: func(t *testing.T, task *model.Task) {
				assert.NotNil(t, task.Deadline)
				assert.Equal(t, time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC), task.Deadline.UTC())
				assert.Equal(t, model.TaskPriorityHigh, task.Priority)
			},
		},
		{
			name:  "full timestamp passes through",
			input: CreateTaskInput{Title: "T", Deadline: &deadlineStamp},
			check: func(t *testing.T, task *model.Task) {
				assert.NotNil(t, task.Deadline)
				assert.Equal(t, time.Date(2025, 7, 3, 15, 4, 5, 0, time.UTC), task.Deadline.UTC())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			if tt.expectedError == nil {
				mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)
			}

			svc := newTaskService(mockRepo)
			task, err := svc.Create(context.Background(), 3, tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, task)
				mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, uint(3), task.UserID)
				tt.check(t, task)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_FindAll(t *testing.T) {
	userID := uint(3)

	t.Run("rejects out-of-set filter and sort values", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		svc := newTaskService(mockRepo)

		_, err := svc.FindAll(context.Background(), TaskFilter{Status: "archived"})
		assert.ErrorIs(t, err, ErrInvalidStatus)

		_, err = svc.FindAll(context.Background(), TaskFilter{Priority: "urgent"})
		assert.ErrorIs(t, err, ErrInvalidPriority)

		_, err = svc.FindAll(context.Background(), TaskFilter{OrderBy: "id; DROP TABLE tasks"})
		assert.ErrorIs(t, err, ErrInvalidOrderBy)

		_, err = svc.FindAll(context.Background(), TaskFilter{Order: "sideways"})
		assert.ErrorIs(t, err, ErrInvalidOrder)

		mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("defaults to created_at desc", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("List", mock.Anything, repository.TaskListFilter{
			UserID:  &userID,
			OrderBy: "created_at",
			Order:   "desc",
		}).Return([]model.Task{}, nil)

		svc := newTaskService(mockRepo)
		tasks, err := svc.FindAll(context.Background(), TaskFilter{UserID: &userID})

		assert.NoError(t, err)
		assert.Empty(t, tasks)
		mockRepo.AssertExpectations(t)
	})

	t.Run("maps allow-listed sort fields to columns", func(t *testing.T) {
		status := model.TaskStatusDone
		mockRepo := new(MockTaskRepository)
		mockRepo.On("List", mock.Anything, repository.TaskListFilter{
			UserID:  &userID,
			Status:  &status,
			OrderBy: "updated_at",
			Order:   "asc",
		}).Return([]model.Task{
			{ID: 1, Title: "A", Status: model.TaskStatusDone, UserID: userID},
			{ID: 2, Title: "B", Status: model.TaskStatusDone, UserID: userID},
		}, nil)

		svc := newTaskService(mockRepo)
		tasks, err := svc.FindAll(context.Background(), TaskFilter{
			UserID:  &userID,
			Status:  "done",
			OrderBy: "updatedAt",
			Order:   "asc",
		})

		assert.NoError(t, err)
		assert.Len(t, tasks, 2)
		for _, task := range tasks {
			assert.Equal(t, model.TaskStatusDone, task.Status)
		}
		mockRepo.AssertExpectations(t)
	})
}

func TestTaskService_FindOne(t *testing.T) {
	stored := &model.Task{ID: 5, Title: "Mine", UserID: 3}

	tests := []struct {
		name          string
		userID        uint
		setupMock     func(*MockTaskRepository)
		expectedError error
	}{
		{
			name:   "task missing",
			userID: 3,
			setupMock: func(m *MockTaskRepository) {
				m.On("FindByID", mock.Anything, uint(5)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: ErrTaskNotFound,
		},
		{
			name:   "task owned by another user is indistinguishable from missing",
			userID: 99,
			setupMock: func(m *MockTaskRepository) {
				m.On("FindByID", mock.Anything, uint(5)).Return(stored, nil)
			},
			expectedError: ErrTaskNotFound,
		},
		{
			name:   "task found",
			userID: 3,
			setupMock: func(m *MockTaskRepository) {
				m.On("FindByID", mock.Anything, uint(5)).Return(stored, nil)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := newTaskService(mockRepo)
			task, err := svc.FindOne(context.Background(), tt.userID, 5)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
				assert.Nil(t, task)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, stored, task)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_FindOne_CachePath(t *testing.T) {
	stored := &model.Task{ID: 5, Title: "Mine", UserID: 3}

	t.Run("second read is served from cache", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, uint(5)).Return(stored, nil).Once()

		svc := NewTaskService(mockRepo, newFakeCache())

		first, err := svc.FindOne(context.Background(), 3, 5)
		assert.NoError(t, err)

		second, err := svc.FindOne(context.Background(), 3, 5)
		assert.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.Title, second.Title)
		assert.Equal(t, first.UserID, second.UserID)

		mockRepo.AssertNumberOfCalls(t, "FindByID", 1)
	})

	t.Run("cache hit still rejects another user's task", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, uint(5)).Return(stored, nil).Once()

		svc := NewTaskService(mockRepo, newFakeCache())

		_, err := svc.FindOne(context.Background(), 3, 5)
		assert.NoError(t, err)

		task, err := svc.FindOne(context.Background(), 99, 5)
		assert.ErrorIs(t, err, ErrTaskNotFound)
		assert.Nil(t, task)

		// The rejection came from the cached entry, not a second lookup.
		mockRepo.AssertNumberOfCalls(t, "FindByID", 1)
	})

	t.Run("corrupt cache payload falls through to the store", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, uint(5)).Return(stored, nil)

		fake := newFakeCache()
		fake.entries["task:5"] = []byte("{not json")

		svc := NewTaskService(mockRepo, fake)
		task, err := svc.FindOne(context.Background(), 3, 5)

		assert.NoError(t, err)
		assert.Equal(t, stored, task)
		mockRepo.AssertExpectations(t)
	})
}

func TestTaskService_Update(t *testing.T) {
	stored := &model.Task{ID: 5, Title: "Mine", Status: model.TaskStatusPending, UserID: 3}

	t.Run("missing task is rejected before any write", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, uint(5)).Return(nil, gorm.ErrRecordNotFound)

		svc := newTaskService(mockRepo)
		_, err := svc.Update(context.Background(), 3, 5, UpdateTaskInput{})

		assert.ErrorIs(t, err, ErrTaskNotFound)
		mockRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty patch touches only updated_at", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, uint(5)).Return(stored, nil)

		var patch map[string]interface{}
		mockRepo.On("UpdateFields", mock.Anything, uint(5), mock.AnythingOfType("map[string]interface {}")).
			Run(func(args mock.Arguments) {
				patch = args.Get(2).(map[string]interface{})
			}).Return(nil)

		svc := newTaskService(mockRepo)
		task, err := svc.Update(context.Background(), 3, 5, UpdateTaskInput{})

		assert.NoError(t, err)
		assert.NotNil(t, task)
		assert.Len(t, patch, 1)
		assert.Contains(t, patch, "updated_at")
		assert.NotContains(t, patch, "deadline")
		mockRepo.AssertExpectations(t)
	})

	t.Run("writes only supplied fields with normalized deadline", func(t *testing.T) {
		title := "  Renamed  "
		status := "done"
		deadline := "2025-07-03"

		updated := &model.Task{ID: 5, Title: "Renamed", Status: model.TaskStatusDone, UserID: 3}

		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, uint(5)).Return(stored, nil).Once()

		var patch map[string]interface{}
		mockRepo.On("UpdateFields", mock.Anything, uint(5), mock.AnythingOfType("map[string]interface {}")).
			Run(func(args mock.Arguments) {
				patch = args.Get(2).(map[string]interface{})
			}).Return(nil)
		mockRepo.On("FindByID", mock.Anything, uint(5)).Return(updated, nil).Once()

		svc := newTaskService(mockRepo)
		task, err := svc.Update(context.Background(), 3, 5, UpdateTaskInput{
			Title:    &title,
			Status:   &status,
			Deadline: &deadline,
		})

		assert.NoError(t, err)
		assert.Equal(t, updated, task)
		assert.Len(t, patch, 3)
		assert.Equal(t, "Renamed", patch["title"])
		assert.Equal(t, model.TaskStatusDone, patch["status"])
		assert.Equal(t, time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC), patch["deadline"])
		assert.NotContains(t, patch, "priority")
		mockRepo.AssertExpectations(t)
	})

	t.Run("supplied blank title is rejected", func(t *testing.T) {
		blank := "   "
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, uint(5)).Return(stored, nil)

		svc := newTaskService(mockRepo)
		_, err := svc.Update(context.Background(), 3, 5, UpdateTaskInput{Title: &blank})

		assert.ErrorIs(t, err, ErrTitleRequired)
		mockRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("supplied invalid status is rejected", func(t *testing.T) {
		bad := "archived"
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, uint(5)).Return(stored, nil)

		svc := newTaskService(mockRepo)
		_, err := svc.Update(context.Background(), 3, 5, UpdateTaskInput{Status: &bad})

		assert.ErrorIs(t, err, ErrInvalidStatus)
		mockRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTaskService_Remove(t *testing.T) {
	stored := &model.Task{ID: 5, Title: "Mine", UserID: 3}

	t.Run("missing task is rejected before the delete", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, uint(5)).Return(nil, gorm.ErrRecordNotFound)

		svc := newTaskService(mockRepo)
		_, err := svc.Remove(context.Background(), 3, 5)

		assert.ErrorIs(t, err, ErrTaskNotFound)
		mockRepo.AssertNotCalled(t, "DeleteOwned", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns prior state on success", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, uint(5)).Return(stored, nil)
		mockRepo.On("DeleteOwned", mock.Anything, uint(5), uint(3)).Return(int64(1), nil)

		svc := newTaskService(mockRepo)
		task, err := svc.Remove(context.Background(), 3, 5)

		assert.NoError(t, err)
		assert.Equal(t, stored, task)
		mockRepo.AssertExpectations(t)
	})

	t.Run("concurrent delete surfaces as not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, uint(5)).Return(stored, nil)
		mockRepo.On("DeleteOwned", mock.Anything, uint(5), uint(3)).Return(int64(0), nil)

		svc := newTaskService(mockRepo)
		_, err := svc.Remove(context.Background(), 3, 5)

		assert.ErrorIs(t, err, ErrTaskNotFound)
		mockRepo.AssertExpectations(t)
	})
}
