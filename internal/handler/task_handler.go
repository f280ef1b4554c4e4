package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"taskhub/internal/service"
)

// TaskHandler handles task endpoints. Every operation is scoped to the
// authenticated subject.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	Title    string  `json:"title"`
	Priority string  `json:"priority"`
	Deadline *string `json:"deadline"`
}

// UpdateTaskRequest represents a partial task update. Omitted fields keep
// their stored values.
type UpdateTaskRequest struct {
	Title    *string `json:"title"`
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
	Deadline *string `json:"deadline"`
}

func taskID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
	}
	return uint(id), nil
}

// Create godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task data"
// @Success 201 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	task, err := h.taskService.Create(c.Request().Context(), userID, service.CreateTaskInput{
		Title:    req.Title,
		Priority: req.Priority,
		Deadline: req.Deadline,
	})
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// List godoc
// @Summary List the authenticated user's tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(pending, in-progress, done)
// @Param priority query string false "Filter by priority" Enums(low, medium, high)
// @Param orderBy query string false "Sort field" Enums(createdAt, updatedAt, deadline, priority)
// @Param order query string false "Sort direction" Enums(asc, desc)
// @Success 200 {array} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}

	tasks, err := h.taskService.FindAll(c.Request().Context(), service.TaskFilter{
		UserID:   &userID,
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
		OrderBy:  c.QueryParam("orderBy"),
		Order:    c.QueryParam("order"),
	})
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, tasks)
}

// Get godoc
// @Summary Get a task by id
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task id"
// @Success 200 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.FindOne(c.Request().Context(), userID, id)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// Update godoc
// @Summary Partially update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task id"
// @Param request body UpdateTaskRequest true "Fields to change"
// @Success 200 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	task, err := h.taskService.Update(c.Request().Context(), userID, id, service.UpdateTaskInput{
		Title:    req.Title,
		Status:   req.Status,
		Priority: req.Priority,
		Deadline: req.Deadline,
	})
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task id"
// @Success 200 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	userID, err := subjectID(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.Remove(c.Request().Context(), userID, id)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(http.StatusOK, task)
}
