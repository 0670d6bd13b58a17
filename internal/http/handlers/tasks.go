package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/domain/task"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

type TasksStore interface {
	Create(ctx context.Context, req task.CreateTaskRequest) (task.Task, error)
	List(ctx context.Context, filter task.ListTasksFilter) ([]task.Task, int, error)
	GetByID(ctx context.Context, id string) (task.Task, error)
	Replace(ctx context.Context, id string, req task.ReplaceTaskRequest) (task.Task, error)
	Update(ctx context.Context, id string, patch task.PatchTaskRequest) (task.Task, error)
	Delete(ctx context.Context, id string) error
}

type TasksHandler struct {
	repo TasksStore
}

func NewTasksHandler(repo TasksStore) *TasksHandler {
	return &TasksHandler{repo: repo}
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	t, err := h.repo.Create(cctx, req)

	if err != nil {
		RespondInternal(ctx, "Could not create task")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"task":   t,
		"status": http.StatusCreated,
	})
}

func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	page := queryInt(ctx, "page", defaultPage)
	limit := queryInt(ctx, "limit", defaultLimit)

	filter := task.ListTasksFilter{
		Offset: (page - 1) * limit,
		Limit:  limit,
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	tasks, total, err := h.repo.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Internal server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"tasks":      tasks,
		"totalTasks": total,
		"status":     http.StatusOK,
	})
}

func (h *TasksHandler) GetTaskByID(ctx *gin.Context) {
	id := ctx.Param("id")

	// a malformed id cannot reference anything, same outcome as absent
	if uuid.Validate(id) != nil {
		RespondNotFound(ctx, "Task not found")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	t, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not fetch task")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"task":   t,
		"status": http.StatusOK,
	})
}

// ReplaceTask handles PUT: supplied fields overwrite, omitted fields reset.
func (h *TasksHandler) ReplaceTask(ctx *gin.Context) {
	id := ctx.Param("id")

	if uuid.Validate(id) != nil {
		RespondNotFound(ctx, "Task not found")
		return
	}

	var req task.ReplaceTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	t, err := h.repo.Replace(cctx, id, req)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not update task")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"task":   t,
		"status": http.StatusOK,
	})
}

// PatchTask handles PATCH as a real partial update: omitted fields keep their
// stored values.
func (h *TasksHandler) PatchTask(ctx *gin.Context) {
	id := ctx.Param("id")

	if uuid.Validate(id) != nil {
		RespondNotFound(ctx, "Task not found")
		return
	}

	var patch task.PatchTaskRequest

	if !BindJSON(ctx, &patch) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	t, err := h.repo.Update(cctx, id, patch)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not update task")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"task":   t,
		"status": http.StatusOK,
	})
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	id := ctx.Param("id")

	if uuid.Validate(id) != nil {
		RespondNotFound(ctx, "Task not found")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Internal server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
	})
}

// queryInt reads a 1-indexed pagination parameter; non-numeric or
// non-positive values fall back to the default. No upper bound on limit.
func queryInt(ctx *gin.Context, key string, fallback int) int {
	raw := ctx.Query(key)

	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)

	if err != nil || n < 1 {
		return fallback
	}

	return n
}
