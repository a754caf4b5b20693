package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rewardhub/backend/internal/ledger"
	"github.com/rewardhub/backend/internal/models"
	"github.com/rewardhub/backend/internal/services"
)

// TaskStore is the subset of the ledger needed by the task handler.
type TaskStore interface {
	GetTasks(ctx context.Context) ([]*models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	HasCompleted(ctx context.Context, userID, taskID int64) bool
	CompleteTask(ctx context.Context, userID, taskID int64) (*models.User, error)
}

// AbuseGuard vets completions against server-observed timing and daily caps.
type AbuseGuard interface {
	Start(userID, taskID int64) time.Time
	Check(userID, taskID int64, points int) error
	Record(userID, taskID int64, points int)
}

type CompletionRecorder interface {
	TaskCompleted(taskType string, points int)
}

// TaskHandler serves /api/tasks endpoints.
type TaskHandler struct {
	Tasks     TaskStore
	Guard     AbuseGuard
	Metrics   CompletionRecorder
	Validator *services.Validator
	Logger    *slog.Logger
}

// ListTasks handles GET /api/tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.GetTasks(r.Context())
	if err != nil {
		h.Logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, KindInternal, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

type taskUserRequest struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

type startTaskResponse struct {
	TaskID    int64     `json:"taskId"`
	UserID    int64     `json:"userId"`
	StartedAt time.Time `json:"startedAt"`
}

// StartTask handles POST /api/tasks/{taskId}/start. The server records when
// the task began so that completion timing cannot be forged by the client.
func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	taskID, userID, ok := h.parseTaskUser(w, r)
	if !ok {
		return
	}
	if _, err := h.Tasks.GetTask(r.Context(), taskID); err != nil {
		h.writeTaskError(w, "start task", err)
		return
	}

	startedAt := h.Guard.Start(userID, taskID)
	writeJSON(w, http.StatusOK, startTaskResponse{TaskID: taskID, UserID: userID, StartedAt: startedAt.UTC()})
}

// CompleteTask handles POST /api/tasks/{taskId}/complete.
// Duplicate check -> anti-abuse guard -> credit points -> 200 updated user.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, userID, ok := h.parseTaskUser(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if h.Tasks.HasCompleted(ctx, userID, taskID) {
		writeError(w, http.StatusBadRequest, KindConflict, "Task already completed")
		return
	}
	task, err := h.Tasks.GetTask(ctx, taskID)
	if err != nil {
		h.writeTaskError(w, "complete task", err)
		return
	}

	if err := h.Guard.Check(userID, taskID, task.Points); err != nil {
		switch {
		case errors.Is(err, services.ErrTooFast):
			h.Logger.Warn("completion rejected", "user_id", userID, "task_id", taskID, "reason", err)
			writeError(w, http.StatusTooManyRequests, KindTooFast, "Task completed too quickly. Please take your time.")
		case errors.Is(err, services.ErrDailyCapReached):
			writeError(w, http.StatusTooManyRequests, KindDailyCap, "Daily earning limit reached. Come back tomorrow!")
		default:
			h.Logger.Error("guard check", "error", err)
			writeError(w, http.StatusInternalServerError, KindInternal, "internal error")
		}
		return
	}

	u, err := h.Tasks.CompleteTask(ctx, userID, taskID)
	if err != nil {
		h.writeTaskError(w, "complete task", err)
		return
	}
	h.Guard.Record(userID, taskID, task.Points)
	h.Metrics.TaskCompleted(task.Type, task.Points)

	h.Logger.Info("task completed", "user_id", userID, "task_id", taskID, "points", task.Points, "balance", u.Points)
	writeJSON(w, http.StatusOK, u)
}

func (h *TaskHandler) parseTaskUser(w http.ResponseWriter, r *http.Request) (taskID, userID int64, ok bool) {
	taskID, err := pathID(r, "taskId")
	if err != nil {
		writeValidation(w, err)
		return 0, 0, false
	}
	var req taskUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidation(w, err)
		return 0, 0, false
	}
	if err := h.Validator.Struct(req); err != nil {
		writeValidation(w, err)
		return 0, 0, false
	}
	return taskID, req.UserID, true
}

func (h *TaskHandler) writeTaskError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ledger.ErrTaskAlreadyCompleted):
		writeError(w, http.StatusBadRequest, KindConflict, "Task already completed")
	case errors.Is(err, ledger.ErrTaskNotFound):
		writeError(w, http.StatusBadRequest, KindNotFound, "Task not found")
	case errors.Is(err, ledger.ErrUserNotFound):
		writeError(w, http.StatusBadRequest, KindNotFound, "User not found")
	default:
		h.Logger.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, KindInternal, "internal error")
	}
}
