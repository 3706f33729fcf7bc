package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/user-tasks-api/internal/auth"
	"github.com/BuzzLyutic/user-tasks-api/internal/model"
	"github.com/BuzzLyutic/user-tasks-api/internal/repo"
	"github.com/BuzzLyutic/user-tasks-api/internal/service"
	"github.com/BuzzLyutic/user-tasks-api/pkg/respond"
)

const (
	msgTaskNotFound  = "Task Not Found"
	msgNoIDsProvided = "No valid IDs provided"
)

type TaskHandler struct {
	service *service.TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

// List отдает задачи текущего пользователя; пустой список - 404
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	if len(tasks) == 0 {
		respond.Error(w, r, http.StatusNotFound, "No tasks found for this user")
		return
	}
	respond.JSON(w, r, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (h *TaskHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.Search(r.Context(), userID, r.URL.Query().Get("task"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) || errors.Is(err, repo.ErrorInvalidInput) {
			respond.Error(w, r, http.StatusBadRequest, "Search term 'task' is required")
			return
		}
		h.handleErrors(w, r, err)
		return
	}
	if len(tasks) == 0 {
		respond.Message(w, r, http.StatusNotFound, "No tasks found")
		return
	}
	respond.Message(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var req model.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}

	task, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", "/task/"+task.ID)
	respond.JSON(w, r, http.StatusCreated, map[string]interface{}{
		"message": "Task created successfully",
		"task":    task,
	})
}

// CreateMany принимает массив задач; владелец каждой - текущий пользователь
func (h *TaskHandler) CreateMany(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var reqs []model.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: expected an array of tasks: %v", err))
		return
	}

	n, err := h.service.CreateMany(r.Context(), userID, reqs)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, map[string]interface{}{
		"message": "Successfully inserted multiple tasks",
		"count":   n,
	})
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	// Менять можно только title и description, остальные поля - ошибка
	var req model.UpdateTaskRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}

	task, err := h.service.Update(r.Context(), userID, id, req)
	if err != nil {
		if errors.Is(err, repo.ErrorNotFound) {
			respond.Message(w, r, http.StatusNotFound, msgTaskNotFound)
			return
		}
		h.handleErrors(w, r, err)
		return
	}
	respond.Message(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	task, err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repo.ErrorNotFound) {
			respond.Message(w, r, http.StatusNotFound, msgTaskNotFound)
			return
		}
		h.handleErrors(w, r, err)
		return
	}
	respond.Message(w, r, http.StatusOK, "Deleted task with title: "+task.Title)
}

func (h *TaskHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req model.DeleteManyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid delete-many body", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, msgNoIDsProvided)
		return
	}

	deleted, err := h.service.DeleteMany(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) || errors.Is(err, repo.ErrorInvalidInput) {
			respond.Error(w, r, http.StatusBadRequest, msgNoIDsProvided)
			return
		}
		h.handleErrors(w, r, err)
		return
	}
	if deleted == 0 {
		respond.Message(w, r, http.StatusNotFound, "No tasks matched the provided IDs")
		return
	}
	respond.Message(w, r, http.StatusOK, fmt.Sprintf("%d tasks deleted", deleted))
}

// caller достает id пользователя, положенный auth.Middleware
func (h *TaskHandler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, r, http.StatusUnauthorized, "unauthenticated")
		return "", false
	}
	return userID, true
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Message(w, r, http.StatusNotFound, msgTaskNotFound)
	case errors.Is(err, service.ErrValidation), errors.Is(err, repo.ErrorValidation):
		h.logger.Warn("validation failed", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, repo.ErrorInvalidInput):
		h.logger.Warn("invalid input", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, err.Error())
	}
}
