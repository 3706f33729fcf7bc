package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/BuzzLyutic/user-tasks-api/internal/model"
	"github.com/BuzzLyutic/user-tasks-api/internal/repo"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrInvalidInput = errors.New("invalid input")
)

type TaskService struct {
	repo     repo.TaskRepository
	validate *validator.Validate
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *TaskService) List(ctx context.Context, ownerID string) ([]model.Task, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *TaskService) Search(ctx context.Context, ownerID, term string) ([]model.Task, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrInvalidInput)
	}
	return s.repo.SearchByOwnerAndTitle(ctx, ownerID, term)
}

// Create - владелец всегда берется из аутентификации, а не из тела запроса
func (s *TaskService) Create(ctx context.Context, ownerID string, req model.CreateTaskRequest) (model.Task, error) {
	if err := s.validate.Struct(req); err != nil { // Валидация модели на корректность введенных данных
		return model.Task{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return s.repo.InsertOne(ctx, model.Task{
		Title:       req.Title,
		Description: req.Description,
		Owner:       ownerID,
	})
}

func (s *TaskService) CreateMany(ctx context.Context, ownerID string, reqs []model.CreateTaskRequest) (int, error) {
	if len(reqs) == 0 {
		return 0, fmt.Errorf("%w: at least one task is required", ErrValidation)
	}

	tasks := make([]model.Task, 0, len(reqs))
	for i, req := range reqs {
		if err := s.validate.Struct(req); err != nil {
			return 0, fmt.Errorf("%w: task %d: %v", ErrValidation, i, err)
		}
		tasks = append(tasks, model.Task{Title: req.Title, Description: req.Description})
	}
	return s.repo.InsertMany(ctx, ownerID, tasks)
}

func (s *TaskService) Update(ctx context.Context, ownerID, id string, req model.UpdateTaskRequest) (model.Task, error) {
	return s.repo.UpdateByID(ctx, ownerID, id, req.Patch())
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id string) (model.Task, error) {
	return s.repo.DeleteByID(ctx, ownerID, id)
}

func (s *TaskService) DeleteMany(ctx context.Context, ownerID string, req model.DeleteManyRequest) (int64, error) {
	if err := s.validate.Struct(req); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.repo.DeleteByIDs(ctx, ownerID, req.IDs)
}
