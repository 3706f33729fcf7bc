package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BuzzLyutic/user-tasks-api/internal/model"
)

var (
	ErrorNotFound     = errors.New("not found")
	ErrorValidation   = errors.New("validation error")
	ErrorInvalidInput = errors.New("invalid input")
)

// TaskRepository определяет интерфейс для работы с задачами.
// Все операции изменения ограничены владельцем: чужая задача ведет себя как несуществующая.
type TaskRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error)
	SearchByOwnerAndTitle(ctx context.Context, ownerID, term string) ([]model.Task, error)
	InsertOne(ctx context.Context, t model.Task) (model.Task, error)
	InsertMany(ctx context.Context, ownerID string, tasks []model.Task) (int, error)
	UpdateByID(ctx context.Context, ownerID, id string, patch model.TaskPatch) (model.Task, error)
	DeleteByID(ctx context.Context, ownerID, id string) (model.Task, error)
	DeleteByIDs(ctx context.Context, ownerID string, ids []string) (int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// validateNew проверяет обязательные поля перед вставкой
func validateNew(t model.Task) error {
	switch {
	case strings.TrimSpace(t.Title) == "":
		return fmt.Errorf("%w: title is required", ErrorValidation)
	case strings.TrimSpace(t.Description) == "":
		return fmt.Errorf("%w: description is required", ErrorValidation)
	case t.Owner == "":
		return fmt.Errorf("%w: owner is required", ErrorValidation)
	}
	return nil
}

// stampOwner проставляет владельца каждой задаче, игнорируя то, что пришло в данных
func stampOwner(ownerID string, tasks []model.Task) ([]model.Task, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: no tasks provided", ErrorValidation)
	}
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		t.Owner = ownerID
		if err := validateNew(t); err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
