package repo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/user-tasks-api/internal/model"
)

// MemoryTaskRepo - хранилище в памяти процесса (STORE_DRIVER=memory и тесты).
// Порядок выдачи совпадает с порядком вставки.
type MemoryTaskRepo struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
	order []string
	users map[string]model.UserRef
}

var _ TaskRepository = (*MemoryTaskRepo)(nil)

func NewMemoryTaskRepo() *MemoryTaskRepo {
	return &MemoryTaskRepo{
		tasks: make(map[string]model.Task),
		users: make(map[string]model.UserRef),
	}
}

// PutUser регистрирует проекцию пользователя, которую подставляют выборки
func (r *MemoryTaskRepo) PutUser(id string, ref model.UserRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id] = ref
}

func (r *MemoryTaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	return r.filter(ownerID, func(model.Task) bool { return true }), nil
}

func (r *MemoryTaskRepo) SearchByOwnerAndTitle(ctx context.Context, ownerID, term string) ([]model.Task, error) {
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrorInvalidInput)
	}
	needle := strings.ToLower(term)
	return r.filter(ownerID, func(t model.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), needle)
	}), nil
}

func (r *MemoryTaskRepo) filter(ownerID string, keep func(model.Task) bool) []model.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Task, 0)
	for _, id := range r.order {
		t := r.tasks[id]
		if t.Owner != ownerID || !keep(t) {
			continue
		}
		if ref, ok := r.users[t.Owner]; ok {
			t.User = &ref
		}
		out = append(out, t)
	}
	return out
}

func (r *MemoryTaskRepo) InsertOne(ctx context.Context, t model.Task) (model.Task, error) {
	if err := validateNew(t); err != nil {
		return t, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(t), nil
}

func (r *MemoryTaskRepo) InsertMany(ctx context.Context, ownerID string, tasks []model.Task) (int, error) {
	stamped, err := stampOwner(ownerID, tasks)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range stamped {
		r.insertLocked(t)
	}
	return len(stamped), nil
}

func (r *MemoryTaskRepo) insertLocked(t model.Task) model.Task {
	ts := now()
	t.ID = uuid.NewString()
	t.User = nil
	t.CreatedAt = ts
	t.UpdatedAt = ts
	r.tasks[t.ID] = t
	r.order = append(r.order, t.ID)
	return t
}

func (r *MemoryTaskRepo) UpdateByID(ctx context.Context, ownerID, id string, patch model.TaskPatch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.Owner != ownerID {
		return model.Task{}, ErrorNotFound
	}
	patch.Apply(&t)
	t.UpdatedAt = now()
	r.tasks[id] = t
	return t, nil
}

func (r *MemoryTaskRepo) DeleteByID(ctx context.Context, ownerID, id string) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.Owner != ownerID {
		return model.Task{}, ErrorNotFound
	}
	r.removeLocked(id)
	return t, nil
}

func (r *MemoryTaskRepo) DeleteByIDs(ctx context.Context, ownerID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: ids must be a non-empty list", ErrorInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if t, ok := r.tasks[id]; ok && t.Owner == ownerID {
			r.removeLocked(id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *MemoryTaskRepo) removeLocked(id string) {
	delete(r.tasks, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *MemoryTaskRepo) Ping(context.Context) error { return nil }

func (r *MemoryTaskRepo) Close(context.Context) error { return nil }
