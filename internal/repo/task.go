package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/user-tasks-api/internal/model"
)

const returningColumns = `id::text, title, description, user_id::text, created_at, updated_at`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

var _ TaskRepository = (*TaskRepo)(nil)

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return []model.Task{}, nil // невалидный владелец не может иметь задач
	}

	return r.queryWithOwner(ctx, `
		SELECT t.id::text, t.title, t.description, t.user_id::text, t.created_at, t.updated_at,
		       u.name, u.username
		FROM tasks t
		LEFT JOIN users u ON u.id = t.user_id
		WHERE t.user_id = $1
		ORDER BY t.seq
	`, owner)
}

func (r *TaskRepo) SearchByOwnerAndTitle(ctx context.Context, ownerID, term string) ([]model.Task, error) {
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrorInvalidInput)
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return []model.Task{}, nil
	}

	// strpos вместо ILIKE: термин ищется буквально, без спецсимволов шаблона
	return r.queryWithOwner(ctx, `
		SELECT t.id::text, t.title, t.description, t.user_id::text, t.created_at, t.updated_at,
		       u.name, u.username
		FROM tasks t
		LEFT JOIN users u ON u.id = t.user_id
		WHERE t.user_id = $1 AND strpos(lower(t.title), lower($2::text)) > 0
		ORDER BY t.seq
	`, owner, term)
}

func (r *TaskRepo) queryWithOwner(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapError(err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		var (
			t              model.Task
			name, username *string
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Owner, &t.CreatedAt, &t.UpdatedAt, &name, &username); err != nil {
			return nil, err
		}
		if name != nil || username != nil {
			t.User = &model.UserRef{}
			if name != nil {
				t.User.Name = *name
			}
			if username != nil {
				t.User.Username = *username
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) InsertOne(ctx context.Context, t model.Task) (model.Task, error) {
	if err := validateNew(t); err != nil {
		return t, err
	}
	owner, err := uuid.Parse(t.Owner)
	if err != nil {
		return t, fmt.Errorf("%w: owner must be a UUID", ErrorValidation)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, title, description, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+returningColumns,
		uuid.New(), t.Title, t.Description, owner,
	).Scan(&t.ID, &t.Title, &t.Description, &t.Owner, &t.CreatedAt, &t.UpdatedAt)
	return t, r.mapError(err)
}

// InsertMany пишет всю пачку одним COPY, поэтому вставка атомарна
func (r *TaskRepo) InsertMany(ctx context.Context, ownerID string, tasks []model.Task) (int, error) {
	stamped, err := stampOwner(ownerID, tasks)
	if err != nil {
		return 0, err
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return 0, fmt.Errorf("%w: owner must be a UUID", ErrorValidation)
	}

	rows := make([][]any, 0, len(stamped))
	for _, t := range stamped {
		rows = append(rows, []any{uuid.New(), t.Title, t.Description, owner})
	}

	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"tasks"},
		[]string{"id", "title", "description", "user_id"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, r.mapError(err)
	}
	return int(n), nil
}

func (r *TaskRepo) UpdateByID(ctx context.Context, ownerID, id string, patch model.TaskPatch) (model.Task, error) {
	var t model.Task
	taskID, owner, ok := parseIDs(id, ownerID)
	if !ok {
		return t, ErrorNotFound
	}

	err := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = COALESCE($3, title),
		    description = COALESCE($4, description),
		    updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+returningColumns,
		taskID, owner, patch.Title, patch.Description,
	).Scan(&t.ID, &t.Title, &t.Description, &t.Owner, &t.CreatedAt, &t.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, r.mapError(err)
}

func (r *TaskRepo) DeleteByID(ctx context.Context, ownerID, id string) (model.Task, error) {
	var t model.Task
	taskID, owner, ok := parseIDs(id, ownerID)
	if !ok {
		return t, ErrorNotFound
	}

	err := r.pool.QueryRow(ctx, `
		DELETE FROM tasks
		WHERE id = $1 AND user_id = $2
		RETURNING `+returningColumns,
		taskID, owner,
	).Scan(&t.ID, &t.Title, &t.Description, &t.Owner, &t.CreatedAt, &t.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, r.mapError(err)
}

func (r *TaskRepo) DeleteByIDs(ctx context.Context, ownerID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: ids must be a non-empty list", ErrorInvalidInput)
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return 0, nil
	}

	// Невалидные идентификаторы ничего не совпадают, просто пропускаем их
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if u, err := uuid.Parse(id); err == nil {
			parsed = append(parsed, u)
		}
	}
	if len(parsed) == 0 {
		return 0, nil
	}

	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE user_id = $1 AND id = ANY($2)", owner, parsed)
	if err != nil {
		return 0, r.mapError(err)
	}
	return cmd.RowsAffected(), nil
}

func (r *TaskRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *TaskRepo) Close(context.Context) error {
	r.pool.Close()
	return nil
}

func parseIDs(id, ownerID string) (uuid.UUID, uuid.UUID, bool) {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return taskID, owner, true
}

func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23502", "23514": // not_null_violation, check_violation
			return fmt.Errorf("%w: %s", ErrorValidation, pgErr.Message)
		case "22P02": // invalid_text_representation
			return ErrorNotFound
		}
	}
	return err
}
