package model

import "time"

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Owner       string    `json:"owner"`
	User        *UserRef  `json:"user,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserRef - проекция владельца задачи для отображения
type UserRef struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// TaskPatch - частичное обновление, nil поля не трогаем
type TaskPatch struct {
	Title       *string
	Description *string
}

func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
}

// Поля owner/user в теле запроса игнорируются, владелец берется из токена
type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (r UpdateTaskRequest) Patch() TaskPatch {
	return TaskPatch{Title: r.Title, Description: r.Description}
}

type DeleteManyRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}
