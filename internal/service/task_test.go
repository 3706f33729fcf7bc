package service

import (
	"context"
	"testing"

	"github.com/BuzzLyutic/user-tasks-api/internal/model"
	"github.com/BuzzLyutic/user-tasks-api/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskRepository - мок репозитория
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) SearchByOwnerAndTitle(ctx context.Context, ownerID, term string) ([]model.Task, error) {
	args := m.Called(ctx, ownerID, term)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) InsertOne(ctx context.Context, t model.Task) (model.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) InsertMany(ctx context.Context, ownerID string, tasks []model.Task) (int, error) {
	args := m.Called(ctx, ownerID, tasks)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) UpdateByID(ctx context.Context, ownerID, id string, patch model.TaskPatch) (model.Task, error) {
	args := m.Called(ctx, ownerID, id, patch)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) DeleteByID(ctx context.Context, ownerID, id string) (model.Task, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) DeleteByIDs(ctx context.Context, ownerID string, ids []string) (int64, error) {
	args := m.Called(ctx, ownerID, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTaskRepository) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

const owner = "5b0c1a3e-6d1f-4c0a-9f3e-2d7c8b9a0e11"

func TestTaskService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       model.CreateTaskRequest
		setupMock func(*MockTaskRepository)
		wantErr   error
	}{
		{
			name: "owner comes from caller",
			req:  model.CreateTaskRequest{Title: "Report", Description: "quarterly"},
			setupMock: func(m *MockTaskRepository) {
				m.On("InsertOne", mock.Anything, mock.MatchedBy(func(t model.Task) bool {
					return t.Owner == owner && t.Title == "Report" && t.Description == "quarterly"
				})).Return(model.Task{ID: "t1", Title: "Report", Description: "quarterly", Owner: owner}, nil)
			},
		},
		{
			name:      "validation error - empty title",
			req:       model.CreateTaskRequest{Description: "quarterly"},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "validation error - empty description",
			req:       model.CreateTaskRequest{Title: "Report"},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)
			svc := NewTaskService(mockRepo)

			task, err := svc.Create(context.Background(), owner, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				mockRepo.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, owner, task.Owner)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_CreateMany(t *testing.T) {
	t.Run("passes every element to the store", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("InsertMany", mock.Anything, owner, []model.Task{
			{Title: "a", Description: "1"},
			{Title: "b", Description: "2"},
		}).Return(2, nil)

		n, err := NewTaskService(mockRepo).CreateMany(context.Background(), owner, []model.CreateTaskRequest{
			{Title: "a", Description: "1"},
			{Title: "b", Description: "2"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		mockRepo.AssertExpectations(t)
	})

	t.Run("one invalid element fails the batch", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)

		_, err := NewTaskService(mockRepo).CreateMany(context.Background(), owner, []model.CreateTaskRequest{
			{Title: "a", Description: "1"},
			{Title: "", Description: "2"},
		})
		assert.ErrorIs(t, err, ErrValidation)
		mockRepo.AssertNotCalled(t, "InsertMany", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty batch", func(t *testing.T) {
		_, err := NewTaskService(new(MockTaskRepository)).CreateMany(context.Background(), owner, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestTaskService_Search(t *testing.T) {
	t.Run("blank term", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		_, err := NewTaskService(mockRepo).Search(context.Background(), owner, "   ")
		assert.ErrorIs(t, err, ErrInvalidInput)
		mockRepo.AssertNotCalled(t, "SearchByOwnerAndTitle", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("term is trimmed", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("SearchByOwnerAndTitle", mock.Anything, owner, "ePo").
			Return([]model.Task{{ID: "t1", Title: "Report"}}, nil)

		tasks, err := NewTaskService(mockRepo).Search(context.Background(), owner, " ePo ")
		require.NoError(t, err)
		assert.Len(t, tasks, 1)
		mockRepo.AssertExpectations(t)
	})
}

func TestTaskService_Update(t *testing.T) {
	title := "new title"
	mockRepo := new(MockTaskRepository)
	mockRepo.On("UpdateByID", mock.Anything, owner, "missing", model.TaskPatch{Title: &title}).
		Return(model.Task{}, repo.ErrorNotFound)

	_, err := NewTaskService(mockRepo).Update(context.Background(), owner, "missing", model.UpdateTaskRequest{Title: &title})
	assert.ErrorIs(t, err, repo.ErrorNotFound)
	mockRepo.AssertExpectations(t)
}

func TestTaskService_DeleteMany(t *testing.T) {
	tests := []struct {
		name    string
		req     model.DeleteManyRequest
		wantErr error
	}{
		{name: "nil ids", req: model.DeleteManyRequest{}, wantErr: ErrInvalidInput},
		{name: "empty ids", req: model.DeleteManyRequest{IDs: []string{}}, wantErr: ErrInvalidInput},
		{name: "blank id", req: model.DeleteManyRequest{IDs: []string{""}}, wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			_, err := NewTaskService(mockRepo).DeleteMany(context.Background(), owner, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			mockRepo.AssertNotCalled(t, "DeleteByIDs", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("returns store count", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("DeleteByIDs", mock.Anything, owner, []string{"a", "b", "c"}).Return(int64(2), nil)

		n, err := NewTaskService(mockRepo).DeleteMany(context.Background(), owner, model.DeleteManyRequest{IDs: []string{"a", "b", "c"}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}
