package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avdeev-lv/subscription-manager/internal/lib/password"
	"github.com/avdeev-lv/subscription-manager/internal/models"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) GetUser(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}
func (m *RepoMock) UpdateUser(ctx context.Context, id int, patch models.UserPatch) (*models.User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) DeleteUser(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}
func (m *RepoMock) HasActiveSubscription(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRegister(t *testing.T) {
	t.Run("success hashes the password", func(t *testing.T) {
		repo := new(RepoMock)
		svc := New(repo, newNoopLogger())

		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Email == "new@example.com" &&
				u.Name == "New User" &&
				u.IsActive && !u.IsAdmin &&
				u.PasswordHash != "secret123" &&
				password.CompareHash(u.PasswordHash, "secret123") == nil
		})).Return(&models.User{ID: 1, Email: "new@example.com", Name: "New User"}, nil).Once()

		created, err := svc.Register(context.Background(), "new@example.com", "New User", "secret123")
		require.NoError(t, err)
		assert.Equal(t, 1, created.ID)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(RepoMock)
		svc := New(repo, newNoopLogger())

		repo.On("CreateUser", mock.Anything, mock.Anything).Return(nil, storage.ErrAlreadyExists).Once()

		_, err := svc.Register(context.Background(), "taken@example.com", "Name", "secret123")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestUpdate(t *testing.T) {
	name := "Renamed"

	t.Run("partial update passes patch through", func(t *testing.T) {
		repo := new(RepoMock)
		svc := New(repo, newNoopLogger())

		repo.On("UpdateUser", mock.Anything, 1, models.UserPatch{Name: &name}).
			Return(&models.User{ID: 1, Name: name}, nil).Once()

		updated, err := svc.Update(context.Background(), 1, models.UserPatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, name, updated.Name)
	})

	t.Run("email conflict", func(t *testing.T) {
		repo := new(RepoMock)
		svc := New(repo, newNoopLogger())

		email := "taken@example.com"
		repo.On("UpdateUser", mock.Anything, 1, mock.Anything).Return(nil, storage.ErrAlreadyExists).Once()

		_, err := svc.Update(context.Background(), 1, models.UserPatch{Email: &email})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(RepoMock)
		svc := New(repo, newNoopLogger())

		repo.On("UpdateUser", mock.Anything, 404, mock.Anything).Return(nil, storage.ErrNotFound).Once()

		_, err := svc.Update(context.Background(), 404, models.UserPatch{Name: &name})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name: "success without active subscription",
			setupMocks: func(r *RepoMock) {
				r.On("HasActiveSubscription", mock.Anything, 1).Return(false, nil).Once()
				r.On("DeleteUser", mock.Anything, 1).Return(nil).Once()
			},
		},
		{
			name: "refused while subscription active",
			setupMocks: func(r *RepoMock) {
				r.On("HasActiveSubscription", mock.Anything, 1).Return(true, nil).Once()
			},
			wantErr: ErrHasActiveSubscription,
		},
		{
			name: "not found",
			setupMocks: func(r *RepoMock) {
				r.On("HasActiveSubscription", mock.Anything, 1).Return(false, nil).Once()
				r.On("DeleteUser", mock.Anything, 1).Return(storage.ErrNotFound).Once()
			},
			wantErr: storage.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			svc := New(repo, newNoopLogger())

			tt.setupMocks(repo)

			err := svc.Delete(context.Background(), 1)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestList(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, newNoopLogger())

	users := []*models.User{{ID: 1}, {ID: 2}}
	repo.On("ListUsers", mock.Anything, 100, 0).Return(users, nil).Once()

	got, err := svc.List(context.Background(), 100, 0)
	require.NoError(t, err)
	assert.Equal(t, users, got)
}

func TestList_Error(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, newNoopLogger())

	repo.On("ListUsers", mock.Anything, 100, 0).Return(nil, errors.New("db error")).Once()

	_, err := svc.List(context.Background(), 100, 0)
	assert.Error(t, err)
}
