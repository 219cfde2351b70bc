package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avdeev-lv/subscription-manager/internal/models"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) GetSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) HasActiveSubscription(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}
func (m *RepoMock) ListSubscriptionsByUser(ctx context.Context, userID int) ([]*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}
func (m *RepoMock) ListAllSubscriptions(ctx context.Context, limit, offset int) ([]*models.Subscription, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}
func (m *RepoMock) CancelSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) UpdateSubscriptionEndDate(ctx context.Context, id int, endDate time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, id, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) DeleteSubscription(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}
func (m *RepoMock) GetActivePlan(ctx context.Context, id int) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(routingKey string, message any) error {
	return m.Called(routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestService(repo *RepoMock, cache *CacheMock, events EventPublisher, now time.Time) *Service {
	svc := New(repo, cache, events, newNoopLogger())
	svc.now = func() time.Time { return now }
	return svc
}

var (
	regularUser = &models.User{ID: 1, Email: "user@example.com"}
	otherUser   = &models.User{ID: 2, Email: "other@example.com"}
	adminUser   = &models.User{ID: 99, Email: "admin@example.com", IsAdmin: true}
)

func TestSubscribe(t *testing.T) {
	now := time.Date(2025, time.January, 31, 12, 0, 0, 0, time.UTC)
	plan := &models.Plan{ID: 5, Name: "Monthly", DurationMonths: 1, IsActive: true}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock, p *PublisherMock)
		wantErr    error
		check      func(t *testing.T, sub *models.Subscription)
	}{
		{
			name: "success with calendar month window",
			setupMocks: func(r *RepoMock, c *CacheMock, p *PublisherMock) {
				r.On("HasActiveSubscription", mock.Anything, 1).Return(false, nil).Once()
				r.On("GetActivePlan", mock.Anything, 5).Return(plan, nil).Once()
				r.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
					// 31 января + 1 месяц = 28 февраля
					return s.UserID == 1 && s.PlanID == 5 && s.IsActive &&
						s.StartDate.Equal(now) &&
						s.EndDate.Equal(time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC))
				})).Return(&models.Subscription{
					ID: 42, UserID: 1, PlanID: 5,
					StartDate: now,
					EndDate:   time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC),
					IsActive:  true,
				}, nil).Once()
				c.On("Set", "subscription:42", mock.Anything, time.Hour).Return(nil).Once()
				p.On("Publish", "lifecycle", mock.MatchedBy(func(e models.SubscriptionEvent) bool {
					return e.Type == "subscription.created" && e.SubscriptionID == 42
				})).Return(nil).Once()
			},
			check: func(t *testing.T, sub *models.Subscription) {
				assert.Equal(t, 42, sub.ID)
				assert.True(t, sub.IsActive)
			},
		},
		{
			name: "rejected when active subscription exists",
			setupMocks: func(r *RepoMock, _ *CacheMock, _ *PublisherMock) {
				r.On("HasActiveSubscription", mock.Anything, 1).Return(true, nil).Once()
			},
			wantErr: ErrActiveSubscriptionExists,
		},
		{
			name: "rejected when plan inactive or missing",
			setupMocks: func(r *RepoMock, _ *CacheMock, _ *PublisherMock) {
				r.On("HasActiveSubscription", mock.Anything, 1).Return(false, nil).Once()
				r.On("GetActivePlan", mock.Anything, 5).Return(nil, storage.ErrNotFound).Once()
			},
			wantErr: ErrPlanUnavailable,
		},
		{
			name: "race closed by unique index",
			setupMocks: func(r *RepoMock, _ *CacheMock, _ *PublisherMock) {
				r.On("HasActiveSubscription", mock.Anything, 1).Return(false, nil).Once()
				r.On("GetActivePlan", mock.Anything, 5).Return(plan, nil).Once()
				r.On("CreateSubscription", mock.Anything, mock.Anything).
					Return(nil, storage.ErrActiveSubscriptionExists).Once()
			},
			wantErr: ErrActiveSubscriptionExists,
		},
		{
			name: "cache failure does not fail the operation",
			setupMocks: func(r *RepoMock, c *CacheMock, p *PublisherMock) {
				r.On("HasActiveSubscription", mock.Anything, 1).Return(false, nil).Once()
				r.On("GetActivePlan", mock.Anything, 5).Return(plan, nil).Once()
				r.On("CreateSubscription", mock.Anything, mock.Anything).Return(&models.Subscription{
					ID: 7, UserID: 1, PlanID: 5, StartDate: now, IsActive: true,
				}, nil).Once()
				c.On("Set", "subscription:7", mock.Anything, time.Hour).Return(errors.New("redis down")).Once()
				p.On("Publish", "lifecycle", mock.Anything).Return(nil).Once()
			},
			check: func(t *testing.T, sub *models.Subscription) {
				assert.Equal(t, 7, sub.ID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			pub := new(PublisherMock)
			svc := newTestService(repo, cache, pub, now)

			tt.setupMocks(repo, cache, pub)

			sub, err := svc.Subscribe(context.Background(), regularUser, 5)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				tt.check(t, sub)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestSubscribe_NilPublisher(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := newTestService(repo, cache, nil, now)

	repo.On("HasActiveSubscription", mock.Anything, 1).Return(false, nil).Once()
	repo.On("GetActivePlan", mock.Anything, 5).Return(&models.Plan{ID: 5, DurationMonths: 1, IsActive: true}, nil).Once()
	repo.On("CreateSubscription", mock.Anything, mock.Anything).Return(&models.Subscription{ID: 1, UserID: 1}, nil).Once()
	cache.On("Set", "subscription:1", mock.Anything, time.Hour).Return(nil).Once()

	_, err := svc.Subscribe(context.Background(), regularUser, 5)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGetByID_Authorization(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	owned := &models.Subscription{ID: 10, UserID: 1, PlanID: 5, IsActive: true}

	tests := []struct {
		name      string
		requester *models.User
		wantErr   error
	}{
		{name: "owner allowed", requester: regularUser},
		{name: "admin allowed", requester: adminUser},
		{name: "stranger forbidden", requester: otherUser, wantErr: ErrNotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := newTestService(repo, cache, nil, now)

			cache.On("Get", "subscription:10", mock.Anything).Return(false, nil).Once()
			repo.On("GetSubscription", mock.Anything, 10).Return(owned, nil).Once()
			if tt.wantErr == nil {
				cache.On("Set", "subscription:10", owned, time.Hour).Return(nil).Once()
			}

			got, err := svc.GetByID(context.Background(), tt.requester, 10)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, owned, got)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestGetByID_CacheHit(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := newTestService(repo, cache, nil, now)

	cached := models.Subscription{ID: 10, UserID: 1, IsActive: true}
	cache.On("Get", "subscription:10", mock.Anything).Return(true, nil).Run(func(args mock.Arguments) {
		*args.Get(1).(*models.Subscription) = cached
	}).Once()

	got, err := svc.GetByID(context.Background(), regularUser, 10)
	require.NoError(t, err)
	assert.Equal(t, cached.ID, got.ID)

	repo.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestCancel(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	active := &models.Subscription{ID: 10, UserID: 1, PlanID: 5, EndDate: endDate, IsActive: true}
	cancelled := &models.Subscription{ID: 10, UserID: 1, PlanID: 5, EndDate: endDate, IsActive: false}

	tests := []struct {
		name       string
		requester  *models.User
		setupMocks func(r *RepoMock, c *CacheMock, p *PublisherMock)
		wantErr    error
	}{
		{
			name:      "owner cancels, end date untouched",
			requester: regularUser,
			setupMocks: func(r *RepoMock, c *CacheMock, p *PublisherMock) {
				r.On("GetSubscription", mock.Anything, 10).Return(active, nil).Once()
				r.On("CancelSubscription", mock.Anything, 10).Return(cancelled, nil).Once()
				c.On("Invalidate", "subscription:10").Return(nil).Once()
				p.On("Publish", "lifecycle", mock.MatchedBy(func(e models.SubscriptionEvent) bool {
					return e.Type == "subscription.cancelled" && e.SubscriptionID == 10
				})).Return(nil).Once()
			},
		},
		{
			name:      "repeat cancel is idempotent",
			requester: regularUser,
			setupMocks: func(r *RepoMock, c *CacheMock, p *PublisherMock) {
				r.On("GetSubscription", mock.Anything, 10).Return(cancelled, nil).Once()
				r.On("CancelSubscription", mock.Anything, 10).Return(cancelled, nil).Once()
				c.On("Invalidate", "subscription:10").Return(nil).Once()
				p.On("Publish", "lifecycle", mock.Anything).Return(nil).Once()
			},
		},
		{
			name:      "stranger forbidden",
			requester: otherUser,
			setupMocks: func(r *RepoMock, _ *CacheMock, _ *PublisherMock) {
				r.On("GetSubscription", mock.Anything, 10).Return(active, nil).Once()
			},
			wantErr: ErrNotOwner,
		},
		{
			name:      "not found",
			requester: regularUser,
			setupMocks: func(r *RepoMock, _ *CacheMock, _ *PublisherMock) {
				r.On("GetSubscription", mock.Anything, 10).Return(nil, storage.ErrNotFound).Once()
			},
			wantErr: storage.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			pub := new(PublisherMock)
			svc := newTestService(repo, cache, pub, now)

			tt.setupMocks(repo, cache, pub)

			got, err := svc.Cancel(context.Background(), tt.requester, 10)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.False(t, got.IsActive)
				assert.True(t, got.EndDate.Equal(endDate))
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestExtendEndDate(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{ID: 10, UserID: 1, StartDate: start, IsActive: true}

	t.Run("valid extension", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := newTestService(repo, cache, nil, now)

		newEnd := time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)
		extended := &models.Subscription{ID: 10, UserID: 1, StartDate: start, EndDate: newEnd, IsActive: true}

		repo.On("GetSubscription", mock.Anything, 10).Return(sub, nil).Once()
		repo.On("UpdateSubscriptionEndDate", mock.Anything, 10, newEnd).Return(extended, nil).Once()
		cache.On("Invalidate", "subscription:10").Return(nil).Once()

		got, err := svc.ExtendEndDate(context.Background(), 10, newEnd)
		require.NoError(t, err)
		assert.True(t, got.EndDate.Equal(newEnd))
		repo.AssertExpectations(t)
	})

	t.Run("end date before start rejected", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := newTestService(repo, cache, nil, now)

		repo.On("GetSubscription", mock.Anything, 10).Return(sub, nil).Once()

		_, err := svc.ExtendEndDate(context.Background(), 10, start.AddDate(0, 0, -1))
		assert.ErrorIs(t, err, ErrInvalidEndDate)
	})

	t.Run("end date equal to start rejected", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := newTestService(repo, cache, nil, now)

		repo.On("GetSubscription", mock.Anything, 10).Return(sub, nil).Once()

		_, err := svc.ExtendEndDate(context.Background(), 10, start)
		assert.ErrorIs(t, err, ErrInvalidEndDate)
	})
}

func TestHardDelete(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := newTestService(repo, cache, nil, now)

		repo.On("DeleteSubscription", mock.Anything, 10).Return(nil).Once()
		cache.On("Invalidate", "subscription:10").Return(nil).Once()

		assert.NoError(t, svc.HardDelete(context.Background(), 10))
		repo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := newTestService(repo, cache, nil, now)

		repo.On("DeleteSubscription", mock.Anything, 10).Return(storage.ErrNotFound).Once()

		assert.ErrorIs(t, svc.HardDelete(context.Background(), 10), storage.ErrNotFound)
	})
}
