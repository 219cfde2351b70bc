package create

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avdeev-lv/subscription-manager/internal/http/middlewarectx"
	"github.com/avdeev-lv/subscription-manager/internal/models"
	subservice "github.com/avdeev-lv/subscription-manager/internal/services/subscription"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Subscribe(ctx context.Context, requester *models.User, planID int) (*models.Subscription, error) {
	args := m.Called(ctx, requester, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func doCreate(t *testing.T, handler *Handler, user *models.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	switch v := body.(type) {
	case string:
		raw = []byte(v)
	default:
		var err error
		raw, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", bytes.NewReader(raw))
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
	if user != nil {
		ctx = context.WithValue(ctx, middlewarectx.UserKey, user)
	}
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateHandler(t *testing.T) {
	user := &models.User{ID: 3, Email: "user@example.com"}

	t.Run("success returns subscription window", func(t *testing.T) {
		svc := new(ServiceMock)
		handler := New(newNoopLogger(), svc)

		start := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
		svc.On("Subscribe", mock.Anything, user, 5).Return(&models.Subscription{
			ID: 42, UserID: 3, PlanID: 5,
			StartDate: start,
			EndDate:   time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
			IsActive:  true,
		}, nil).Once()

		rec := doCreate(t, handler, user, Request{PlanID: 5})

		assert.Equal(t, http.StatusOK, rec.Code)

		var got models.Subscription
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, 42, got.ID)
		assert.True(t, got.IsActive)
		svc.AssertExpectations(t)
	})

	t.Run("duplicate active subscription returns 400", func(t *testing.T) {
		svc := new(ServiceMock)
		handler := New(newNoopLogger(), svc)

		svc.On("Subscribe", mock.Anything, user, 5).
			Return(nil, fmt.Errorf("subscription.Subscribe: %w", subservice.ErrActiveSubscriptionExists)).Once()

		rec := doCreate(t, handler, user, Request{PlanID: 5})

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var got map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "User with ID 3 already has an active subscription", got["error"])
	})

	t.Run("inactive plan returns 404", func(t *testing.T) {
		svc := new(ServiceMock)
		handler := New(newNoopLogger(), svc)

		svc.On("Subscribe", mock.Anything, user, 9).
			Return(nil, fmt.Errorf("subscription.Subscribe: %w", subservice.ErrPlanUnavailable)).Once()

		rec := doCreate(t, handler, user, Request{PlanID: 9})

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var got map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "Invalid or inactive plan", got["error"])
	})

	t.Run("missing plan id returns 422", func(t *testing.T) {
		svc := new(ServiceMock)
		handler := New(newNoopLogger(), svc)

		rec := doCreate(t, handler, user, map[string]any{})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		svc.AssertNotCalled(t, "Subscribe", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no user in context returns 401", func(t *testing.T) {
		svc := new(ServiceMock)
		handler := New(newNoopLogger(), svc)

		rec := doCreate(t, handler, nil, Request{PlanID: 5})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
