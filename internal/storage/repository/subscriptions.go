package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/avdeev-lv/subscription-manager/internal/models"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

const subscriptionColumns = `s.id, s.user_id, s.plan_id, s.start_date, s.end_date, s.is_active,
			      p.id, p.name, p.price, p.description, p.duration_months, p.is_active, p.created_at, p.updated_at`

func scanSubscription(scanner interface{ Scan(...any) error }) (*models.Subscription, error) {
	var sub models.Subscription
	var plan models.Plan
	if err := scanner.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.StartDate, &sub.EndDate, &sub.IsActive,
		&plan.ID, &plan.Name, &plan.Price, &plan.Description,
		&plan.DurationMonths, &plan.IsActive, &plan.CreatedAt, &plan.UpdatedAt); err != nil {
		return nil, err
	}
	sub.Plan = &plan
	return &sub, nil
}

// CreateSubscription вставляет подписку и возвращает запись с данными плана.
// Одновременная вторая активная подписка пользователя отсекается частичным
// уникальным индексом и возвращается как storage.ErrActiveSubscriptionExists.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_id, plan_id, start_date, end_date, is_active)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		sub.UserID, sub.PlanID, sub.StartDate, sub.EndDate, sub.IsActive).Scan(&newID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return s.GetSubscription(ctx, newID)
}

// GetSubscription возвращает подписку по ID вместе с данными плана.
func (s *Storage) GetSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions s
			  JOIN plans p ON p.id = s.plan_id
			  WHERE s.id = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return sub, nil
}

// HasActiveSubscription сообщает, есть ли у пользователя активная подписка.
func (s *Storage) HasActiveSubscription(ctx context.Context, userID int) (bool, error) {
	const op = "storage.HasActiveSubscription"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM subscriptions WHERE user_id = $1 AND is_active = true)`
	if err := s.DB.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListSubscriptionsByUser возвращает подписки пользователя в порядке создания.
func (s *Storage) ListSubscriptionsByUser(ctx context.Context, userID int) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptionsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions s
			  JOIN plans p ON p.id = s.plan_id
			  WHERE s.user_id = $1
			  ORDER BY s.id`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListAllSubscriptions возвращает все подписки с пагинацией.
func (s *Storage) ListAllSubscriptions(ctx context.Context, limit, offset int) ([]*models.Subscription, error) {
	const op = "storage.ListAllSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions s
			  JOIN plans p ON p.id = s.plan_id
			  ORDER BY s.id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CancelSubscription снимает флаг активности, не меняя end_date.
// Повторная отмена безопасна: запись возвращается в том же состоянии.
func (s *Storage) CancelSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	const op = "storage.CancelSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE subscriptions SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return s.GetSubscription(ctx, id)
}

// UpdateSubscriptionEndDate перезаписывает дату окончания подписки.
func (s *Storage) UpdateSubscriptionEndDate(ctx context.Context, id int, endDate time.Time) (*models.Subscription, error) {
	const op = "storage.UpdateSubscriptionEndDate"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE subscriptions SET end_date = $1 WHERE id = $2`, endDate, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return s.GetSubscription(ctx, id)
}

// DeleteSubscription безусловно удаляет подписку.
func (s *Storage) DeleteSubscription(ctx context.Context, id int) error {
	const op = "storage.DeleteSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return nil
}

// FindSubscriptionsExpiringTomorrow находит активные подписки, заканчивающиеся завтра.
func (s *Storage) FindSubscriptionsExpiringTomorrow(ctx context.Context) ([]*models.ExpiringSubscription, error) {
	const op = "storage.FindSubscriptionsExpiringTomorrow"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.email, u.name, p.name, s.end_date
			  FROM subscriptions s
			  JOIN users u ON u.id = s.user_id
			  JOIN plans p ON p.id = s.plan_id
			  WHERE s.is_active = true
			    AND s.end_date::DATE = CURRENT_DATE + INTERVAL '1 day'`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ExpiringSubscription
	for rows.Next() {
		var e models.ExpiringSubscription
		if err := rows.Scan(&e.Email, &e.Name, &e.PlanName, &e.EndDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
