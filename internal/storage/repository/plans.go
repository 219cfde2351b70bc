package repository

import (
	"context"
	"fmt"

	"github.com/avdeev-lv/subscription-manager/internal/models"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

// CreatePlan вставляет новый тарифный план и возвращает запись целиком.
// Дубликат имени плана возвращается как storage.ErrAlreadyExists.
func (s *Storage) CreatePlan(ctx context.Context, plan models.Plan) (*models.Plan, error) {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO plans (name, price, description, duration_months, is_active)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, name, price, description, duration_months, is_active, created_at, updated_at`
	row := s.DB.QueryRowContext(ctx, query,
		plan.Name, plan.Price, plan.Description, plan.DurationMonths, plan.IsActive)

	var p models.Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Description,
		&p.DurationMonths, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &p, nil
}

// GetPlan возвращает план по ID.
func (s *Storage) GetPlan(ctx context.Context, id int) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, description, duration_months, is_active, created_at, updated_at
			  FROM plans
			  WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var p models.Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Description,
		&p.DurationMonths, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &p, nil
}

// GetActivePlan возвращает план по ID только если он активен.
func (s *Storage) GetActivePlan(ctx context.Context, id int) (*models.Plan, error) {
	const op = "storage.GetActivePlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, description, duration_months, is_active, created_at, updated_at
			  FROM plans
			  WHERE id = $1 AND is_active = true`
	row := s.DB.QueryRowContext(ctx, query, id)

	var p models.Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Description,
		&p.DurationMonths, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &p, nil
}

// ListPlans возвращает планы каталога, при activeOnly — только активные.
func (s *Storage) ListPlans(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, description, duration_months, is_active, created_at, updated_at
			  FROM plans
			  WHERE ($1 = false OR is_active = true)
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Description,
			&p.DurationMonths, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdatePlan применяет частичное обновление плана и обновляет updated_at.
func (s *Storage) UpdatePlan(ctx context.Context, id int, patch models.PlanPatch) (*models.Plan, error) {
	const op = "storage.UpdatePlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE plans
			  SET name = COALESCE($1, name),
			      price = COALESCE($2, price),
			      description = COALESCE($3, description),
			      duration_months = COALESCE($4, duration_months),
			      is_active = COALESCE($5, is_active),
			      updated_at = now()
			  WHERE id = $6
			  RETURNING id, name, price, description, duration_months, is_active, created_at, updated_at`
	row := s.DB.QueryRowContext(ctx, query,
		patch.Name, patch.Price, patch.Description, patch.DurationMonths, patch.IsActive, id)

	var p models.Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Description,
		&p.DurationMonths, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &p, nil
}

// DeletePlan удаляет план. Если на план ссылаются подписки, FK с ON DELETE RESTRICT
// не даст выполнить удаление, ошибка возвращается как storage.ErrReferenced.
func (s *Storage) DeletePlan(ctx context.Context, id int) error {
	const op = "storage.DeletePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
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
