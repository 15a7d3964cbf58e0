package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/churchpad/subscription-service/internal/apperr"
	"github.com/churchpad/subscription-service/internal/models"
)

// CreateSubscriber вставляет нового подписчика в одной транзакции
// и возвращает созданную запись.
func (s *Storage) CreateSubscriber(ctx context.Context, sub models.Subscriber) (*models.Subscriber, error) {
	const op = "storage.CreateSubscriber"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO subscribers (name, email, phone_number, plan_id, is_active,
				  stripe_customer_id, stripe_subscription_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id, created_at, updated_at`
	result := sub
	err = tx.QueryRowContext(ctx, query,
		sub.Name, sub.Email, sub.PhoneNumber, sub.PlanID, sub.IsActive,
		sub.StripeCustomerID, sub.StripeSubscriptionID).
		Scan(&result.ID, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ReadSubscriber возвращает подписчика по его ID.
func (s *Storage) ReadSubscriber(ctx context.Context, id int) (*models.Subscriber, error) {
	const op = "storage.ReadSubscriber"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, email, phone_number, plan_id, is_active,
				  stripe_customer_id, stripe_subscription_id, created_at, updated_at
			  FROM subscribers WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	result, err := scanSubscriber(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrSubscriberNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindSubscriberByCustomerID возвращает подписчика по идентификатору
// клиента у платёжного провайдера.
func (s *Storage) FindSubscriberByCustomerID(ctx context.Context, customerID string) (*models.Subscriber, error) {
	const op = "storage.FindSubscriberByCustomerID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, email, phone_number, plan_id, is_active,
				  stripe_customer_id, stripe_subscription_id, created_at, updated_at
			  FROM subscribers WHERE stripe_customer_id = $1`
	row := s.DB.QueryRowContext(ctx, query, customerID)

	result, err := scanSubscriber(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrSubscriberNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListActiveSubscribers возвращает активных подписчиков вместе с планами.
func (s *Storage) ListActiveSubscribers(ctx context.Context) ([]*models.SubscriberWithPlan, error) {
	const op = "storage.ListActiveSubscribers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.name, s.email, s.phone_number, s.plan_id, s.is_active,
				  s.stripe_customer_id, s.stripe_subscription_id, s.created_at, s.updated_at,
				  p.id, p.name, p.stripe_price_id, p.price, p.billing_period, p.created_at, p.updated_at
			  FROM subscribers s
			  JOIN plans p ON p.id = s.plan_id
			  WHERE s.is_active = TRUE
			  ORDER BY s.id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.SubscriberWithPlan
	for rows.Next() {
		var item models.SubscriberWithPlan
		if err := rows.Scan(&item.ID, &item.Name, &item.Email, &item.PhoneNumber,
			&item.PlanID, &item.IsActive, &item.StripeCustomerID, &item.StripeSubscriptionID,
			&item.CreatedAt, &item.UpdatedAt,
			&item.Plan.ID, &item.Plan.Name, &item.Plan.StripePriceID, &item.Plan.Price,
			&item.Plan.BillingPeriod, &item.Plan.CreatedAt, &item.Plan.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeactivateSubscriber переводит активного подписчика в неактивное состояние.
// Строка блокируется FOR UPDATE, чтобы конкурентные изменения статуса
// одного подписчика не читали устаревший флаг. Неактивный или
// отсутствующий подписчик отдается как ErrSubscriberNotFound.
func (s *Storage) DeactivateSubscriber(ctx context.Context, id int) error {
	const op = "storage.DeactivateSubscriber"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var lockedID int
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM subscribers WHERE id = $1 AND is_active = TRUE FOR UPDATE`, id).
		Scan(&lockedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, apperr.ErrSubscriberNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE subscribers SET is_active = FALSE, updated_at = now() WHERE id = $1`, lockedID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetSubscriberActive выставляет флаг активности подписчика по идентификатору
// клиента у провайдера и возвращает обновлённую запись. Присваивание
// идемпотентно: повторное применение того же события не меняет состояние.
func (s *Storage) SetSubscriberActive(ctx context.Context, customerID string, active bool) (*models.Subscriber, error) {
	const op = "storage.SetSubscriberActive"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var lockedID int
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM subscribers WHERE stripe_customer_id = $1 FOR UPDATE`, customerID).
		Scan(&lockedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrSubscriberNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	row := tx.QueryRowContext(ctx,
		`UPDATE subscribers SET is_active = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, email, phone_number, plan_id, is_active,
			 stripe_customer_id, stripe_subscription_id, created_at, updated_at`,
		lockedID, active)

	result, err := scanSubscriber(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanSubscriber(row *sql.Row) (*models.Subscriber, error) {
	var result models.Subscriber
	err := row.Scan(&result.ID, &result.Name, &result.Email, &result.PhoneNumber,
		&result.PlanID, &result.IsActive, &result.StripeCustomerID,
		&result.StripeSubscriptionID, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
