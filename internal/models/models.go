// Package models содержит доменные структуры: пользователь, тарифный план
// и подписка, а также вспомогательные структуры для частичных обновлений.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User представляет учетную запись пользователя.
// PasswordHash никогда не сериализуется в ответы API.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Plan представляет тарифный план из каталога.
// Цена хранится как decimal, чтобы не терять точность денежных значений.
type Plan struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Description    *string         `json:"description,omitempty"`
	DurationMonths int             `json:"duration_months"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Subscription связывает пользователя с планом на ограниченный период.
// EndDate вычисляется при создании как StartDate плюс длительность плана
// в календарных месяцах. Поле Plan заполняется денормализованно при создании
// и чтении для удобства ответа.
type Subscription struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	PlanID    int       `json:"plan_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
	Plan      *Plan     `json:"plan,omitempty"`
}

// UserPatch описывает частичное обновление пользователя.
// nil означает "поле не передано, прежнее значение сохраняется".
type UserPatch struct {
	Name  *string
	Email *string
}

// PlanPatch описывает частичное обновление плана.
type PlanPatch struct {
	Name           *string
	Price          *decimal.Decimal
	Description    *string
	DurationMonths *int
	IsActive       *bool
}

// ExpiringSubscription содержит данные для уведомления о подписке,
// срок действия которой заканчивается завтра.
type ExpiringSubscription struct {
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	PlanName string    `json:"plan_name"`
	EndDate  time.Time `json:"end_date"`
}

// SubscriptionEvent публикуется в брокер при изменении жизненного цикла подписки.
type SubscriptionEvent struct {
	Type           string    `json:"type"`
	SubscriptionID int       `json:"subscription_id"`
	UserID         int       `json:"user_id"`
	PlanID         int       `json:"plan_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}
