package domain

import (
	"fmt"
	"strings"
)

// CancelPolicy определяет, из каких статусов разрешена отмена заказа.
type CancelPolicy string

const (
	// CancelPolicyPending — отмена только до оплаты.
	CancelPolicyPending CancelPolicy = "pending"
	// CancelPolicyPendingOrPaid — отмена оплаченных, но ещё не собранных заказов.
	CancelPolicyPendingOrPaid CancelPolicy = "pending_or_paid"
)

// ParseCancelPolicy разбирает значение из конфигурации. Пустая строка — политика по умолчанию.
func ParseCancelPolicy(raw string) (CancelPolicy, error) {
	switch policy := CancelPolicy(strings.ToLower(strings.TrimSpace(raw))); policy {
	case "":
		return CancelPolicyPending, nil
	case CancelPolicyPending, CancelPolicyPendingOrPaid:
		return policy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCancelPolicy, raw)
	}
}

// AllowsCancel сообщает, можно ли отменить заказ в статусе s.
func (p CancelPolicy) AllowsCancel(s OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return true
	case OrderStatusPaid:
		return p == CancelPolicyPendingOrPaid
	default:
		return false
	}
}
