package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ValueScale — число знаков после запятой в цене. Совпадает с NUMERIC(12, 2)
// реляционной схемы, чтобы цена читалась одинаково из любого хранилища.
const ValueScale = 2

// MaxValue — наибольшая цена, которую принимает NUMERIC(12, 2).
var MaxValue = decimal.RequireFromString("9999999999.99")

// Product — товар каталога со счётчиком остатка.
type Product struct {
	ID          int64
	Name        string
	Value       decimal.Decimal
	Description string
	// AvailableAmount меняется заказами (списание/возврат) и ручным редактированием.
	AvailableAmount int
	Image           string
	// DeletedAt != nil означает мягкое удаление.
	DeletedAt *time.Time
}

// IsDeleted сообщает, помечен ли товар как удалённый.
func (p Product) IsDeleted() bool {
	return p.DeletedAt != nil
}

// Validate проверяет поля товара.
func (p Product) Validate() []error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ErrNameRequired)
	}
	if strings.TrimSpace(p.Description) == "" {
		errs = append(errs, ErrDescriptionRequired)
	}
	if p.Value.IsNegative() {
		errs = append(errs, ErrValueNegative)
	}
	if !p.Value.Equal(p.Value.Truncate(ValueScale)) {
		errs = append(errs, ErrValuePrecision)
	}
	if p.Value.GreaterThan(MaxValue) {
		errs = append(errs, ErrValueTooLarge)
	}
	if p.AvailableAmount < 0 {
		errs = append(errs, ErrStockNegative)
	}
	return errs
}
