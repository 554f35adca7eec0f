package csvfile

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const timeLayout = time.RFC3339Nano

// repository адаптирует table к CRUD-контракту репозитория.
type repository[T any] struct {
	table *table[T]
}

func (r *repository[T]) Create(_ context.Context, entity T) (T, error) {
	return r.table.create(entity)
}

func (r *repository[T]) Update(_ context.Context, entity T) (T, error) {
	return r.table.update(entity)
}

func (r *repository[T]) Get(_ context.Context, id int64) (T, error) {
	return r.table.get(id)
}

func (r *repository[T]) List(_ context.Context) ([]T, error) {
	return r.table.list()
}

func (r *repository[T]) Delete(_ context.Context, id int64) error {
	return r.table.delete(id)
}

// fieldParser накапливает первую ошибку разбора, чтобы декодеры строк
// оставались линейными.
type fieldParser struct {
	err error
}

func (p *fieldParser) int64(name, raw string) int64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		p.err = fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	return v
}

func (p *fieldParser) int(name, raw string) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		p.err = fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	return v
}

func (p *fieldParser) decimal(name, raw string) decimal.Decimal {
	if p.err != nil {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		p.err = fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	return v
}

func (p *fieldParser) time(name, raw string) time.Time {
	if p.err != nil {
		return time.Time{}
	}
	v, err := time.Parse(timeLayout, strings.TrimSpace(raw))
	if err != nil {
		p.err = fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	return v
}

func (p *fieldParser) optionalTime(name, raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	v := p.time(name, raw)
	if p.err != nil {
		return nil
	}
	return &v
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(timeLayout)
}

func formatOptionalTime(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return formatTime(*ts)
}
