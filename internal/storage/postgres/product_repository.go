package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

const productColumns = `id, name, value, description, available_amount, image, deleted_at`

type productRepository struct {
	base
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p         domain.Product
		deletedAt sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Value, &p.Description, &p.AvailableAmount, &p.Image, &deletedAt); err != nil {
		return domain.Product{}, err
	}
	if deletedAt.Valid {
		ts := deletedAt.Time.UTC()
		p.DeletedAt = &ts
	}
	return p, nil
}

func nullTime(ts *time.Time) sql.NullTime {
	if ts == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *ts, Valid: true}
}

func (r *productRepository) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, value, description, available_amount, image, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, p.Name, p.Value, p.Description, p.AvailableAmount, p.Image, nullTime(p.DeletedAt)).Scan(&p.ID)
	if err != nil {
		return domain.Product{}, mapError("insert product", err)
	}
	return p, nil
}

func (r *productRepository) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, value = $3, description = $4, available_amount = $5, image = $6, deleted_at = $7
		WHERE id = $1
	`, p.ID, p.Name, p.Value, p.Description, p.AvailableAmount, p.Image, nullTime(p.DeletedAt))
	if err != nil {
		return domain.Product{}, mapError("update product", err)
	}
	if err := requireAffected("update product", res); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *productRepository) Get(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return domain.Product{}, mapError("get product", err)
	}
	return p, nil
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, mapError("list products", err)
	}
	return collectRows(r.logger, rows, scanProduct)
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "products", id)
}

var _ domain.ProductRepository = (*productRepository)(nil)
