package postgres

import (
	"context"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

const addressColumns = `id, user_id, street, number, neighborhood, zip_code, complement, city, state`

type addressRepository struct {
	base
}

func scanAddress(row rowScanner) (domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Street, &a.Number, &a.Neighborhood,
		&a.ZipCode, &a.Complement, &a.City, &a.State)
	return a, err
}

func (r *addressRepository) Create(ctx context.Context, addr domain.Address) (domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO addresses (user_id, street, number, neighborhood, zip_code, complement, city, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, addr.UserID, addr.Street, addr.Number, addr.Neighborhood, addr.ZipCode,
		addr.Complement, addr.City, addr.State).Scan(&addr.ID)
	if err != nil {
		return domain.Address{}, mapError("insert address", err)
	}
	return addr, nil
}

func (r *addressRepository) Update(ctx context.Context, addr domain.Address) (domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE addresses
		SET user_id = $2, street = $3, number = $4, neighborhood = $5,
		    zip_code = $6, complement = $7, city = $8, state = $9
		WHERE id = $1
	`, addr.ID, addr.UserID, addr.Street, addr.Number, addr.Neighborhood,
		addr.ZipCode, addr.Complement, addr.City, addr.State)
	if err != nil {
		return domain.Address{}, mapError("update address", err)
	}
	if err := requireAffected("update address", res); err != nil {
		return domain.Address{}, err
	}
	return addr, nil
}

func (r *addressRepository) Get(ctx context.Context, id int64) (domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	addr, err := scanAddress(r.db.QueryRowContext(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if err != nil {
		return domain.Address{}, mapError("get address", err)
	}
	return addr, nil
}

func (r *addressRepository) List(ctx context.Context) ([]domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+addressColumns+` FROM addresses ORDER BY id`)
	if err != nil {
		return nil, mapError("list addresses", err)
	}
	return collectRows(r.logger, rows, scanAddress)
}

func (r *addressRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, mapError("list addresses by user", err)
	}
	return collectRows(r.logger, rows, scanAddress)
}

func (r *addressRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "addresses", id)
}

var _ domain.AddressRepository = (*addressRepository)(nil)
