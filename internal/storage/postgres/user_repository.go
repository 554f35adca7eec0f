package postgres

import (
	"context"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

const userColumns = `id, name, email, password, document`

type userRepository struct {
	base
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Document)
	return u, err
}

func (r *userRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password, document)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, user.Name, user.Email, user.Password, user.Document).Scan(&user.ID)
	if err != nil {
		return domain.User{}, mapError("insert user", err)
	}
	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET name = $2, email = $3, password = $4, document = $5
		WHERE id = $1
	`, user.ID, user.Name, user.Email, user.Password, user.Document)
	if err != nil {
		return domain.User{}, mapError("update user", err)
	}
	if err := requireAffected("update user", res); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *userRepository) Get(ctx context.Context, id int64) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, mapError("get user", err)
	}
	return user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) ORDER BY id LIMIT 1`, email))
	if err != nil {
		return domain.User{}, mapError("find user by email", err)
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, mapError("list users", err)
	}
	return collectRows(r.logger, rows, scanUser)
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "users", id)
}

var _ domain.UserRepository = (*userRepository)(nil)
