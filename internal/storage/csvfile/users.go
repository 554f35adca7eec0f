package csvfile

import (
	"context"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

var userCodec = codec[domain.User]{
	name:   "users",
	header: []string{"id", "name", "email", "password", "document"},
	encode: func(u domain.User) []string {
		return []string{formatID(u.ID), u.Name, u.Email, u.Password, u.Document}
	},
	decode: func(rec []string) (domain.User, error) {
		var p fieldParser
		u := domain.User{
			ID:       p.int64("id", rec[0]),
			Name:     rec[1],
			Email:    rec[2],
			Password: rec[3],
			Document: rec[4],
		}
		return u, p.err
	},
	id:     func(u domain.User) int64 { return u.ID },
	withID: func(u domain.User, id int64) domain.User { u.ID = id; return u },
}

type userRepository struct {
	repository[domain.User]
}

// Create дополнительно проверяет уникальность email: в файловом хранилище
// нет ограничения UNIQUE. Проверка и запись идут под одной блокировкой таблицы.
func (r *userRepository) Create(_ context.Context, user domain.User) (domain.User, error) {
	return r.table.createIf(user, func(rows []domain.User) error {
		for _, existing := range rows {
			if strings.EqualFold(existing.Email, user.Email) {
				return fmt.Errorf("create user %q: %w", user.Email, domain.ErrEmailTaken)
			}
		}
		return nil
	})
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (domain.User, error) {
	users, err := r.table.filter(func(u domain.User) bool {
		return strings.EqualFold(u.Email, email)
	})
	if err != nil {
		return domain.User{}, err
	}
	if len(users) == 0 {
		return domain.User{}, fmt.Errorf("find user by email: %w", domain.ErrNotFound)
	}
	return users[0], nil
}

var _ domain.UserRepository = (*userRepository)(nil)
