package csvfile

import (
	"context"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

var addressCodec = codec[domain.Address]{
	name:   "addresses",
	header: []string{"id", "user_id", "street", "number", "neighborhood", "zip_code", "complement", "city", "state"},
	encode: func(a domain.Address) []string {
		return []string{
			formatID(a.ID), formatID(a.UserID), a.Street, a.Number, a.Neighborhood,
			a.ZipCode, a.Complement, a.City, a.State,
		}
	},
	decode: func(rec []string) (domain.Address, error) {
		var p fieldParser
		a := domain.Address{
			ID:     p.int64("id", rec[0]),
			UserID: p.int64("user_id", rec[1]),
			AddressFields: domain.AddressFields{
				Street:       rec[2],
				Number:       rec[3],
				Neighborhood: rec[4],
				ZipCode:      rec[5],
				Complement:   rec[6],
				City:         rec[7],
				State:        rec[8],
			},
		}
		return a, p.err
	},
	id:     func(a domain.Address) int64 { return a.ID },
	withID: func(a domain.Address, id int64) domain.Address { a.ID = id; return a },
}

type addressRepository struct {
	repository[domain.Address]
}

func (r *addressRepository) ListByUser(_ context.Context, userID int64) ([]domain.Address, error) {
	return r.table.filter(func(a domain.Address) bool { return a.UserID == userID })
}

var _ domain.AddressRepository = (*addressRepository)(nil)
