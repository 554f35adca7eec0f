package csvfile

import (
	"strconv"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

var productCodec = codec[domain.Product]{
	name:   "products",
	header: []string{"id", "name", "value", "description", "available_amount", "image", "deleted_at"},
	encode: func(p domain.Product) []string {
		return []string{
			formatID(p.ID), p.Name, p.Value.String(), p.Description,
			strconv.Itoa(p.AvailableAmount), p.Image, formatOptionalTime(p.DeletedAt),
		}
	},
	decode: func(rec []string) (domain.Product, error) {
		var p fieldParser
		product := domain.Product{
			ID:              p.int64("id", rec[0]),
			Name:            rec[1],
			Value:           p.decimal("value", rec[2]),
			Description:     rec[3],
			AvailableAmount: p.int("available_amount", rec[4]),
			Image:           rec[5],
			DeletedAt:       p.optionalTime("deleted_at", rec[6]),
		}
		return product, p.err
	},
	id:     func(p domain.Product) int64 { return p.ID },
	withID: func(p domain.Product, id int64) domain.Product { p.ID = id; return p },
}

type productRepository struct {
	repository[domain.Product]
}

var _ domain.ProductRepository = (*productRepository)(nil)
