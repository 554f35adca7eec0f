package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
	"github.com/vladislavdragonenkov/ordermgmt/internal/storage/csvfile"
	"github.com/vladislavdragonenkov/ordermgmt/internal/storage/memory"
)

func newTestCatalog(t *testing.T) (*Service, domain.Storage) {
	t.Helper()

	store, err := csvfile.Open(t.TempDir(), nil)
	require.NoError(t, err)

	svc := NewService(store.Storage(), nil)
	svc.clock = func() time.Time { return time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC) }
	return svc, store.Storage()
}

func TestProducts_CRUDAndSoftDelete(t *testing.T) {
	ctx := context.Background()
	svc, storage := newTestCatalog(t)

	created, err := svc.CreateProduct(ctx, domain.Product{
		Name: " Mochila ", Value: decimal.RequireFromString("149.90"), Description: "30L", AvailableAmount: 7,
	})
	require.NoError(t, err)
	require.Equal(t, "Mochila", created.Name)

	created.AvailableAmount = 9
	updated, err := svc.UpdateProduct(ctx, created)
	require.NoError(t, err)
	require.Equal(t, 9, updated.AvailableAmount)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))

	_, err = svc.GetProduct(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	raw, err := storage.Products.Get(ctx, created.ID)
	require.NoError(t, err, "row stays in storage")
	require.True(t, raw.IsDeleted())

	active, err := svc.ListProducts(ctx, false)
	require.NoError(t, err)
	require.Empty(t, active)

	all, err := svc.ListProducts(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.ErrorIs(t, svc.DeleteProduct(ctx, created.ID), domain.ErrProductNotFound)
	_, err = svc.UpdateProduct(ctx, created)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestProducts_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestCatalog(t)

	_, err := svc.CreateProduct(ctx, domain.Product{
		Name: "", Value: decimal.RequireFromString("-1"), Description: "", AvailableAmount: -3,
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	require.ErrorIs(t, err, domain.ErrNameRequired)
	require.ErrorIs(t, err, domain.ErrDescriptionRequired)
	require.ErrorIs(t, err, domain.ErrValueNegative)
	require.ErrorIs(t, err, domain.ErrStockNegative)

	_, err = svc.CreateProduct(ctx, domain.Product{
		Name: "Caneca", Value: decimal.RequireFromString("1.005"), Description: "branca", AvailableAmount: 1,
	})
	require.ErrorIs(t, err, domain.ErrValuePrecision)

	_, err = svc.CreateProduct(ctx, domain.Product{
		Name: "Caneca", Value: decimal.RequireFromString("10000000000"), Description: "branca", AvailableAmount: 1,
	})
	require.ErrorIs(t, err, domain.ErrValueTooLarge)
}

func TestAddresses_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	svc, storage := newTestCatalog(t)

	owner, err := storage.Users.Create(ctx, domain.User{Name: "A", Email: "a@example.com", Password: "h", Document: "1"})
	require.NoError(t, err)
	stranger, err := storage.Users.Create(ctx, domain.User{Name: "B", Email: "b@example.com", Password: "h", Document: "2"})
	require.NoError(t, err)

	fields := domain.AddressFields{
		Street: "Rua B", Number: "20", Neighborhood: "Vila", ZipCode: "02000", City: "Rio", State: "RJ",
	}
	addr, err := svc.CreateAddress(ctx, owner.ID, fields)
	require.NoError(t, err)

	_, err = svc.GetAddress(ctx, stranger.ID, addr.ID)
	require.ErrorIs(t, err, domain.ErrAddressOwnership)
	require.ErrorIs(t, svc.DeleteAddress(ctx, stranger.ID, addr.ID), domain.ErrAddressOwnership)

	fields.Complement = "apto 3"
	updated, err := svc.UpdateAddress(ctx, owner.ID, addr.ID, fields)
	require.NoError(t, err)
	require.Equal(t, "apto 3", updated.Complement)

	list, err := svc.ListAddresses(ctx, owner.ID)
	require.NoError(t, err)
	require.Equal(t, []domain.Address{updated}, list)

	require.NoError(t, svc.DeleteAddress(ctx, owner.ID, addr.ID))
	_, err = svc.GetAddress(ctx, owner.ID, addr.ID)
	require.ErrorIs(t, err, domain.ErrAddressNotFound)

	_, err = svc.CreateAddress(ctx, 999, fields)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.CreateAddress(ctx, owner.ID, domain.AddressFields{Street: "only street"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAddresses_DeleteReferencedByOrder(t *testing.T) {
	backends := map[string]func(t *testing.T) domain.Storage{
		"csvfile": func(t *testing.T) domain.Storage {
			store, err := csvfile.Open(t.TempDir(), nil)
			require.NoError(t, err)
			return store.Storage()
		},
		"memory": func(*testing.T) domain.Storage { return memory.New().Storage() },
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			storage := open(t)
			svc := NewService(storage, nil)

			owner, err := storage.Users.Create(ctx, domain.User{Name: "A", Email: "a@example.com", Password: "h", Document: "1"})
			require.NoError(t, err)
			fields := domain.AddressFields{
				Street: "Rua C", Number: "3", Neighborhood: "Centro", ZipCode: "03000", City: "SP", State: "SP",
			}
			used, err := svc.CreateAddress(ctx, owner.ID, fields)
			require.NoError(t, err)
			spare, err := svc.CreateAddress(ctx, owner.ID, fields)
			require.NoError(t, err)

			now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
			order, err := storage.Orders.Create(ctx, domain.Order{
				UserID: owner.ID, AddressID: used.ID, Status: domain.OrderStatusPending, CreatedAt: now, UpdatedAt: now,
			})
			require.NoError(t, err)

			err = svc.DeleteAddress(ctx, owner.ID, used.ID)
			require.ErrorIs(t, err, domain.ErrReferenceViolation)

			kept, err := svc.GetAddress(ctx, owner.ID, order.AddressID)
			require.NoError(t, err, "address of an order stays resolvable")
			require.Equal(t, used, kept)

			require.NoError(t, svc.DeleteAddress(ctx, owner.ID, spare.ID))
			_, err = svc.GetAddress(ctx, owner.ID, spare.ID)
			require.ErrorIs(t, err, domain.ErrAddressNotFound)
		})
	}
}
