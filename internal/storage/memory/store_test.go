package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

func TestCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	products := New().Storage().Products

	created, err := products.Create(ctx, domain.Product{Name: "Caneca", Value: decimal.RequireFromString("9.90"), AvailableAmount: 2})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)

	created.AvailableAmount = 1
	_, err = products.Update(ctx, created)
	require.NoError(t, err)

	got, err := products.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.AvailableAmount)

	require.NoError(t, products.Delete(ctx, created.ID))
	require.NoError(t, products.Delete(ctx, created.ID))
	_, err = products.Get(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = products.Update(ctx, created)
	require.ErrorIs(t, err, domain.ErrNotFound)

	next, err := products.Create(ctx, domain.Product{Name: "Prato"})
	require.NoError(t, err)
	require.Equal(t, int64(2), next.ID, "ids are never reused")
}

func TestProducts_DeletedAtIsCopied(t *testing.T) {
	ctx := context.Background()
	products := New().Storage().Products

	deletedAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	created, err := products.Create(ctx, domain.Product{Name: "Caneca", DeletedAt: &deletedAt})
	require.NoError(t, err)

	*created.DeletedAt = time.Time{}
	deletedAt = time.Time{}

	got, err := products.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 2025, got.DeletedAt.Year())
}

func TestUsers_EmailUniqueUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	users := New().Storage().Users

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := users.Create(ctx, domain.User{Name: "Ana", Email: "ana@example.com"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		require.ErrorIs(t, err, domain.ErrEmailTaken)
	}
	require.Equal(t, 1, created)

	found, err := users.FindByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	require.Equal(t, "Ana", found.Name)
}

func TestOrdersAndTimeline(t *testing.T) {
	ctx := context.Background()
	storage := New().Storage()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	first, err := storage.Orders.Create(ctx, domain.Order{UserID: 1, CreatedAt: base})
	require.NoError(t, err)
	second, err := storage.Orders.Create(ctx, domain.Order{UserID: 1, CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)
	_, err = storage.Orders.Create(ctx, domain.Order{UserID: 2, CreatedAt: base})
	require.NoError(t, err)

	listed, err := storage.Orders.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, second.ID, listed[0].ID)
	require.Equal(t, first.ID, listed[1].ID)

	_, err = storage.OrderItems.Create(ctx, domain.OrderItem{OrderID: first.ID, ProductID: 7, Amount: 1})
	require.NoError(t, err)
	items, err := storage.OrderItems.ListByOrder(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, storage.Timeline.Append(ctx, domain.TimelineEvent{OrderID: first.ID, Type: domain.TimelineOrderCreated}))
	events, err := storage.Timeline.List(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, int64(1), events[0].ID)

	events[0].Type = "mutated"
	again, err := storage.Timeline.List(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TimelineOrderCreated, again[0].Type)
}

func TestOrders_ExistsByAddress(t *testing.T) {
	ctx := context.Background()
	orders := New().Storage().Orders

	_, err := orders.Create(ctx, domain.Order{UserID: 1, AddressID: 4})
	require.NoError(t, err)

	used, err := orders.ExistsByAddress(ctx, 4)
	require.NoError(t, err)
	require.True(t, used)
	used, err = orders.ExistsByAddress(ctx, 5)
	require.NoError(t, err)
	require.False(t, used)
}
