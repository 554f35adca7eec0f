package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
	"github.com/vladislavdragonenkov/ordermgmt/internal/metrics"
	"github.com/vladislavdragonenkov/ordermgmt/internal/service/orders"
	"github.com/vladislavdragonenkov/ordermgmt/internal/storage/csvfile"
	"github.com/vladislavdragonenkov/ordermgmt/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		result = append(result, e.Type)
	}
	return result
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	t         *testing.T
	ctx       context.Context
	storage   domain.Storage
	svc       *orders.Service
	publisher *recordingPublisher
	clock     *fakeClock
	buyer     domain.User
	other     domain.User
	address   domain.Address
}

// backend открывает пустое хранилище для одного теста.
type backend func(t *testing.T) domain.Storage

func csvBackend(t *testing.T) domain.Storage {
	t.Helper()
	store, err := csvfile.Open(t.TempDir(), nil)
	require.NoError(t, err)
	return store.Storage()
}

func memoryBackend(*testing.T) domain.Storage {
	return memory.New().Storage()
}

// forEachBackend прогоняет сценарий на каждом хранилище: контракт у них общий.
func forEachBackend(t *testing.T, run func(t *testing.T, open backend)) {
	backends := []struct {
		name string
		open backend
	}{
		{name: "csvfile", open: csvBackend},
		{name: "memory", open: memoryBackend},
	}
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			run(t, b.open)
		})
	}
}

func newFixture(t *testing.T, opts ...orders.Option) *fixture {
	return newFixtureOn(t, csvBackend, opts...)
}

func newFixtureOn(t *testing.T, open backend, opts ...orders.Option) *fixture {
	t.Helper()

	f := &fixture{
		t:         t,
		ctx:       context.Background(),
		storage:   open(t),
		publisher: &recordingPublisher{},
		clock:     &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
	}
	f.buyer = f.user("buyer@example.com")
	f.other = f.user("other@example.com")
	f.address = f.addressOf(f.buyer.ID)

	base := []orders.Option{orders.WithPublisher(f.publisher), orders.WithClock(f.clock.Now)}
	f.svc = orders.NewService(f.storage, append(base, opts...)...)
	return f
}

func (f *fixture) user(email string) domain.User {
	f.t.Helper()
	u, err := f.storage.Users.Create(f.ctx, domain.User{Name: "User", Email: email, Password: "hash", Document: "000"})
	require.NoError(f.t, err)
	return u
}

func addressFields() domain.AddressFields {
	return domain.AddressFields{
		Street: "Rua das Flores", Number: "12", Neighborhood: "Centro",
		ZipCode: "01001-000", City: "Sao Paulo", State: "SP",
	}
}

func (f *fixture) addressOf(userID int64) domain.Address {
	f.t.Helper()
	a, err := f.storage.Addresses.Create(f.ctx, domain.Address{UserID: userID, AddressFields: addressFields()})
	require.NoError(f.t, err)
	return a
}

func (f *fixture) product(name, value string, stock int) domain.Product {
	f.t.Helper()
	p, err := f.storage.Products.Create(f.ctx, domain.Product{
		Name: name, Value: decimal.RequireFromString(value), Description: name, AvailableAmount: stock,
	})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) stock(productID int64) int {
	f.t.Helper()
	p, err := f.storage.Products.Get(f.ctx, productID)
	require.NoError(f.t, err)
	return p.AvailableAmount
}

func (f *fixture) orderCount() int {
	f.t.Helper()
	all, err := f.storage.Orders.List(f.ctx)
	require.NoError(f.t, err)
	return len(all)
}

func (f *fixture) request(items ...orders.ItemRequest) orders.CreateOrderRequest {
	id := f.address.ID
	return orders.CreateOrderRequest{
		UserID:  f.buyer.ID,
		Address: orders.AddressInput{ExistingID: &id},
		Items:   items,
	}
}

func item(productID int64, amount int) orders.ItemRequest {
	return orders.ItemRequest{ProductID: productID, Amount: amount}
}

func TestCreateOrder_DecrementsStockAndCapturesPrice(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		f := newFixtureOn(t, open)
		mug := f.product("Caneca", "19.90", 5)
		pen := f.product("Caneta", "2.50", 10)

		created, err := f.svc.CreateOrder(f.ctx, f.request(item(mug.ID, 3), item(pen.ID, 4)))
		require.NoError(t, err)

		require.Equal(t, domain.OrderStatusPending, created.Status)
		require.Equal(t, f.address.ID, created.AddressID)
		require.Len(t, created.Items, 2)
		require.True(t, created.Items[0].Value.Equal(mug.Value))
		require.True(t, created.Total.Equal(decimal.RequireFromString("69.70")), "total = %s", created.Total)
		require.Equal(t, created.CreatedAt, created.UpdatedAt)

		require.Equal(t, 2, f.stock(mug.ID))
		require.Equal(t, 6, f.stock(pen.ID))

		fetched, err := f.svc.GetOrderByID(f.ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.Order, fetched)

		events, err := f.svc.Timeline(f.ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, domain.TimelineOrderCreated, events[0].Type)
		require.Equal(t, []domain.EventType{domain.EventOrderCreated}, f.publisher.types())
	})
}

func TestStockScenario_CreateRejectCancel(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		f := newFixtureOn(t, open)
		p := f.product("Livro", "45.00", 5)

		first, err := f.svc.CreateOrder(f.ctx, f.request(item(p.ID, 3)))
		require.NoError(t, err)
		require.Equal(t, 2, f.stock(p.ID))

		_, err = f.svc.CreateOrder(f.ctx, f.request(item(p.ID, 3)))
		require.ErrorIs(t, err, domain.ErrInsufficientStock)
		var stockErr *domain.InsufficientStockError
		require.True(t, errors.As(err, &stockErr))
		require.Equal(t, 2, stockErr.Available)
		require.Equal(t, 3, stockErr.Requested)
		require.Equal(t, 2, f.stock(p.ID))
		require.Equal(t, 1, f.orderCount())

		require.NoError(t, f.svc.CancelOrder(f.ctx, first.ID))
		require.Equal(t, 5, f.stock(p.ID))

		cancelled, err := f.svc.GetOrderByID(f.ctx, first.ID)
		require.NoError(t, err)
		require.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
		require.True(t, cancelled.UpdatedAt.After(cancelled.CreatedAt))

		items, err := f.svc.GetOrderItems(f.ctx, first.ID)
		require.NoError(t, err)
		require.Len(t, items, 1, "items stay as history after cancellation")
		require.Equal(t, 3, items[0].Amount)
	})
}

func TestStockConservation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		f := newFixtureOn(t, open)
		p := f.product("Cafe", "12.00", 20)

		amounts := []int{2, 5, 1, 4, 3}
		cancelled := map[int]bool{1: true, 3: true}

		ids := make([]int64, 0, len(amounts))
		for _, amount := range amounts {
			o, err := f.svc.CreateOrder(f.ctx, f.request(item(p.ID, amount)))
			require.NoError(t, err)
			ids = append(ids, o.ID)
		}
		for idx := range cancelled {
			require.NoError(t, f.svc.CancelOrder(f.ctx, ids[idx]))
		}

		active := 0
		for idx, amount := range amounts {
			if !cancelled[idx] {
				active += amount
			}
		}
		require.Equal(t, 20-active, f.stock(p.ID))
	})
}

func TestCreateOrder_AllOrNoneValidation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		f := newFixtureOn(t, open)
		plenty := f.product("Arroz", "5.00", 100)
		scarce := f.product("Azeite", "30.00", 1)

		fields := addressFields()
		req := orders.CreateOrderRequest{
			UserID:  f.buyer.ID,
			Address: orders.AddressInput{New: &fields},
			Items:   []orders.ItemRequest{item(plenty.ID, 10), item(scarce.ID, 2)},
		}

		_, err := f.svc.CreateOrder(f.ctx, req)
		require.ErrorIs(t, err, domain.ErrInsufficientStock)

		require.Equal(t, 100, f.stock(plenty.ID))
		require.Equal(t, 1, f.stock(scarce.ID))
		require.Zero(t, f.orderCount())

		allItems, err := f.storage.OrderItems.List(f.ctx)
		require.NoError(t, err)
		require.Empty(t, allItems)

		addresses, err := f.storage.Addresses.ListByUser(f.ctx, f.buyer.ID)
		require.NoError(t, err)
		require.Len(t, addresses, 1, "inline address must not be stored when validation fails")
		require.Empty(t, f.publisher.types())
	})
}

func TestCreateOrder_AddressOfAnotherUser(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		f := newFixtureOn(t, open)
		p := f.product("Cha", "8.00", 3)

		foreign := f.address.ID
		_, err := f.svc.CreateOrder(f.ctx, orders.CreateOrderRequest{
			UserID:  f.other.ID,
			Address: orders.AddressInput{ExistingID: &foreign},
			Items:   []orders.ItemRequest{item(p.ID, 1)},
		})
		require.ErrorIs(t, err, domain.ErrAddressOwnership)
		require.Zero(t, f.orderCount())
		require.Equal(t, 3, f.stock(p.ID))
	})
}

func TestCreateOrder_InlineAddress(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		f := newFixtureOn(t, open)
		p := f.product("Pao", "1.50", 10)

		fields := addressFields()
		fields.Street = "  Avenida Paulista  "
		created, err := f.svc.CreateOrder(f.ctx, orders.CreateOrderRequest{
			UserID:  f.other.ID,
			Address: orders.AddressInput{New: &fields},
			Items:   []orders.ItemRequest{item(p.ID, 2)},
		})
		require.NoError(t, err)

		addr, err := f.storage.Addresses.Get(f.ctx, created.AddressID)
		require.NoError(t, err)
		require.Equal(t, f.other.ID, addr.UserID)
		require.Equal(t, "Avenida Paulista", addr.Street)
	})
}

func TestCreateOrder_Preconditions(t *testing.T) {
	f := newFixture(t)
	p := f.product("Queijo", "20.00", 4)
	gone := f.product("Vinho", "60.00", 4)
	deletedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	gone.DeletedAt = &deletedAt
	_, err := f.storage.Products.Update(f.ctx, gone)
	require.NoError(t, err)

	missingAddress := int64(999)
	incomplete := addressFields()
	incomplete.City = " "

	tests := []struct {
		name   string
		mutate func(*orders.CreateOrderRequest)
		want   error
	}{
		{
			name:   "unknown user",
			mutate: func(r *orders.CreateOrderRequest) { r.UserID = 404 },
			want:   domain.ErrUserNotFound,
		},
		{
			name:   "unknown address",
			mutate: func(r *orders.CreateOrderRequest) { r.Address.ExistingID = &missingAddress },
			want:   domain.ErrAddressNotFound,
		},
		{
			name:   "no address",
			mutate: func(r *orders.CreateOrderRequest) { r.Address = orders.AddressInput{} },
			want:   domain.ErrAddressRequired,
		},
		{
			name:   "incomplete inline address",
			mutate: func(r *orders.CreateOrderRequest) { r.Address = orders.AddressInput{New: &incomplete} },
			want:   domain.ErrCityRequired,
		},
		{
			name:   "empty order",
			mutate: func(r *orders.CreateOrderRequest) { r.Items = nil },
			want:   domain.ErrEmptyOrder,
		},
		{
			name:   "unknown product",
			mutate: func(r *orders.CreateOrderRequest) { r.Items = []orders.ItemRequest{item(777, 1)} },
			want:   domain.ErrProductUnavailable,
		},
		{
			name:   "soft deleted product",
			mutate: func(r *orders.CreateOrderRequest) { r.Items = []orders.ItemRequest{item(gone.ID, 1)} },
			want:   domain.ErrProductUnavailable,
		},
		{
			name:   "zero amount",
			mutate: func(r *orders.CreateOrderRequest) { r.Items = []orders.ItemRequest{item(p.ID, 0)} },
			want:   domain.ErrInvalidQuantity,
		},
		{
			name:   "negative amount",
			mutate: func(r *orders.CreateOrderRequest) { r.Items = []orders.ItemRequest{item(p.ID, -2)} },
			want:   domain.ErrInvalidQuantity,
		},
		{
			name: "duplicate lines exceed stock together",
			mutate: func(r *orders.CreateOrderRequest) {
				r.Items = []orders.ItemRequest{item(p.ID, 3), item(p.ID, 2)}
			},
			want: domain.ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request(item(p.ID, 1))
			tt.mutate(&req)

			_, err := f.svc.CreateOrder(f.ctx, req)
			require.ErrorIs(t, err, tt.want)
		})
	}

	require.Zero(t, f.orderCount())
	require.Equal(t, 4, f.stock(p.ID))
}

// flakyItems отказывает на заданном по счёту Create.
type flakyItems struct {
	domain.OrderItemRepository
	failOn int
	calls  int
}

func (r *flakyItems) Create(ctx context.Context, item domain.OrderItem) (domain.OrderItem, error) {
	r.calls++
	if r.calls == r.failOn {
		return domain.OrderItem{}, errors.New("disk full")
	}
	return r.OrderItemRepository.Create(ctx, item)
}

func TestCreateOrder_MidMutationFaultIsReported(t *testing.T) {
	f := newFixture(t)
	first := f.product("A", "1.00", 5)
	second := f.product("B", "2.00", 5)

	storage := f.storage
	storage.OrderItems = &flakyItems{OrderItemRepository: f.storage.OrderItems, failOn: 2}
	svc := orders.NewService(storage)

	_, err := svc.CreateOrder(f.ctx, f.request(item(first.ID, 2), item(second.ID, 1)))
	require.ErrorIs(t, err, domain.ErrOrderIncomplete)
	require.ErrorContains(t, err, "disk full")

	// Откат не выполняется: заказ и первая позиция остаются записанными.
	require.Equal(t, 1, f.orderCount())
	require.Equal(t, 3, f.stock(first.ID))
	require.Equal(t, 5, f.stock(second.ID))
}

// flakyProducts отказывает на заданном по счёту Update.
type flakyProducts struct {
	domain.ProductRepository
	failOn int
	calls  int
}

func (r *flakyProducts) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	r.calls++
	if r.calls == r.failOn {
		return domain.Product{}, errors.New("disk full")
	}
	return r.ProductRepository.Update(ctx, p)
}

func TestCancelOrder_InterruptedRestorationIsReported(t *testing.T) {
	f := newFixture(t)
	first := f.product("A", "1.00", 5)
	second := f.product("B", "2.00", 5)
	o, err := f.svc.CreateOrder(f.ctx, f.request(item(first.ID, 2), item(second.ID, 1)))
	require.NoError(t, err)

	t.Run("first restore fails", func(t *testing.T) {
		storage := f.storage
		storage.Products = &flakyProducts{ProductRepository: f.storage.Products, failOn: 1}
		err := orders.NewService(storage).CancelOrder(f.ctx, o.ID)
		require.ErrorContains(t, err, "disk full")
		require.NotErrorIs(t, err, domain.ErrCancelIncomplete, "nothing restored, retry is safe")
		require.Equal(t, 3, f.stock(first.ID))
	})

	t.Run("second restore fails", func(t *testing.T) {
		storage := f.storage
		storage.Products = &flakyProducts{ProductRepository: f.storage.Products, failOn: 2}
		err := orders.NewService(storage).CancelOrder(f.ctx, o.ID)
		require.ErrorIs(t, err, domain.ErrCancelIncomplete)
		require.ErrorContains(t, err, "disk full")

		require.Equal(t, 5, f.stock(first.ID))
		require.Equal(t, 4, f.stock(second.ID))
		current, err := f.svc.GetOrderByID(f.ctx, o.ID)
		require.NoError(t, err)
		require.Equal(t, domain.OrderStatusPending, current.Status)
	})
}

func TestCancelOrder_Policy(t *testing.T) {
	t.Run("paid order under default policy", func(t *testing.T) {
		f := newFixture(t)
		p := f.product("X", "3.00", 5)
		o, err := f.svc.CreateOrder(f.ctx, f.request(item(p.ID, 2)))
		require.NoError(t, err)
		_, err = f.svc.UpdateOrderStatus(f.ctx, o.ID, domain.OrderStatusPaid)
		require.NoError(t, err)

		err = f.svc.CancelOrder(f.ctx, o.ID)
		require.ErrorIs(t, err, domain.ErrIllegalCancellation)
		var illegal *domain.IllegalCancellationError
		require.True(t, errors.As(err, &illegal))
		require.Equal(t, domain.OrderStatusPaid, illegal.Status)

		require.Equal(t, 3, f.stock(p.ID))
		current, err := f.svc.GetOrderByID(f.ctx, o.ID)
		require.NoError(t, err)
		require.Equal(t, domain.OrderStatusPaid, current.Status)
	})

	t.Run("paid order under pending_or_paid", func(t *testing.T) {
		f := newFixture(t, orders.WithCancelPolicy(domain.CancelPolicyPendingOrPaid))
		p := f.product("X", "3.00", 5)
		o, err := f.svc.CreateOrder(f.ctx, f.request(item(p.ID, 2)))
		require.NoError(t, err)
		_, err = f.svc.UpdateOrderStatus(f.ctx, o.ID, domain.OrderStatusPaid)
		require.NoError(t, err)

		require.NoError(t, f.svc.CancelOrder(f.ctx, o.ID))
		require.Equal(t, 5, f.stock(p.ID))
	})

	t.Run("shipped order under pending_or_paid", func(t *testing.T) {
		f := newFixture(t, orders.WithCancelPolicy(domain.CancelPolicyPendingOrPaid))
		p := f.product("X", "3.00", 5)
		o, err := f.svc.CreateOrder(f.ctx, f.request(item(p.ID, 2)))
		require.NoError(t, err)
		_, err = f.svc.UpdateOrderStatus(f.ctx, o.ID, domain.OrderStatusShipped)
		require.NoError(t, err)

		require.ErrorIs(t, f.svc.CancelOrder(f.ctx, o.ID), domain.ErrIllegalCancellation)
		require.Equal(t, 3, f.stock(p.ID))
	})
}

func TestCancelOrder_TwiceAndMissing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		f := newFixtureOn(t, open)
		p := f.product("Y", "4.00", 5)
		o, err := f.svc.CreateOrder(f.ctx, f.request(item(p.ID, 4)))
		require.NoError(t, err)

		require.NoError(t, f.svc.CancelOrder(f.ctx, o.ID))
		require.ErrorIs(t, f.svc.CancelOrder(f.ctx, o.ID), domain.ErrIllegalCancellation)
		require.Equal(t, 5, f.stock(p.ID), "stock is restored only once")

		require.ErrorIs(t, f.svc.CancelOrder(f.ctx, 12345), domain.ErrOrderNotFound)

		require.Equal(t, []domain.EventType{domain.EventOrderCreated, domain.EventOrderCanceled}, f.publisher.types())
	})
}

func TestCalculateOrderTotal_UsesFrozenPrices(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		f := newFixtureOn(t, open)
		p := f.product("Z", "10.00", 5)
		o, err := f.svc.CreateOrder(f.ctx, f.request(item(p.ID, 2)))
		require.NoError(t, err)

		live, err := f.storage.Products.Get(f.ctx, p.ID)
		require.NoError(t, err)
		live.Value = decimal.RequireFromString("99.99")
		_, err = f.storage.Products.Update(f.ctx, live)
		require.NoError(t, err)

		total, err := f.svc.CalculateOrderTotal(f.ctx, o.ID)
		require.NoError(t, err)
		require.True(t, total.Equal(decimal.RequireFromString("20.00")), "total = %s", total)

		details, err := f.svc.GetOrderDetails(f.ctx, o.ID)
		require.NoError(t, err)
		require.True(t, details.Total.Equal(total))

		_, err = f.svc.CalculateOrderTotal(f.ctx, 999)
		require.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	p := f.product("W", "1.00", 5)
	o, err := f.svc.CreateOrder(f.ctx, f.request(item(p.ID, 1)))
	require.NoError(t, err)

	updated, err := f.svc.UpdateOrderStatus(f.ctx, o.ID, domain.OrderStatusDelivered)
	require.NoError(t, err, "transitions are not restricted")
	require.Equal(t, domain.OrderStatusDelivered, updated.Status)
	require.True(t, updated.UpdatedAt.After(o.UpdatedAt))
	require.Equal(t, o.CreatedAt, updated.CreatedAt)

	_, err = f.svc.UpdateOrderStatus(f.ctx, o.ID, domain.OrderStatus("LOST"))
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.svc.UpdateOrderStatus(f.ctx, 999, domain.OrderStatusPaid)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = f.svc.UpdateOrderStatus(f.ctx, o.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	require.Equal(t, 4, f.stock(p.ID), "plain status update never touches stock")

	events, err := f.svc.Timeline(f.ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, domain.TimelineOrderStatusChanged, events[2].Type)
	require.Equal(t, "from DELIVERED", events[2].Reason)
}

func TestGetOrdersByUser_NewestFirst(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		f := newFixtureOn(t, open)
		p := f.product("V", "1.00", 10)

		first, err := f.svc.CreateOrder(f.ctx, f.request(item(p.ID, 1)))
		require.NoError(t, err)
		second, err := f.svc.CreateOrder(f.ctx, f.request(item(p.ID, 1)))
		require.NoError(t, err)

		list, err := f.svc.GetOrdersByUser(f.ctx, f.buyer.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, second.ID, list[0].ID)
		require.Equal(t, first.ID, list[1].ID)

		none, err := f.svc.GetOrdersByUser(f.ctx, f.other.ID)
		require.NoError(t, err)
		require.Empty(t, none)

		all, err := f.svc.ListOrders(f.ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
	})
}

type brokenTimeline struct{}

func (brokenTimeline) Append(context.Context, domain.TimelineEvent) error {
	return errors.New("timeline unavailable")
}

func (brokenTimeline) List(context.Context, int64) ([]domain.TimelineEvent, error) {
	return nil, errors.New("timeline unavailable")
}

func TestSideEffectFailuresDoNotFailOperations(t *testing.T) {
	f := newFixture(t)
	p := f.product("U", "1.00", 5)

	storage := f.storage
	storage.Timeline = brokenTimeline{}
	publisher := &recordingPublisher{err: errors.New("broker down")}
	svc := orders.NewService(storage, orders.WithPublisher(publisher))

	o, err := svc.CreateOrder(f.ctx, f.request(item(p.ID, 1)))
	require.NoError(t, err)
	require.NoError(t, svc.CancelOrder(f.ctx, o.ID))
	require.Len(t, publisher.types(), 2)
}

func TestCreateOrder_ConcurrentRequestsNeverOversell(t *testing.T) {
	f := newFixture(t)
	p := f.product("Limitado", "100.00", 5)

	const workers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateOrder(f.ctx, f.request(item(p.ID, 1)))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 5, succeeded)
	require.Zero(t, f.stock(p.ID))
}

func TestMetricsRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, orders.WithMetrics(metrics.NewOrderMetricsWithRegisterer(reg)))
	p := f.product("M", "1.00", 5)

	o, err := f.svc.CreateOrder(f.ctx, f.request(item(p.ID, 3)))
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(f.ctx, f.request(item(p.ID, 3)))
	require.Error(t, err)
	require.NoError(t, f.svc.CancelOrder(f.ctx, o.ID))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			if c := m.GetCounter(); c != nil {
				values[family.GetName()] += c.GetValue()
			}
		}
	}
	require.Equal(t, 1.0, values["ordermgmt_orders_created_total"])
	require.Equal(t, 1.0, values["ordermgmt_orders_canceled_total"])
	require.Equal(t, 3.0, values["ordermgmt_stock_units_reserved_total"])
	require.Equal(t, 3.0, values["ordermgmt_stock_units_released_total"])
	require.Equal(t, 1.0, values["ordermgmt_order_operation_failures_total"])
}
