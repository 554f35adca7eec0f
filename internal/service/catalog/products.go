// Package catalog управляет товарами и адресами доставки.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

// Service — операции каталога товаров и адресной книги.
type Service struct {
	users     domain.UserRepository
	addresses domain.AddressRepository
	products  domain.ProductRepository
	orders    domain.OrderRepository
	clock     func() time.Time
	logger    *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(storage domain.Storage, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &Service{
		users:     storage.Users,
		addresses: storage.Addresses,
		products:  storage.Products,
		orders:    storage.Orders,
		clock:     time.Now,
		logger:    logger,
	}
}

func normalizeProduct(p domain.Product) domain.Product {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Image = strings.TrimSpace(p.Image)
	return p
}

// CreateProduct добавляет товар в каталог.
func (s *Service) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	p = normalizeProduct(p)
	p.ID = 0
	p.DeletedAt = nil
	if err := domain.NewValidationError(p.Validate()); err != nil {
		return domain.Product{}, err
	}

	created, err := s.products.Create(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.logger.WithField("product_id", created.ID).Info("product created")
	return created, nil
}

// UpdateProduct перезаписывает поля товара, включая остаток. Мягко удалённый
// товар изменить нельзя.
func (s *Service) UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	current, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		return domain.Product{}, err
	}

	p = normalizeProduct(p)
	p.DeletedAt = current.DeletedAt
	if err := domain.NewValidationError(p.Validate()); err != nil {
		return domain.Product{}, err
	}

	updated, err := s.products.Update(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product %d: %w", p.ID, err)
	}
	s.logger.WithFields(log.Fields{
		"product_id": updated.ID,
		"stock":      updated.AvailableAmount,
	}).Info("product updated")
	return updated, nil
}

// GetProduct возвращает активный товар. Мягко удалённый считается отсутствующим.
func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Product{}, fmt.Errorf("%w: %d", domain.ErrProductNotFound, id)
		}
		return domain.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	if p.IsDeleted() {
		return domain.Product{}, fmt.Errorf("%w: %d", domain.ErrProductNotFound, id)
	}
	return p, nil
}

// ListProducts возвращает товары; удалённые только при includeDeleted.
func (s *Service) ListProducts(ctx context.Context, includeDeleted bool) ([]domain.Product, error) {
	all, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if includeDeleted {
		return all, nil
	}
	active := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if !p.IsDeleted() {
			active = append(active, p)
		}
	}
	return active, nil
}

// DeleteProduct помечает товар удалённым. Строка остаётся: на неё ссылаются
// позиции заказов.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	deletedAt := s.clock().UTC().Truncate(time.Microsecond)
	p.DeletedAt = &deletedAt
	if _, err := s.products.Update(ctx, p); err != nil {
		return fmt.Errorf("soft delete product %d: %w", id, err)
	}
	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}
