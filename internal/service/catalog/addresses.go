package catalog

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

// CreateAddress добавляет адрес пользователю.
func (s *Service) CreateAddress(ctx context.Context, userID int64, fields domain.AddressFields) (domain.Address, error) {
	fields = fields.Normalize()
	if err := domain.NewValidationError(fields.Validate()); err != nil {
		return domain.Address{}, err
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		if domain.IsNotFound(err) {
			return domain.Address{}, fmt.Errorf("%w: %d", domain.ErrUserNotFound, userID)
		}
		return domain.Address{}, fmt.Errorf("get user %d: %w", userID, err)
	}

	created, err := s.addresses.Create(ctx, domain.Address{UserID: userID, AddressFields: fields})
	if err != nil {
		return domain.Address{}, fmt.Errorf("create address: %w", err)
	}
	s.logger.WithFields(log.Fields{"user_id": userID, "address_id": created.ID}).Info("address created")
	return created, nil
}

// GetAddress возвращает адрес, если он принадлежит пользователю.
func (s *Service) GetAddress(ctx context.Context, userID, addressID int64) (domain.Address, error) {
	addr, err := s.addresses.Get(ctx, addressID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Address{}, fmt.Errorf("%w: %d", domain.ErrAddressNotFound, addressID)
		}
		return domain.Address{}, fmt.Errorf("get address %d: %w", addressID, err)
	}
	if !addr.BelongsTo(userID) {
		return domain.Address{}, fmt.Errorf("%w: address %d, user %d", domain.ErrAddressOwnership, addressID, userID)
	}
	return addr, nil
}

// UpdateAddress перезаписывает поля адреса владельца.
func (s *Service) UpdateAddress(ctx context.Context, userID, addressID int64, fields domain.AddressFields) (domain.Address, error) {
	addr, err := s.GetAddress(ctx, userID, addressID)
	if err != nil {
		return domain.Address{}, err
	}
	fields = fields.Normalize()
	if err := domain.NewValidationError(fields.Validate()); err != nil {
		return domain.Address{}, err
	}

	addr.AddressFields = fields
	updated, err := s.addresses.Update(ctx, addr)
	if err != nil {
		return domain.Address{}, fmt.Errorf("update address %d: %w", addressID, err)
	}
	return updated, nil
}

// ListAddresses возвращает адреса пользователя.
func (s *Service) ListAddresses(ctx context.Context, userID int64) ([]domain.Address, error) {
	addrs, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses of user %d: %w", userID, err)
	}
	return addrs, nil
}

// DeleteAddress удаляет адрес владельца. Адрес, на который ссылаются заказы,
// удалить нельзя ни в одном хранилище (ErrReferenceViolation).
func (s *Service) DeleteAddress(ctx context.Context, userID, addressID int64) error {
	if _, err := s.GetAddress(ctx, userID, addressID); err != nil {
		return err
	}
	used, err := s.orders.ExistsByAddress(ctx, addressID)
	if err != nil {
		return fmt.Errorf("check orders of address %d: %w", addressID, err)
	}
	if used {
		return fmt.Errorf("delete address %d: %w: referenced by orders", addressID, domain.ErrReferenceViolation)
	}
	if err := s.addresses.Delete(ctx, addressID); err != nil {
		return fmt.Errorf("delete address %d: %w", addressID, err)
	}
	s.logger.WithFields(log.Fields{"user_id": userID, "address_id": addressID}).Info("address deleted")
	return nil
}
