package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound возвращается репозиторием, если записи с таким идентификатором нет.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken сигнализирует о нарушении уникальности email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrReferenceViolation — нарушена ссылочная целостность: запись ссылается
	// на несуществующую сущность или удаляемая сущность ещё используется.
	ErrReferenceViolation = errors.New("reference constraint violated")

	// ErrValidation объединяет ошибки формы входных данных (пустые поля и т.п.).
	ErrValidation = errors.New("validation failed")

	ErrNameRequired         = errors.New("name is required")
	ErrEmailRequired        = errors.New("email is required")
	ErrPasswordRequired     = errors.New("password is required")
	ErrPasswordMismatch     = errors.New("passwords do not match")
	ErrDocumentRequired     = errors.New("document is required")
	ErrStreetRequired       = errors.New("street is required")
	ErrNumberRequired       = errors.New("number is required")
	ErrNeighborhoodRequired = errors.New("neighborhood is required")
	ErrZipCodeRequired      = errors.New("zip code is required")
	ErrCityRequired         = errors.New("city is required")
	ErrStateRequired        = errors.New("state is required")
	ErrDescriptionRequired  = errors.New("description is required")
	ErrValueNegative        = errors.New("value must be non-negative")
	ErrValuePrecision       = errors.New("value must have at most 2 decimal places")
	ErrValueTooLarge        = errors.New("value exceeds 9999999999.99")
	ErrStockNegative        = errors.New("available amount must be non-negative")
	// ErrAddressRequired — не передан ни id существующего адреса, ни данные нового.
	ErrAddressRequired = errors.New("either an existing address id or new address fields are required")

	// ErrUserNotFound — пользователь, оформляющий заказ, не существует.
	ErrUserNotFound = errors.New("user not found")
	// ErrAddressNotFound — указанный адрес не существует.
	ErrAddressNotFound = errors.New("address not found")
	// ErrAddressOwnership — адрес принадлежит другому пользователю.
	ErrAddressOwnership = errors.New("address does not belong to user")
	// ErrEmptyOrder — заказ без позиций.
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// ErrProductUnavailable — товар не найден или мягко удалён.
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrProductNotFound возвращается операциями каталога.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidQuantity — количество в позиции должно быть больше нуля.
	ErrInvalidQuantity = errors.New("item amount must be greater than zero")
	// ErrInsufficientStock — на складе меньше, чем запрошено.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrIllegalCancellation — заказ нельзя отменить в текущем статусе.
	ErrIllegalCancellation = errors.New("order cannot be cancelled")
	// ErrInvalidStatus — значение статуса вне перечисления.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrInvalidCancelPolicy — неизвестная политика отмены в конфигурации.
	ErrInvalidCancelPolicy = errors.New("invalid cancel policy")
	// ErrOrderIncomplete — сбой хранилища после создания заказа: часть позиций/остатков
	// могла быть уже записана, автоматического отката нет.
	ErrOrderIncomplete = errors.New("order persisted partially")
	// ErrCancelIncomplete — отмена прервана после возврата части остатков.
	// Повтор отмены вернёт эти остатки ещё раз, поэтому автоматически не повторяется.
	ErrCancelIncomplete = errors.New("order cancellation interrupted after partial stock restoration")

	// ErrInvalidCredentials — неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized — токен отсутствует, просрочен или отозван.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden — попытка доступа к чужим данным.
	ErrForbidden = errors.New("access denied")
)

// InsufficientStockError сообщает доступный и запрошенный остаток товара.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): available %d, requested %d",
		e.ProductID, e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// IllegalCancellationError содержит статус, из которого отмена запрещена.
type IllegalCancellationError struct {
	OrderID int64
	Status  OrderStatus
}

func (e *IllegalCancellationError) Error() string {
	return fmt.Sprintf("order %d cannot be cancelled in status %s", e.OrderID, e.Status)
}

func (e *IllegalCancellationError) Unwrap() error {
	return ErrIllegalCancellation
}

// NewValidationError объединяет список замечаний в одну ошибку, совместимую с ErrValidation.
// Возвращает nil для пустого списка.
func NewValidationError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
}

// IsNotFound проверяет, является ли ошибка отсутствием записи в хранилище.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
