// Package csvfile реализует файловый бэкенд: по одному CSV-файлу на тип сущности,
// полная перезапись файла при каждой мутации.
//
// Транзакций нет. Ссылочная целостность обеспечивается кодом сервисов, а не хранилищем.
package csvfile

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

// Store держит таблицы одного каталога данных.
type Store struct {
	dir string

	users      *userRepository
	addresses  *addressRepository
	products   *productRepository
	orders     *orderRepository
	orderItems *orderItemRepository
	timeline   *timelineRepository
}

// Open создаёт каталог и файлы с заголовками, если их ещё нет.
func Open(dir string, logger *log.Entry) (*Store, error) {
	if logger == nil {
		logger = log.WithField("component", "csvfile")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	users, err := newTable(dir, userCodec, logger)
	if err != nil {
		return nil, err
	}
	addresses, err := newTable(dir, addressCodec, logger)
	if err != nil {
		return nil, err
	}
	products, err := newTable(dir, productCodec, logger)
	if err != nil {
		return nil, err
	}
	orders, err := newTable(dir, orderCodec, logger)
	if err != nil {
		return nil, err
	}
	items, err := newTable(dir, orderItemCodec, logger)
	if err != nil {
		return nil, err
	}
	timeline, err := newTable(dir, timelineCodec, logger)
	if err != nil {
		return nil, err
	}

	return &Store{
		dir:        dir,
		users:      &userRepository{repository[domain.User]{table: users}},
		addresses:  &addressRepository{repository[domain.Address]{table: addresses}},
		products:   &productRepository{repository[domain.Product]{table: products}},
		orders:     &orderRepository{repository[domain.Order]{table: orders}},
		orderItems: &orderItemRepository{repository[domain.OrderItem]{table: items}},
		timeline:   &timelineRepository{table: timeline},
	}, nil
}

// Storage возвращает набор репозиториев для сервисов.
func (s *Store) Storage() domain.Storage {
	return domain.Storage{
		Users:      s.users,
		Addresses:  s.addresses,
		Products:   s.products,
		Orders:     s.orders,
		OrderItems: s.orderItems,
		Timeline:   s.timeline,
	}
}

// Dir возвращает каталог данных.
func (s *Store) Dir() string {
	return s.dir
}

// Ping проверяет, что каталог доступен на запись.
func (s *Store) Ping() error {
	probe, err := os.CreateTemp(s.dir, ".ping-*")
	if err != nil {
		return fmt.Errorf("data dir %s is not writable: %w", s.dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(filepath.Clean(name))
}

// Close нужен для единообразия с реляционным бэкендом.
func (s *Store) Close() error {
	return nil
}
