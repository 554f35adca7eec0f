// Package postgres реализует реляционный бэкенд поверх database/sql и драйвера pgx.
//
// Каждая операция репозитория — один SQL-оператор. Многооператорной атомарности
// для последовательности «заказ + позиции + остатки» бэкенд не предоставляет.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
	opTimeout              = 5 * time.Second
)

// Options задаёт параметры пула соединений.
type Options struct {
	// MaxConns по умолчанию 1: одно общее соединение на процесс, как и
	// предполагает модель «один писатель».
	MaxConns int
	Logger   *log.Entry
}

// Store оборачивает SQL-подключение к PostgreSQL.
type Store struct {
	db     *sql.DB
	logger *log.Entry
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string, opts Options) (*Store, error) {
	if opts.MaxConns <= 0 {
		opts.MaxConns = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "postgres")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxConns)
	db.SetMaxIdleConns(opts.MaxConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db, logger: opts.Logger}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Storage возвращает набор репозиториев поверх общего подключения.
func (s *Store) Storage() domain.Storage {
	return domain.Storage{
		Users:      &userRepository{s.base("users")},
		Addresses:  &addressRepository{s.base("addresses")},
		Products:   &productRepository{s.base("products")},
		Orders:     &orderRepository{s.base("orders")},
		OrderItems: &orderItemRepository{s.base("order_items")},
		Timeline:   &timelineRepository{s.base("order_timeline")},
	}
}

func (s *Store) base(table string) base {
	return base{db: s.db, logger: s.logger.WithField("table", table)}
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
