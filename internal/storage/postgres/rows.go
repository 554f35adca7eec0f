package postgres

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// base — общее подключение и логгер таблицы.
type base struct {
	db     *sql.DB
	logger *log.Entry
}

// rowScanner покрывает *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// rowIterator — часть *sql.Rows, нужная collectRows.
type rowIterator interface {
	rowScanner
	Next() bool
	Err() error
	Close() error
}

// collectRows вычитывает и закрывает rows. Строка, которую не удалось
// разобрать, пропускается с предупреждением, как и в файловом хранилище.
// Ошибка курсора прерывает чтение.
func collectRows[T any](logger *log.Entry, rows rowIterator, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()

	result := make([]T, 0)
	position := 0
	for rows.Next() {
		position++
		item, err := scan(rows)
		if err != nil {
			logger.WithError(err).WithField("row", position).Warn("skipping malformed row")
			continue
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// deleteByID удаляет строку физически. Отсутствие строки ошибкой не считается.
func deleteByID(ctx context.Context, db *sql.DB, table string, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id); err != nil {
		return mapError("delete from "+table, err)
	}
	return nil
}
