package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

// codec описывает раскладку строки таблицы: фиксированный порядок колонок и
// преобразования сущности в поля CSV и обратно.
type codec[T any] struct {
	name   string
	header []string
	encode func(T) []string
	decode func([]string) (T, error)
	id     func(T) int64
	withID func(T, int64) T
}

// table — один CSV-файл с заголовком. Каждая мутация перечитывает файл целиком,
// применяет изменение к срезу в памяти и перезаписывает файл полностью.
//
// mu сериализует операции внутри одного процесса. Несколько процессов,
// пишущих в один каталог, по-прежнему могут перетереть изменения друг друга.
type table[T any] struct {
	mu      sync.Mutex
	path    string
	seqPath string
	codec   codec[T]
	logger  *log.Entry
}

func newTable[T any](dir string, c codec[T], logger *log.Entry) (*table[T], error) {
	t := &table[T]{
		path:    filepath.Join(dir, c.name+".csv"),
		seqPath: filepath.Join(dir, c.name+".seq"),
		codec:   c,
		logger:  logger.WithField("table", c.name),
	}
	if err := t.ensureFile(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *table[T]) ensureFile() error {
	if _, err := os.Stat(t.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", t.path, err)
	}
	return t.rewrite(nil)
}

// load читает все строки. Строки с неверным числом колонок или с
// неразбираемыми полями пропускаются с предупреждением в лог.
func (t *table[T]) load() ([]T, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", t.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows := make([]T, 0)
	headerSeen := false
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				t.logger.WithError(err).WithField("line", parseErr.Line).Warn("skipping unreadable row")
				continue
			}
			return nil, fmt.Errorf("read %s: %w", t.path, err)
		}
		if !headerSeen {
			headerSeen = true
			continue
		}
		line, _ := reader.FieldPos(0)
		if len(record) != len(t.codec.header) {
			t.logger.WithFields(log.Fields{
				"line":    line,
				"columns": len(record),
			}).Warn("skipping row with unexpected column count")
			continue
		}
		entity, err := t.codec.decode(record)
		if err != nil {
			t.logger.WithError(err).WithField("line", line).Warn("skipping malformed row")
			continue
		}
		rows = append(rows, entity)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return t.codec.id(rows[i]) < t.codec.id(rows[j])
	})
	return rows, nil
}

// rewrite сериализует заголовок и все строки во временный файл и атомарно
// подменяет им основной.
func (t *table[T]) rewrite(rows []T) error {
	tmp, err := os.CreateTemp(filepath.Dir(t.path), "."+t.codec.name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", t.codec.name, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	writer := csv.NewWriter(tmp)
	if err := writer.Write(t.codec.header); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s header: %w", t.codec.name, err)
	}
	for _, row := range rows {
		if err := writer.Write(t.codec.encode(row)); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write %s row %d: %w", t.codec.name, t.codec.id(row), err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush %s: %w", t.codec.name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", t.codec.name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", t.codec.name, err)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		return fmt.Errorf("replace %s: %w", t.path, err)
	}
	return nil
}

// lastID возвращает наибольший выданный идентификатор. Значение из .seq
// защищает от повторной выдачи id удалённой последней строки.
func (t *table[T]) lastID(rows []T) (int64, error) {
	var maxID int64
	for _, row := range rows {
		if id := t.codec.id(row); id > maxID {
			maxID = id
		}
	}

	raw, err := os.ReadFile(t.seqPath)
	if errors.Is(err, os.ErrNotExist) {
		return maxID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", t.seqPath, err)
	}
	seq, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		t.logger.WithError(err).Warn("ignoring corrupted sequence file")
		return maxID, nil
	}
	if seq > maxID {
		return seq, nil
	}
	return maxID, nil
}

func (t *table[T]) storeSeq(id int64) error {
	if err := os.WriteFile(t.seqPath, []byte(strconv.FormatInt(id, 10)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", t.seqPath, err)
	}
	return nil
}

func (t *table[T]) create(entity T) (T, error) {
	return t.createIf(entity, nil)
}

// createIf вставляет строку, только если check не вернул ошибку. check видит
// все строки таблицы и выполняется под той же блокировкой, что и запись.
func (t *table[T]) createIf(entity T, check func(rows []T) error) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	rows, err := t.load()
	if err != nil {
		return zero, err
	}
	if check != nil {
		if err := check(rows); err != nil {
			return zero, err
		}
	}
	last, err := t.lastID(rows)
	if err != nil {
		return zero, err
	}

	entity = t.codec.withID(entity, last+1)
	rows = append(rows, entity)
	if err := t.rewrite(rows); err != nil {
		return zero, err
	}
	if err := t.storeSeq(last + 1); err != nil {
		return zero, err
	}
	return entity, nil
}

func (t *table[T]) update(entity T) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	rows, err := t.load()
	if err != nil {
		return zero, err
	}

	id := t.codec.id(entity)
	idx := -1
	for i, row := range rows {
		if t.codec.id(row) == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return zero, fmt.Errorf("update %s %d: %w", t.codec.name, id, domain.ErrNotFound)
	}

	rows[idx] = entity
	if err := t.rewrite(rows); err != nil {
		return zero, err
	}
	return entity, nil
}

func (t *table[T]) get(id int64) (T, error) {
	var zero T
	rows, err := t.list()
	if err != nil {
		return zero, err
	}
	for _, row := range rows {
		if t.codec.id(row) == id {
			return row, nil
		}
	}
	return zero, fmt.Errorf("get %s %d: %w", t.codec.name, id, domain.ErrNotFound)
}

func (t *table[T]) list() ([]T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load()
}

func (t *table[T]) filter(keep func(T) bool) ([]T, error) {
	rows, err := t.list()
	if err != nil {
		return nil, err
	}
	result := make([]T, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			result = append(result, row)
		}
	}
	return result, nil
}

func (t *table[T]) delete(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.load()
	if err != nil {
		return err
	}
	last, err := t.lastID(rows)
	if err != nil {
		return err
	}

	kept := rows[:0]
	removed := false
	for _, row := range rows {
		if t.codec.id(row) == id {
			removed = true
			continue
		}
		kept = append(kept, row)
	}
	if !removed {
		return nil
	}
	if err := t.rewrite(kept); err != nil {
		return err
	}
	return t.storeSeq(last)
}
