package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

type fakeResult struct {
	affected int64
	err      error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, errors.New("not supported") }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, r.err }

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: sql.ErrNoRows, want: domain.ErrNotFound},
		{
			name: "email unique violation",
			err:  &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"},
			want: domain.ErrEmailTaken,
		},
		{
			name: "foreign key violation",
			err:  &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "orders_address_id_fkey"},
			want: domain.ErrReferenceViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError("op", tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("mapError() = %v, want %v", got, tt.want)
			}
		})
	}

	if mapError("op", nil) != nil {
		t.Fatal("nil error must stay nil")
	}

	other := errors.New("connection reset")
	if got := mapError("op", other); !errors.Is(got, other) || errors.Is(got, domain.ErrNotFound) {
		t.Fatalf("unexpected mapping for generic error: %v", got)
	}
}

func TestRequireAffected(t *testing.T) {
	if err := requireAffected("update", fakeResult{affected: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := requireAffected("update", fakeResult{affected: 0}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := requireAffected("update", fakeResult{err: errors.New("boom")}); err == nil {
		t.Fatal("expected error")
	}
}
