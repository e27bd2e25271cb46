package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/salonbook/salonbook/libs/db"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		in   error
		want error
	}{
		{fmt.Errorf("get: %w", pgx.ErrNoRows), ErrNotFound},
		{&pgconn.PgError{Code: db.CodeForeignKeyViolation}, ErrInvalidReference},
		{&pgconn.PgError{Code: db.CodeUniqueViolation}, ErrDuplicate},
		{fmt.Errorf("update: %w", &pgconn.PgError{Code: db.CodeCheckViolation}), ErrInvalidValue},
	}
	for _, tc := range cases {
		if got := translate(tc.in); !errors.Is(got, tc.want) {
			t.Fatalf("translate(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
	if translate(nil) != nil {
		t.Fatal("expected nil for nil")
	}
}
