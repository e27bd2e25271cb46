package db

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestErrorClassification(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeUniqueViolation})
	if !IsUniqueViolation(wrapped) {
		t.Fatal("expected unique violation")
	}
	if IsForeignKeyViolation(wrapped) {
		t.Fatal("did not expect fk violation")
	}
	if !IsForeignKeyViolation(&pgconn.PgError{Code: CodeForeignKeyViolation}) {
		t.Fatal("expected fk violation")
	}
	if !IsNotFound(fmt.Errorf("get: %w", pgx.ErrNoRows)) {
		t.Fatal("expected not found")
	}
}
