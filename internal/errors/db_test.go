package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_Codes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{"deadline exceeded", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeCanceled},
		{"wrapped no rows", fmt.Errorf("get user: %w", pgx.ErrNoRows), ErrCodeNotFound},
		{"foreign key", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, ErrCodeForeignKey},
		{"check", &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "users_role_check"}, ErrCodeValidation},
		{"not null", &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "line_user_id"}, ErrCodeValidation},
		{"other pg error", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(MapDBError(tt.err)); got != tt.wantCode {
				t.Errorf("MapDBError() code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestMapDBError_Unrecognized(t *testing.T) {
	orig := errors.New("boom")
	if got := MapDBError(orig); got != orig {
		t.Errorf("MapDBError() = %v, want original error", got)
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name        string
		pgErr       *pgconn.PgError
		wantField   string
		wantMessage string
	}{
		{
			name:        "column name metadata",
			pgErr:       &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "line_user_id"},
			wantField:   "line_user_id",
			wantMessage: "An account for this LINE user already exists.",
		},
		{
			name: "detail message",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: "Key (id)=(sushi-go) already exists.",
			},
			wantField:   "id",
			wantMessage: "This value already exists.",
		},
		{
			name: "constraint name",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				TableName:      "users",
				ConstraintName: "users_line_user_id_key",
			},
			wantField:   "line_user_id",
			wantMessage: "An account for this LINE user already exists.",
		},
		{
			name:  "nothing to infer from",
			pgErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsConflict(err) {
				t.Fatalf("MapDBError() code = %v, want conflict", GetCode(err))
			}
			var appErr *AppError
			if !errors.As(err, &appErr) {
				t.Fatal("expected *AppError")
			}
			if appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
			if tt.wantMessage != "" && appErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", appErr.Message, tt.wantMessage)
			}
			if !errors.Is(err, tt.pgErr) {
				t.Error("cause should be preserved")
			}
		})
	}
}

func TestMapDBError_ForeignKeyMessages(t *testing.T) {
	referenced := MapDBError(&pgconn.PgError{
		Code:   pgerrcode.ForeignKeyViolation,
		Detail: `Key (id)=(1) is still referenced from table "restaurants".`,
	})
	if !strings.Contains(referenced.Error(), "in use by a restaurant") {
		t.Errorf("unexpected message: %v", referenced)
	}

	missing := MapDBError(&pgconn.PgError{
		Code:   pgerrcode.ForeignKeyViolation,
		Detail: `Key (owner_id)=(x) is not present in table "users".`,
	})
	if !strings.Contains(missing.Error(), "referenced user does not exist") {
		t.Errorf("unexpected message: %v", missing)
	}
}

func TestInferFieldFromConstraint(t *testing.T) {
	tests := []struct {
		table, constraint, want string
	}{
		{"users", "users_line_user_id_key", "line_user_id"},
		{"", "restaurants_name_unique", "name"},
		{"users", "", ""},
		{"", "pkey", ""},
	}
	for _, tt := range tests {
		if got := inferFieldFromConstraint(tt.table, tt.constraint); got != tt.want {
			t.Errorf("inferFieldFromConstraint(%q, %q) = %q, want %q", tt.table, tt.constraint, got, tt.want)
		}
	}
}
