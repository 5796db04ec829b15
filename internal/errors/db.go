package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// reKeyField extracts the column from "Key (field)=(value) already exists.".
	reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)
	// reReferencedFrom detects parent deletion: "... is still referenced from table ...".
	reReferencedFrom = regexp.MustCompile(`is still referenced from table "?([^"]+)"?`)
	// reNotPresent detects missing parent: "... is not present in table ...".
	reNotPresent = regexp.MustCompile(`is not present in table "?([^"]+)"?`)
)

// MapDBError maps database errors to AppError instances:
// pgx.ErrNoRows to NotFound, unique violations to Conflict, foreign key violations to ForeignKey,
// check and NOT NULL violations to Validation, context errors to Timeout/Canceled.
// Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "Request was canceled.", Cause: err}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return mapUniqueViolation(pgErr)
	case pgerrcode.ForeignKeyViolation:
		return mapForeignKeyViolation(pgErr)
	case pgerrcode.CheckViolation:
		return &AppError{Code: ErrCodeValidation, Message: checkMessage(pgErr), Field: pgErr.ColumnName, Cause: pgErr}
	case pgerrcode.NotNullViolation:
		return &AppError{Code: ErrCodeValidation, Message: "This field is required.", Field: pgErr.ColumnName, Cause: pgErr}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "A database error occurred. Please try again.",
			Cause:   pgErr,
		}
	}
}

func mapUniqueViolation(pgErr *pgconn.PgError) error {
	field := pgErr.ColumnName
	if field == "" && pgErr.Detail != "" {
		if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			field = m[1]
		}
	}
	if field == "" {
		field = inferFieldFromConstraint(pgErr.TableName, pgErr.ConstraintName)
	}

	message := "This value already exists."
	if field == "line_user_id" {
		message = "An account for this LINE user already exists."
	}
	return &AppError{Code: ErrCodeConflict, Message: message, Field: field, Cause: pgErr}
}

func mapForeignKeyViolation(pgErr *pgconn.PgError) error {
	var message string
	if m := reReferencedFrom.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		message = "Cannot delete because this item is in use by a " + tableNoun(m[1]) + "."
	} else if m := reNotPresent.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		message = "The referenced " + tableNoun(m[1]) + " does not exist."
	}
	if message == "" {
		message = "Cannot complete operation because this item is in use."
	}
	return &AppError{Code: ErrCodeForeignKey, Message: message, Cause: pgErr}
}

func checkMessage(pgErr *pgconn.PgError) string {
	if strings.Contains(pgErr.ConstraintName, "role") {
		return "Unknown role."
	}
	return "Invalid data. Please check your input."
}

// inferFieldFromConstraint strips the table prefix and the "_key" suffix:
// "users_line_user_id_key" on table "users" becomes "line_user_id".
func inferFieldFromConstraint(table, constraint string) string {
	if constraint == "" {
		return ""
	}
	name := constraint
	for _, suffix := range []string{"_key", "_unique", "_idx"} {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok {
			name = trimmed
			break
		}
	}
	if table != "" {
		name = strings.TrimPrefix(name, table+"_")
	} else if i := strings.Index(name, "_"); i >= 0 {
		name = name[i+1:]
	}
	if name == constraint {
		return ""
	}
	return name
}

// tableNoun maps table names to the nouns used in messages.
func tableNoun(table string) string {
	switch strings.ToLower(strings.TrimSpace(table)) {
	case "users":
		return "user"
	case "restaurants":
		return "restaurant"
	default:
		return strings.ReplaceAll(strings.TrimSuffix(table, "s"), "_", " ")
	}
}
