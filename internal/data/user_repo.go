package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/target/food-identity-gateway/internal/data/pgxutil"
	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	apperrors "github.com/target/food-identity-gateway/internal/errors"
	"github.com/target/food-identity-gateway/internal/ports"
)

var _ ports.UserRepository = (*UserRepo)(nil)

const userColumns = `id, line_user_id, display_name, picture_url, status_message, role, created_at, updated_at, last_login_at`

// UserRepo stores platform users in Postgres.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

// UpsertByLineID creates the user on first login and otherwise refreshes the profile and login time.
// New users start as guests until they pick a role.
func (r *UserRepo) UpsertByLineID(ctx context.Context, id domainauth.Identity) (ports.UpsertResult, error) {
	lineID := strings.TrimSpace(id.UserID)
	if lineID == "" {
		return ports.UpsertResult{}, apperrors.ValidationField("line_user_id", "LINE user id is required")
	}
	now := r.timeProvider.Now().UTC()

	var res ports.UpsertResult
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		existing, err := collectUser(ctx, tx,
			`SELECT `+userColumns+` FROM users WHERE line_user_id = $1 FOR UPDATE`, lineID)
		if errors.Is(err, pgx.ErrNoRows) {
			created, err := collectUser(ctx, tx, `
				INSERT INTO users (id, line_user_id, display_name, picture_url, status_message, role, created_at, updated_at, last_login_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $7)
				RETURNING `+userColumns,
				uuid.NewString(), lineID, id.DisplayName, id.PictureURL, id.StatusMessage, domainauth.RoleGuest, now)
			if err != nil {
				return err
			}
			res = ports.UpsertResult{User: created, Created: true}
			return nil
		}
		if err != nil {
			return err
		}

		changed := profileChanged(existing, id)
		updated, err := collectUser(ctx, tx, `
			UPDATE users SET
				display_name = $2,
				picture_url = $3,
				status_message = $4,
				updated_at = CASE WHEN $5 THEN $6 ELSE updated_at END,
				last_login_at = $6
			WHERE id = $1
			RETURNING `+userColumns,
			existing.ID, id.DisplayName, id.PictureURL, id.StatusMessage, changed, now)
		if err != nil {
			return err
		}
		res = ports.UpsertResult{User: updated, ProfileUpdated: changed}
		return nil
	}})
	if err != nil {
		return ports.UpsertResult{}, fmt.Errorf("upsert user: %w", apperrors.MapDBError(err))
	}
	return res, nil
}

// GetByID returns the user with the internal id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (domainauth.User, error) {
	if uuid.Validate(id) != nil {
		return domainauth.User{}, apperrors.NotFoundf("user %s not found", id)
	}
	var u domainauth.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		u, err = collectUser(ctx, conn, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return domainauth.User{}, fmt.Errorf("get user: %w", apperrors.MapDBError(err))
	}
	return u, nil
}

// SetRole stores the role picked on the role selection screen.
func (r *UserRepo) SetRole(ctx context.Context, id string, role domainauth.Role) (domainauth.User, error) {
	if !role.Valid() {
		return domainauth.User{}, apperrors.ValidationField("role", "unknown role")
	}
	if uuid.Validate(id) != nil {
		return domainauth.User{}, apperrors.NotFoundf("user %s not found", id)
	}
	var u domainauth.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		u, err = collectUser(ctx, conn,
			`UPDATE users SET role = $2, updated_at = $3 WHERE id = $1 RETURNING `+userColumns,
			id, role, r.timeProvider.Now().UTC())
		return err
	})
	if err != nil {
		return domainauth.User{}, fmt.Errorf("set role: %w", apperrors.MapDBError(err))
	}
	return u, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func collectUser(ctx context.Context, q querier, query string, args ...any) (domainauth.User, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return domainauth.User{}, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.User])
}

func profileChanged(u domainauth.User, id domainauth.Identity) bool {
	return u.DisplayName != id.DisplayName ||
		u.PictureURL != id.PictureURL ||
		u.StatusMessage != id.StatusMessage
}
