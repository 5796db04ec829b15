package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/target/food-identity-gateway/internal/data/pgxutil"
	"github.com/target/food-identity-gateway/internal/domain/model"
	apperrors "github.com/target/food-identity-gateway/internal/errors"
	"github.com/target/food-identity-gateway/internal/ports"
)

var _ ports.RestaurantDirectory = (*RestaurantRepo)(nil)

// RestaurantRepo reads and registers catalog restaurants.
type RestaurantRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRestaurantRepo creates a new RestaurantRepo.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo {
	return &RestaurantRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// Exists reports whether an active restaurant with id exists.
func (r *RestaurantRepo) Exists(ctx context.Context, id string) (bool, error) {
	if !model.ValidRestaurantID(id) {
		return false, nil
	}
	var ok bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM restaurants WHERE id = $1 AND active)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check restaurant: %w", apperrors.MapDBError(err))
	}
	return ok, nil
}

// Create registers a restaurant.
func (r *RestaurantRepo) Create(ctx context.Context, req *model.CreateRestaurantRequest) (*model.Restaurant, error) {
	if req == nil {
		return nil, errors.New("create restaurant request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	now := r.timeProvider.Now().UTC()
	var out model.Restaurant
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO restaurants (id, name, owner_id, active, created_at, updated_at)
			VALUES ($1, $2, $3, TRUE, $4, $4)
			RETURNING id, name, owner_id, active, created_at, updated_at`,
			req.ID, req.Name, req.OwnerID, now)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Restaurant])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create restaurant: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}
