// Package devseed registers demo restaurants so a fresh dev database can be used as login context.
package devseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/food-identity-gateway/internal/domain/model"
	apperrors "github.com/target/food-identity-gateway/internal/errors"
)

// RestaurantCreator is the subset of the restaurant repository the seeder needs.
type RestaurantCreator interface {
	Create(ctx context.Context, req *model.CreateRestaurantRequest) (*model.Restaurant, error)
}

// DefaultRestaurants are the demo restaurants. "42" matches the sample links in the README.
func DefaultRestaurants() []model.CreateRestaurantRequest {
	return []model.CreateRestaurantRequest{
		{ID: "42", Name: "Ramen Yokocho"},
		{ID: "sushi-ginza", Name: "Sushi Ginza"},
		{ID: "curry-house", Name: "Curry House"},
	}
}

// Result reports what Seed did.
type Result struct {
	Created  []string
	Existing []string
}

// Seed registers each restaurant, leaving existing ones untouched. It is safe to run repeatedly.
func Seed(ctx context.Context, repo RestaurantCreator, restaurants []model.CreateRestaurantRequest, logger *slog.Logger) (Result, error) {
	if repo == nil {
		return Result{}, errors.New("devseed: restaurant repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var res Result
	for i := range restaurants {
		req := restaurants[i]
		r, err := repo.Create(ctx, &req)
		switch {
		case apperrors.IsConflict(err):
			res.Existing = append(res.Existing, req.ID)
		case err != nil:
			return res, fmt.Errorf("seed restaurant %q: %w", req.ID, err)
		default:
			res.Created = append(res.Created, r.ID)
		}
	}

	logger.InfoContext(ctx, "dev restaurants seeded", "created", len(res.Created), "existing", len(res.Existing))
	return res, nil
}
