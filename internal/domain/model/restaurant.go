//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const maxRestaurantNameLen = 255

// restaurantIDPattern matches the slugs and numeric ids used in menu URLs.
var restaurantIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Restaurant is a catalog entry that can be used as login context.
type Restaurant struct {
	ID        string    `json:"id"                 db:"id"`
	Name      string    `json:"name"               db:"name"`
	OwnerID   *string   `json:"owner_id,omitempty" db:"owner_id"`
	Active    bool      `json:"active"             db:"active"`
	CreatedAt time.Time `json:"created_at"         db:"created_at"`
	UpdatedAt time.Time `json:"updated_at"         db:"updated_at"`
}

// CreateRestaurantRequest is the input for registering a restaurant.
type CreateRestaurantRequest struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	OwnerID *string `json:"owner_id,omitempty"`
}

// ValidRestaurantID reports whether id can appear in a menu URL.
func ValidRestaurantID(id string) bool {
	return restaurantIDPattern.MatchString(id)
}

// Validate checks the request.
func (r *CreateRestaurantRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	if !ValidRestaurantID(r.ID) {
		return errors.New("id must be 1-64 letters, digits, '-' or '_'")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(r.Name) > maxRestaurantNameLen {
		return errors.New("name cannot exceed 255 characters")
	}
	return nil
}
