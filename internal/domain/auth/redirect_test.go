package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutes_Decide(t *testing.T) {
	routes := DefaultRoutes()
	existing := &ResolvedIdentity{Source: SourceSession, UserID: "u1", Role: RoleCustomer}
	newUser := &ResolvedIdentity{Source: SourceSDK, UserID: "u2", Role: RoleGuest, IsNewUser: true}

	tests := []struct {
		name string
		in   DecisionInput
		want RedirectTarget
	}{
		{
			name: "no identity in browser carries no restaurant param",
			in:   DecisionInput{Env: Environment{Embedded: false}},
			want: RedirectTarget{URL: "/login", Reason: ReasonLoginRequired},
		},
		{
			name: "no identity keeps restaurant context",
			in:   DecisionInput{RestaurantID: "r9"},
			want: RedirectTarget{URL: "/login?restaurantId=r9", Reason: ReasonLoginRequired},
		},
		{
			name: "new user wins over restaurant hint in embedded context",
			in: DecisionInput{
				Identity: newUser,
				Env:      Environment{Embedded: true},
				Hint:     &RedirectHint{ShouldRedirectToRestaurant: true, RestaurantID: "r1"},
			},
			want: RedirectTarget{URL: "/select-role", Reason: ReasonNewUser},
		},
		{
			name: "new user flag from hint",
			in: DecisionInput{
				Identity: existing,
				Hint:     &RedirectHint{IsNewUser: true},
			},
			want: RedirectTarget{URL: "/select-role", Reason: ReasonNewUser},
		},
		{
			name: "hint restaurant embedded",
			in: DecisionInput{
				Identity: existing,
				Env:      Environment{Embedded: true},
				Hint:     &RedirectHint{ShouldRedirectToRestaurant: true, RestaurantID: "r1"},
			},
			want: RedirectTarget{URL: "/liff/restaurants/r1", Reason: ReasonRestaurantContext},
		},
		{
			name: "explicit restaurant in browser",
			in:   DecisionInput{Identity: existing, RestaurantID: "r2"},
			want: RedirectTarget{URL: "/restaurants/r2/menu", Reason: ReasonRestaurantContext},
		},
		{
			name: "hint without id falls back to explicit context",
			in: DecisionInput{
				Identity:     existing,
				Hint:         &RedirectHint{ShouldRedirectToRestaurant: true},
				RestaurantID: "r3",
			},
			want: RedirectTarget{URL: "/restaurants/r3/menu", Reason: ReasonRestaurantContext},
		},
		{
			name: "hint without id and no context lands on default",
			in: DecisionInput{
				Identity: existing,
				Hint:     &RedirectHint{ShouldRedirectToRestaurant: true},
			},
			want: RedirectTarget{URL: "/", Reason: ReasonAlreadyAuthenticated},
		},
		{
			name: "authenticated default landing",
			in:   DecisionInput{Identity: existing, Env: Environment{Embedded: true}},
			want: RedirectTarget{URL: "/", Reason: ReasonAlreadyAuthenticated},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, routes.Decide(tt.in))
		})
	}
}

func TestRoutes_Decide_NewUserPrecedence(t *testing.T) {
	routes := DefaultRoutes()
	id := &ResolvedIdentity{UserID: "u", IsNewUser: true}
	hints := []*RedirectHint{
		nil,
		{},
		{ShouldRedirectToRestaurant: true, RestaurantID: "r1"},
		{ShouldRedirectToRestaurant: true, RestaurantID: "r1", ProfileUpdated: true},
	}
	for _, hint := range hints {
		for _, embedded := range []bool{true, false} {
			for _, restaurant := range []string{"", "r5"} {
				got := routes.Decide(DecisionInput{
					Identity:     id,
					Env:          Environment{Embedded: embedded},
					Hint:         hint,
					RestaurantID: restaurant,
				})
				assert.Equal(t, ReasonNewUser, got.Reason)
			}
		}
	}
}

func TestRoutes_Decide_IsStateless(t *testing.T) {
	routes := DefaultRoutes()
	in := DecisionInput{Identity: &ResolvedIdentity{UserID: "u"}, RestaurantID: "r1"}
	first := routes.Decide(in)
	for range 5 {
		assert.Equal(t, first, routes.Decide(in))
	}
}

func TestRoutes_Failure(t *testing.T) {
	routes := DefaultRoutes()
	got := routes.Failure(ErrorFatalConfig, "r1")
	assert.Equal(t, ReasonFatalError, got.Reason)
	assert.Equal(t, "/login?error=fatal_config&restaurantId=r1", got.URL)
}

func TestRoutes_MenuURL_EscapesID(t *testing.T) {
	routes := DefaultRoutes()
	assert.Equal(t, "/restaurants/a%2Fb/menu", routes.MenuURL("a/b", false))
}
