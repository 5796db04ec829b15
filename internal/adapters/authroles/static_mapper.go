package authroles

import (
	"slices"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
)

// StaticRoleMapper resolves the session role of a stored user.
// Platform user ids in AdminUserIDs are always admins; everyone else keeps the role they
// selected, or Guest until they select one.
type StaticRoleMapper struct {
	AdminUserIDs []string
}

func (m StaticRoleMapper) Map(user domainauth.User) domainauth.Role {
	if user.LineUserID != "" && slices.Contains(m.AdminUserIDs, user.LineUserID) {
		return domainauth.RoleAdmin
	}
	if user.Role.Valid() {
		return user.Role
	}
	return domainauth.RoleGuest
}
