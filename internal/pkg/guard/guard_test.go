package guard

import (
	"testing"

	"gymgate/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestDecideLoading(t *testing.T) {
	decision := Decide(Session{State: Loading}, "/admin/members", domain.RoleAdmin)

	assert.Equal(t, Placeholder, decision.Outcome)
	assert.Empty(t, decision.Next)
}

func TestDecideUnauthenticated(t *testing.T) {
	decision := Decide(Session{State: Unauthenticated}, "/admin/members", domain.RoleAdmin)

	assert.Equal(t, RedirectLogin, decision.Outcome)
	assert.Equal(t, "/admin/members", decision.Next)
}

func TestDecideAuthenticatedNoRoleRestriction(t *testing.T) {
	session := Session{State: Authenticated, Role: domain.RoleMember}
	decision := Decide(session, "/profile")

	assert.Equal(t, Allow, decision.Outcome)
}

func TestDecideRoleAllowed(t *testing.T) {
	session := Session{State: Authenticated, Role: domain.RoleManager}
	decision := Decide(session, "/admin/reports", domain.RoleAdmin, domain.RoleManager)

	assert.Equal(t, Allow, decision.Outcome)
}

func TestDecideRoleDenied(t *testing.T) {
	session := Session{State: Authenticated, Role: domain.RoleMember}
	decision := Decide(session, "/admin/reports", domain.RoleAdmin, domain.RoleManager)

	assert.Equal(t, RedirectUnauthorized, decision.Outcome)
	assert.Empty(t, decision.Next)
}

func TestDecideUnauthenticatedBeatsRoleCheck(t *testing.T) {
	// An unauthenticated caller is sent to login, never to unauthorized,
	// even when a role restriction exists
	decision := Decide(Session{State: Unauthenticated, Role: domain.RoleMember}, "/staff", domain.RoleStaff)

	assert.Equal(t, RedirectLogin, decision.Outcome)
}
