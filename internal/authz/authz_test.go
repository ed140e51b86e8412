package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	actormodels "reestr/internal/actor/models"
	personmodels "reestr/internal/person/models"
	id "reestr/pkg/domain"
	dErrors "reestr/pkg/domain-errors"
)

func newDistrictID() id.DistrictID { return id.DistrictID(uuid.New()) }
func newMahallaID() id.MahallaID   { return id.MahallaID(uuid.New()) }

func superAdmin() *actormodels.Actor {
	return &actormodels.Actor{ID: id.NewActorID(), Role: actormodels.RoleSuperAdmin, FullName: "Super Administrator"}
}

func jqbAdmin(district id.DistrictID) *actormodels.Actor {
	return &actormodels.Actor{ID: id.NewActorID(), Role: actormodels.RoleJQBAdmin, DistrictID: &district}
}

func inspector(district id.DistrictID, mahalla id.MahallaID) *actormodels.Actor {
	return &actormodels.Actor{
		ID:         id.NewActorID(),
		Role:       actormodels.RoleMahallaInspector,
		DistrictID: &district,
		MahallaID:  &mahalla,
	}
}

func person(district id.DistrictID, mahalla id.MahallaID, registeredBy id.ActorID) *personmodels.Person {
	return &personmodels.Person{
		ID:           id.NewPersonID(),
		DistrictID:   district,
		MahallaID:    mahalla,
		RegisteredBy: registeredBy,
	}
}

func requireDenied(t *testing.T, d Decision, reason dErrors.Reason) {
	t.Helper()
	require.False(t, d.Allowed)
	assert.Equal(t, reason, d.Reason())
}

func TestPersonRead(t *testing.T) {
	district := newDistrictID()
	mahalla := newMahallaID()
	other := newDistrictID()
	otherMahalla := newMahallaID()

	owner := inspector(district, mahalla)
	target := person(district, mahalla, owner.ID)

	t.Run("super admin reads anything", func(t *testing.T) {
		d := Authorize(superAdmin(), ActionPersonRead, target, nil)
		assert.True(t, d.Allowed)
	})

	t.Run("jqb admin reads within district", func(t *testing.T) {
		d := Authorize(jqbAdmin(district), ActionPersonRead, target, nil)
		assert.True(t, d.Allowed)
	})

	t.Run("jqb admin denied outside district", func(t *testing.T) {
		d := Authorize(jqbAdmin(other), ActionPersonRead, target, nil)
		requireDenied(t, d, dErrors.ReasonForbiddenJurisdiction)
	})

	t.Run("inspector reads within mahalla even if not owner", func(t *testing.T) {
		colleague := inspector(district, mahalla)
		d := Authorize(colleague, ActionPersonRead, target, nil)
		assert.True(t, d.Allowed)
	})

	t.Run("inspector denied outside mahalla", func(t *testing.T) {
		d := Authorize(inspector(district, otherMahalla), ActionPersonRead, target, nil)
		requireDenied(t, d, dErrors.ReasonForbiddenJurisdiction)
	})
}

func TestPersonUpdate(t *testing.T) {
	district := newDistrictID()
	mahalla := newMahallaID()

	owner := inspector(district, mahalla)
	target := person(district, mahalla, owner.ID)

	t.Run("owner inspector may edit", func(t *testing.T) {
		d := Authorize(owner, ActionPersonUpdate, target, nil)
		assert.True(t, d.Allowed)
	})

	t.Run("non-owner inspector denied even in same mahalla", func(t *testing.T) {
		colleague := inspector(district, mahalla)
		d := Authorize(colleague, ActionPersonUpdate, target, nil)
		requireDenied(t, d, dErrors.ReasonForbiddenJurisdiction)
	})

	t.Run("jqb admin edits within district", func(t *testing.T) {
		d := Authorize(jqbAdmin(district), ActionPersonUpdate, target, nil)
		assert.True(t, d.Allowed)
	})

	t.Run("jqb admin denied outside district", func(t *testing.T) {
		d := Authorize(jqbAdmin(newDistrictID()), ActionPersonUpdate, target, nil)
		requireDenied(t, d, dErrors.ReasonForbiddenJurisdiction)
	})
}

func TestProcessTransitions(t *testing.T) {
	district := newDistrictID()
	mahalla := newMahallaID()
	owner := inspector(district, mahalla)

	t.Run("jqb admin may start processing in district", func(t *testing.T) {
		target := person(district, mahalla, owner.ID)
		d := Authorize(jqbAdmin(district), ActionPersonAddToProcess, target, nil)
		assert.True(t, d.Allowed)
	})

	t.Run("jqb admin denied outside district", func(t *testing.T) {
		target := person(district, mahalla, owner.ID)
		d := Authorize(jqbAdmin(newDistrictID()), ActionPersonAddToProcess, target, nil)
		requireDenied(t, d, dErrors.ReasonForbiddenJurisdiction)
	})

	t.Run("inspector never starts processing", func(t *testing.T) {
		target := person(district, mahalla, owner.ID)
		d := Authorize(owner, ActionPersonAddToProcess, target, nil)
		requireDenied(t, d, dErrors.ReasonForbiddenRole)
	})

	t.Run("already in process is a conflict not a permission failure", func(t *testing.T) {
		target := person(district, mahalla, owner.ID)
		target.InProcess = true
		d := Authorize(superAdmin(), ActionPersonAddToProcess, target, nil)
		require.False(t, d.Allowed)
		err := d.Err()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Equal(t, dErrors.ReasonAlreadyInProcess, dErrors.ReasonOf(err))
	})

	t.Run("only super admin removes from process", func(t *testing.T) {
		target := person(district, mahalla, owner.ID)
		target.InProcess = true
		d := Authorize(jqbAdmin(district), ActionPersonRemoveFromProcess, target, nil)
		requireDenied(t, d, dErrors.ReasonForbiddenRole)

		d = Authorize(superAdmin(), ActionPersonRemoveFromProcess, target, nil)
		assert.True(t, d.Allowed)
	})

	t.Run("not in process is a conflict", func(t *testing.T) {
		target := person(district, mahalla, owner.ID)
		d := Authorize(superAdmin(), ActionPersonRemoveFromProcess, target, nil)
		require.False(t, d.Allowed)
		err := d.Err()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Equal(t, dErrors.ReasonNotInProcess, dErrors.ReasonOf(err))
	})
}

func TestPersonDelete(t *testing.T) {
	district := newDistrictID()
	mahalla := newMahallaID()
	target := person(district, mahalla, id.NewActorID())

	d := Authorize(superAdmin(), ActionPersonDelete, target, nil)
	assert.True(t, d.Allowed)

	d = Authorize(jqbAdmin(district), ActionPersonDelete, target, nil)
	requireDenied(t, d, dErrors.ReasonForbiddenRole)

	d = Authorize(inspector(district, mahalla), ActionPersonDelete, target, nil)
	requireDenied(t, d, dErrors.ReasonForbiddenRole)
}

func TestAdminManagement(t *testing.T) {
	district := newDistrictID()
	mahalla := newMahallaID()

	t.Run("super admin creates any role", func(t *testing.T) {
		d := Authorize(superAdmin(), ActionAdminCreate, nil, jqbAdmin(district))
		assert.True(t, d.Allowed)
	})

	t.Run("jqb admin creates inspectors in own district", func(t *testing.T) {
		d := Authorize(jqbAdmin(district), ActionAdminCreate, nil, inspector(district, mahalla))
		assert.True(t, d.Allowed)
	})

	t.Run("jqb admin denied for other roles", func(t *testing.T) {
		d := Authorize(jqbAdmin(district), ActionAdminCreate, nil, jqbAdmin(district))
		requireDenied(t, d, dErrors.ReasonForbiddenRole)
	})

	t.Run("jqb admin denied for inspectors of other districts", func(t *testing.T) {
		other := newDistrictID()
		d := Authorize(jqbAdmin(district), ActionAdminCreate, nil, inspector(other, newMahallaID()))
		requireDenied(t, d, dErrors.ReasonForbiddenJurisdiction)
	})

	t.Run("inspector denied all admin management", func(t *testing.T) {
		d := Authorize(inspector(district, mahalla), ActionAdminCreate, nil, inspector(district, mahalla))
		requireDenied(t, d, dErrors.ReasonForbiddenRole)
	})
}

// Self-delete is denied for every role, including super admins deleting
// themselves.
func TestAdminDelete_SelfDeleteImmunity(t *testing.T) {
	for name, actor := range map[string]*actormodels.Actor{
		"super admin": superAdmin(),
		"jqb admin":   jqbAdmin(newDistrictID()),
		"inspector":   inspector(newDistrictID(), newMahallaID()),
	} {
		t.Run(name, func(t *testing.T) {
			d := Authorize(actor, ActionAdminDelete, nil, actor)
			requireDenied(t, d, dErrors.ReasonSelfDeleteDenied)
		})
	}
}

func TestAdminDelete_ProtectedRole(t *testing.T) {
	d := Authorize(superAdmin(), ActionAdminDelete, nil, superAdmin())
	requireDenied(t, d, dErrors.ReasonProtectedRole)
}

func TestAdminDelete_JQBScope(t *testing.T) {
	district := newDistrictID()

	t.Run("jqb admin deletes own inspector", func(t *testing.T) {
		d := Authorize(jqbAdmin(district), ActionAdminDelete, nil, inspector(district, newMahallaID()))
		assert.True(t, d.Allowed)
	})

	t.Run("jqb admin denied for foreign inspector", func(t *testing.T) {
		d := Authorize(jqbAdmin(district), ActionAdminDelete, nil, inspector(newDistrictID(), newMahallaID()))
		requireDenied(t, d, dErrors.ReasonForbiddenJurisdiction)
	})
}

func TestRefDataManage(t *testing.T) {
	assert.True(t, Authorize(superAdmin(), ActionRefDataManage, nil, nil).Allowed)
	requireDenied(t, Authorize(jqbAdmin(newDistrictID()), ActionRefDataManage, nil, nil), dErrors.ReasonForbiddenRole)
	requireDenied(t, Authorize(inspector(newDistrictID(), newMahallaID()), ActionRefDataManage, nil, nil), dErrors.ReasonForbiddenRole)
}

func TestPersonListScope(t *testing.T) {
	district := newDistrictID()
	mahalla := newMahallaID()

	t.Run("super admin unrestricted", func(t *testing.T) {
		assert.True(t, PersonListScope(superAdmin()).Unrestricted())
	})

	t.Run("jqb admin scoped to district", func(t *testing.T) {
		scope := PersonListScope(jqbAdmin(district))
		require.NotNil(t, scope.DistrictID)
		assert.Equal(t, district, *scope.DistrictID)
		assert.Nil(t, scope.RegisteredBy)
	})

	// Ownership, not jurisdiction: an inspector's scope excludes a
	// colleague's record even in the same mahalla.
	t.Run("inspector scoped to own registrations", func(t *testing.T) {
		ins := inspector(district, mahalla)
		scope := PersonListScope(ins)
		require.NotNil(t, scope.RegisteredBy)
		assert.Equal(t, ins.ID, *scope.RegisteredBy)

		colleague := person(district, mahalla, id.NewActorID())
		assert.False(t, scope.Matches(colleague))

		own := person(district, mahalla, ins.ID)
		assert.True(t, scope.Matches(own))
	})
}

func TestApplySearchOverrides(t *testing.T) {
	district := newDistrictID()
	mahalla := newMahallaID()
	otherDistrict := newDistrictID()
	otherMahalla := newMahallaID()

	filter := personmodels.SearchFilter{DistrictID: &otherDistrict, MahallaID: &otherMahalla}

	t.Run("super admin keeps both overrides", func(t *testing.T) {
		got := ApplySearchOverrides(superAdmin(), filter)
		assert.NotNil(t, got.DistrictID)
		assert.NotNil(t, got.MahallaID)
	})

	t.Run("jqb admin keeps mahalla only", func(t *testing.T) {
		got := ApplySearchOverrides(jqbAdmin(district), filter)
		assert.Nil(t, got.DistrictID)
		assert.NotNil(t, got.MahallaID)
	})

	t.Run("inspector loses both", func(t *testing.T) {
		got := ApplySearchOverrides(inspector(district, mahalla), filter)
		assert.Nil(t, got.DistrictID)
		assert.Nil(t, got.MahallaID)
	})
}
