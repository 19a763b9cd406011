package domain

import "fmt"

// Operation names an action subject to authorization.
type Operation string

const (
	OpCreateEvent        Operation = "event.create"
	OpManageEvent        Operation = "event.manage"
	OpListOwnEvents      Operation = "event.list_own"
	OpRegister           Operation = "registration.create"
	OpCancelRegistration Operation = "registration.cancel"
	OpSimulate           Operation = "event.simulate"
)

type policy struct {
	roles []Role
	// ownerScoped operations additionally require the caller to own the resource,
	// unless the caller is an admin.
	ownerScoped bool
}

var policies = map[Operation]policy{
	OpCreateEvent:        {roles: []Role{RoleOrganizer, RoleAdmin}},
	OpManageEvent:        {roles: []Role{RoleOrganizer, RoleAdmin}, ownerScoped: true},
	OpListOwnEvents:      {roles: []Role{RoleOrganizer, RoleAdmin}},
	OpRegister:           {roles: []Role{RoleAttendee, RoleOrganizer, RoleAdmin}},
	OpCancelRegistration: {roles: []Role{RoleAttendee, RoleOrganizer, RoleAdmin}, ownerScoped: true},
	OpSimulate:           {roles: []Role{RoleAdmin}},
}

// Authorize checks whether caller may perform op on a resource owned by ownerID.
// ownerID is ignored for operations that are not owner-scoped.
func Authorize(op Operation, caller Principal, ownerID string) error {
	p, ok := policies[op]
	if !ok {
		return fmt.Errorf("%w: unknown operation %s", ErrUnauthorized, op)
	}
	if caller.UserID == "" {
		return fmt.Errorf("%w: anonymous caller", ErrUnauthorized)
	}
	permitted := false
	for _, r := range p.roles {
		if caller.Role == r {
			permitted = true
			break
		}
	}
	if !permitted {
		return fmt.Errorf("%w: role %s may not perform %s", ErrUnauthorized, caller.Role, op)
	}
	if p.ownerScoped && caller.Role != RoleAdmin && caller.UserID != ownerID {
		return fmt.Errorf("%w: %s requires ownership", ErrUnauthorized, op)
	}
	return nil
}
