package domain

import "github.com/zentria/afe-api/pkg/logger"

// Known roles. The backend is the authoritative source of a user's role; this
// enumeration must stay in sync with the roles it assigns.
const (
	RoleSuperadmin  = "superadmin"
	RoleAdmin       = "admin"
	RoleResponsable = "responsable"
	RoleContador    = "contador"
	RoleViewer      = "viewer"
)

// KnownRoles lists every role the permission table covers, in privilege order.
func KnownRoles() []string {
	return []string{RoleSuperadmin, RoleAdmin, RoleResponsable, RoleContador, RoleViewer}
}

// Capability is a single named permission bit.
type Capability string

const (
	CapCreate           Capability = "canCreate"
	CapEdit             Capability = "canEdit"
	CapDelete           Capability = "canDelete"
	CapApprove          Capability = "canApprove"
	CapReject           Capability = "canReject"
	CapManageUsers      Capability = "canManageUsers"
	CapManageGroups     Capability = "canManageGroups"
	CapManageMail       Capability = "canManageMailAccounts"
	CapViewPayments     Capability = "canViewPayments"
	CapExport           Capability = "canExport"
)

// AllCapabilities lists every capability name used at any call site.
func AllCapabilities() []Capability {
	return []Capability{
		CapCreate, CapEdit, CapDelete, CapApprove, CapReject,
		CapManageUsers, CapManageGroups, CapManageMail, CapViewPayments, CapExport,
	}
}

// Capabilities is the complete assignment of every capability for one role.
// Using a struct (rather than a map) makes the table exhaustive by
// construction: a role entry cannot silently miss a capability.
type Capabilities struct {
	CanCreate             bool
	CanEdit               bool
	CanDelete             bool
	CanApprove            bool
	CanReject             bool
	CanManageUsers        bool
	CanManageGroups       bool
	CanManageMailAccounts bool
	CanViewPayments       bool
	CanExport             bool
}

// rolePermissions is the single authoritative role → capability matrix.
// Every call site that branches on role must go through HasPermission so this
// table stays the only definition.
var rolePermissions = map[string]Capabilities{
	RoleSuperadmin: {
		CanCreate:             true,
		CanEdit:               true,
		CanDelete:             true,
		CanApprove:            true,
		CanReject:             true,
		CanManageUsers:        true,
		CanManageGroups:       true,
		CanManageMailAccounts: true,
		CanViewPayments:       true,
		CanExport:             true,
	},
	RoleAdmin: {
		CanCreate:             true,
		CanEdit:               true,
		CanDelete:             true,
		CanApprove:            true,
		CanReject:             true,
		CanManageUsers:        true,
		CanManageGroups:       false,
		CanManageMailAccounts: true,
		CanViewPayments:       true,
		CanExport:             true,
	},
	RoleResponsable: {
		CanCreate:             false,
		CanEdit:               true,
		CanDelete:             false,
		CanApprove:            true,
		CanReject:             true,
		CanManageUsers:        false,
		CanManageGroups:       false,
		CanManageMailAccounts: false,
		CanViewPayments:       false,
		CanExport:             true,
	},
	RoleContador: {
		CanCreate:             false,
		CanEdit:               true,
		CanDelete:             false,
		CanApprove:            false,
		CanReject:             false,
		CanManageUsers:        false,
		CanManageGroups:       false,
		CanManageMailAccounts: false,
		CanViewPayments:       true,
		CanExport:             true,
	},
	RoleViewer: {
		CanCreate:             false,
		CanEdit:               false,
		CanDelete:             false,
		CanApprove:            false,
		CanReject:             false,
		CanManageUsers:        false,
		CanManageGroups:       false,
		CanManageMailAccounts: false,
		CanViewPayments:       false,
		CanExport:             false,
	},
}

// IsKnownRole reports whether role appears in the permission table.
func IsKnownRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission reports whether role holds the named capability.
// Unknown roles fail closed (false for every capability); this usually means
// the backend assigned a role this build does not know about, so the miss is
// logged to make the drift visible.
func HasPermission(role string, cap Capability) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		if role != "" {
			l := logger.Get()
			l.Warn().Str("role", role).Msg("permission check for unknown role")
		}
		return false
	}
	return perms.has(cap)
}

// has resolves a capability name against the struct fields. An unrecognised
// name is a defect (a call site using a capability the table does not define),
// logged loudly and denied.
func (p Capabilities) has(cap Capability) bool {
	switch cap {
	case CapCreate:
		return p.CanCreate
	case CapEdit:
		return p.CanEdit
	case CapDelete:
		return p.CanDelete
	case CapApprove:
		return p.CanApprove
	case CapReject:
		return p.CanReject
	case CapManageUsers:
		return p.CanManageUsers
	case CapManageGroups:
		return p.CanManageGroups
	case CapManageMail:
		return p.CanManageMailAccounts
	case CapViewPayments:
		return p.CanViewPayments
	case CapExport:
		return p.CanExport
	default:
		l := logger.Get()
		l.Error().Str("capability", string(cap)).Msg("permission check for unknown capability")
		return false
	}
}

// Landing paths per role. The guard rejects unknown roles before routing, so
// LandingPath only ever sees members of the known role set.
const (
	AdminLandingPath       = "/admin"
	OperationalLandingPath = "/dashboard"
)

// LandingPath returns the designated landing view for a role.
func LandingPath(role string) string {
	if role == RoleSuperadmin {
		return AdminLandingPath
	}
	return OperationalLandingPath
}
