package constants

// Roles. Every user carries exactly one primary role. The approval quorum
// logic in services/approval reads these values, so they must match what the
// identity provider puts into the JWT "role" claim.
const (
	RoleCEO         = "ceo"
	RoleCSO         = "cso"
	RoleAccountant  = "accountant"
	RoleMaintenance = "maintenance"
	RoleAgent       = "agent"
	RoleCustomer    = "customer"
)

// Organization permissions
const (
	PermSuperAdminFull  = "property-sales.super-admin.full-permit"
	PermCEOFull         = "property-sales.ceo.full-permit"
	PermCSOFull         = "property-sales.cso.full-permit"
	PermAccountantFull  = "property-sales.accountant.full-permit"
	PermMaintenanceFull = "property-sales.maintenance.full-permit"
	PermAgentFull       = "property-sales.agent.full-permit"
	PermCustomerFull    = "property-sales.customer.full-permit"

	// Special permissions
	PermAny = "any"
)

// Permission groups for convenience
var (
	ApproverPermissions = []string{
		PermCEOFull,
		PermCSOFull,
		PermAccountantFull,
	}

	ManagementPermissions = []string{
		PermSuperAdminFull,
		PermCEOFull,
	}
)
