package auth

import "context"

const (
	RoleAdmin    = "admin"
	RoleHead     = "head"
	RoleEmployee = "employee"
)

const (
	PermOrgRead          = "org.read"
	PermOrgWrite         = "org.write"
	PermUsersWrite       = "users.write"
	PermSettingsRead     = "settings.read"
	PermSettingsWrite    = "settings.write"
	PermAppraisalRead    = "appraisal.read"
	PermAppraisalWrite   = "appraisal.write"
	PermAppraisalPlan    = "appraisal.plan"
	PermAppraisalArchive = "appraisal.archive"
	PermAppraisalSignoff = "appraisal.signoff"
	PermReportsRead      = "reports.read"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermOrgRead,
		PermSettingsRead,
		PermAppraisalRead,
		PermAppraisalWrite,
		PermReportsRead,
	},
	RoleHead: {
		PermOrgRead,
		PermSettingsRead,
		PermAppraisalRead,
		PermAppraisalWrite,
		PermAppraisalPlan,
		PermAppraisalSignoff,
		PermReportsRead,
	},
	RoleAdmin: {
		PermOrgRead,
		PermOrgWrite,
		PermUsersWrite,
		PermSettingsRead,
		PermSettingsWrite,
		PermAppraisalRead,
		PermAppraisalWrite,
		PermAppraisalPlan,
		PermAppraisalArchive,
		PermAppraisalSignoff,
		PermReportsRead,
	},
}

// Checker answers permission checks from the static role table. It
// satisfies the transport middleware's PermissionStore without a
// database round trip; roles are closed, not tenant-editable.
type Checker struct{}

func (Checker) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	for _, granted := range RolePermissions[role] {
		if granted == permission {
			return true, nil
		}
	}
	return false, nil
}
