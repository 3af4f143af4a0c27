package user

type Permission string

const (
	// Self service
	PermissionPayrollViewOwn Permission = "payroll.view_own"

	// Payroll administration
	PermissionPayrollViewRuns  Permission = "payroll.view_runs"
	PermissionPayrollViewAll   Permission = "payroll.view_all"
	PermissionPayrollManage    Permission = "payroll.manage"
	PermissionPayrollRates     Permission = "payroll.rates"
	PermissionPayrollSchedule  Permission = "payroll.schedule"
	PermissionNotificationsOwn Permission = "notifications.own"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: {
		PermissionPayrollViewOwn,
		PermissionPayrollViewRuns,
		PermissionPayrollViewAll,
		PermissionPayrollManage,
		PermissionPayrollRates,
		PermissionPayrollSchedule,
		PermissionNotificationsOwn,
	},
	RoleAdmin: {
		PermissionPayrollViewOwn,
		PermissionPayrollViewRuns,
		PermissionPayrollViewAll,
		PermissionPayrollManage,
		PermissionPayrollRates,
		PermissionPayrollSchedule,
		PermissionNotificationsOwn,
	},
	RoleSupervisor: {
		// Supervisors can read individual runs but not manage them
		PermissionPayrollViewOwn,
		PermissionPayrollViewRuns,
		PermissionNotificationsOwn,
	},
	RoleEmployee: {
		PermissionPayrollViewOwn,
		PermissionNotificationsOwn,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
