package user

import "time"

type Role string

const (
	RoleSuperAdmin Role = "superadmin" // Platform-level operator
	RoleAdmin      Role = "admin"      // Company HR/payroll administrator
	RoleSupervisor Role = "supervisor" // Can view team payroll runs
	RoleEmployee   Role = "employee"   // Regular employee
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type User struct {
	ID        string
	CompanyID string
	Email     string
	FirstName string
	LastName  string
	Role      Role
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmploymentDetail carries the per-user data that affects payroll jurisdiction.
type EmploymentDetail struct {
	UserID    string
	JobTitle  *string
	WorkState *string
	TimeZone  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin checks if user can administer company payroll
func (u *User) IsAdmin() bool {
	return IsAdminRole(u.Role)
}

// IsActive checks if user is included in company-wide batches
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsAdminRole reports whether role is admin or superadmin
func IsAdminRole(role Role) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}
