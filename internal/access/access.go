// Package access decides which dashboard areas a user may open. Access is granted per
// department; superusers see everything.
package access

import (
	"context"
	"slices"
	"strings"
)

// Department identifies one business area of the ERP.
type Department string

// Known departments.
const (
	ClientInfo       Department = "client_info"
	SampleDepartment Department = "sample_department"
	Orders           Department = "orders"
	Inventory        Department = "inventory"
	Production       Department = "production"
	Reports          Department = "reports"
)

// Departments lists every department in display order.
func Departments() []Department {
	return []Department{ClientInfo, SampleDepartment, Orders, Inventory, Production, Reports}
}

// User is the profile returned by the backend for a bearer token.
type User struct {
	ID               int64    `json:"id"`
	Username         string   `json:"username"`
	Email            string   `json:"email"`
	FullName         string   `json:"full_name"`
	Role             string   `json:"role"`
	Department       string   `json:"department"`
	Designation      string   `json:"designation"`
	IsActive         bool     `json:"is_active"`
	IsSuperuser      bool     `json:"is_superuser"`
	DepartmentAccess []string `json:"department_access,omitempty"`
}

// HasDepartmentAccess reports whether the user may work in dept.
func HasDepartmentAccess(user *User, dept Department) bool {
	if user == nil {
		return false
	}
	if user.IsSuperuser {
		return true
	}
	return slices.Contains(user.DepartmentAccess, string(dept))
}

type routeRule struct {
	prefix string
	dept   Department
}

var routeRules = []routeRule{
	{"/dashboard/erp/clients", ClientInfo},
	{"/dashboard/erp/samples", SampleDepartment},
	{"/dashboard/erp/orders", Orders},
	{"/dashboard/erp/inventory", Inventory},
	{"/dashboard/erp/production", Production},
	{"/dashboard/erp/reports", Reports},
}

const usersPrefix = "/dashboard/erp/users"

// CanAccessRoute reports whether the user may open a dashboard page. Pages outside the
// department table are open to any signed-in user, except user management which is
// reserved to superusers.
func CanAccessRoute(user *User, path string) bool {
	if user == nil {
		return false
	}
	if user.IsSuperuser {
		return true
	}
	for _, rule := range routeRules {
		if strings.HasPrefix(path, rule.prefix) {
			return HasDepartmentAccess(user, rule.dept)
		}
	}
	if strings.HasPrefix(path, usersPrefix) {
		return false
	}
	return true
}

// DepartmentForRoute returns the department guarding path, if any.
func DepartmentForRoute(path string) (Department, bool) {
	for _, rule := range routeRules {
		if strings.HasPrefix(path, rule.prefix) {
			return rule.dept, true
		}
	}
	return "", false
}

type ctxKey struct{}

// WithUser stores the signed-in user on the context.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext returns the signed-in user or nil.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(ctxKey{}).(*User)
	return user
}
