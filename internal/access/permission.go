// Package access decides whether a user may run a payroll operation. A user
// holds at most one profile; a profile grants "resource:action" permissions,
// with "*" accepted in either position.
package access

import "strings"

// Action is the operation half of a permission.
type Action string

const (
	ActionList   Action = "list"
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
	// ActionPay covers payout draft preparation.
	ActionPay Action = "pay"
)

// ResourcePayroll is the resource every payroll route is checked against.
const ResourcePayroll = "payroll"

// Permission is a "resource:action" grant, e.g. "payroll:create".
type Permission string

const (
	Wildcard   = "*"
	SuperAdmin Permission = "*:*"
)

// NewPermission joins a resource and an action.
func NewPermission(resource string, action Action) Permission {
	return Permission(resource + ":" + string(action))
}

// Split returns the resource and action halves, or two empty strings when
// the permission is malformed.
func (p Permission) Split() (string, Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

// Grants reports whether holding p allows requested.
func (p Permission) Grants(requested Permission) bool {
	if p == SuperAdmin || p == requested {
		return true
	}
	res, act := p.Split()
	reqRes, _ := requested.Split()
	return res != "" && res == reqRes && string(act) == Wildcard
}
