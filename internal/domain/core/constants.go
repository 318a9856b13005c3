package core

const (
	StatusActive   = "active"
	StatusArchived = "archived"

	RoleAdmin    = "admin"
	RoleHead     = "head"
	RoleEmployee = "employee"
)

var Roles = []string{RoleAdmin, RoleHead, RoleEmployee}
