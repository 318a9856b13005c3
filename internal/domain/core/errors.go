package core

import "errors"

var (
	ErrDepartmentNotFound = errors.New("department not found")
	ErrDepartmentInUse    = errors.New("department has assigned users")
	ErrPositionNotFound   = errors.New("position not found")
	ErrPositionInUse      = errors.New("position has assigned users")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already registered")
)
