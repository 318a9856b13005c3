package core

import "context"

type StoreAPI interface {
	CreateDepartment(ctx context.Context, dep Department) error
	GetDepartment(ctx context.Context, departmentID string) (*Department, error)
	ListDepartments(ctx context.Context) ([]Department, error)
	UpdateDepartment(ctx context.Context, dep Department) error
	DepartmentHasUsers(ctx context.Context, departmentID string) (bool, error)
	DeleteDepartment(ctx context.Context, departmentID string) error

	CreatePosition(ctx context.Context, pos Position) error
	GetPosition(ctx context.Context, positionID string) (*Position, error)
	ListPositions(ctx context.Context) ([]Position, error)
	UpdatePosition(ctx context.Context, pos Position) error
	PositionHasUsers(ctx context.Context, positionID string) (bool, error)
	DeletePosition(ctx context.Context, positionID string) error

	CreateUser(ctx context.Context, user User, passwordHash string) error
	GetUser(ctx context.Context, userID string) (*User, error)
	ListUsers(ctx context.Context, departmentID string) ([]User, error)
	UpdateUser(ctx context.Context, user User) error
}
