package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) CreateDepartment(ctx context.Context, name, managerID string) (*Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("department name is required")
	}
	dep := Department{
		ID:        uuid.NewString(),
		Name:      name,
		ManagerID: managerID,
		Status:    StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateDepartment(ctx, dep); err != nil {
		return nil, err
	}
	return &dep, nil
}

func (s *Service) GetDepartment(ctx context.Context, departmentID string) (*Department, error) {
	return s.store.GetDepartment(ctx, departmentID)
}

func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	return s.store.ListDepartments(ctx)
}

func (s *Service) UpdateDepartment(ctx context.Context, dep Department) error {
	if strings.TrimSpace(dep.Name) == "" {
		return fmt.Errorf("department name is required")
	}
	return s.store.UpdateDepartment(ctx, dep)
}

// DeleteDepartment refuses to remove a department while users still
// belong to it.
func (s *Service) DeleteDepartment(ctx context.Context, departmentID string) error {
	if _, err := s.store.GetDepartment(ctx, departmentID); err != nil {
		return err
	}
	inUse, err := s.store.DepartmentHasUsers(ctx, departmentID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrDepartmentInUse
	}
	return s.store.DeleteDepartment(ctx, departmentID)
}

func (s *Service) CreatePosition(ctx context.Context, pos Position) (*Position, error) {
	if strings.TrimSpace(pos.Title) == "" {
		return nil, fmt.Errorf("position title is required")
	}
	if err := validateWeights(pos); err != nil {
		return nil, err
	}
	pos.ID = uuid.NewString()
	pos.CreatedAt = time.Now().UTC()
	if err := s.store.CreatePosition(ctx, pos); err != nil {
		return nil, err
	}
	return &pos, nil
}

func (s *Service) GetPosition(ctx context.Context, positionID string) (*Position, error) {
	return s.store.GetPosition(ctx, positionID)
}

func (s *Service) ListPositions(ctx context.Context) ([]Position, error) {
	return s.store.ListPositions(ctx)
}

func (s *Service) UpdatePosition(ctx context.Context, pos Position) error {
	if strings.TrimSpace(pos.Title) == "" {
		return fmt.Errorf("position title is required")
	}
	if err := validateWeights(pos); err != nil {
		return err
	}
	return s.store.UpdatePosition(ctx, pos)
}

func (s *Service) DeletePosition(ctx context.Context, positionID string) error {
	if _, err := s.store.GetPosition(ctx, positionID); err != nil {
		return err
	}
	inUse, err := s.store.PositionHasUsers(ctx, positionID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrPositionInUse
	}
	return s.store.DeletePosition(ctx, positionID)
}

func (s *Service) CreateUser(ctx context.Context, payload NewUser) (*User, error) {
	if strings.TrimSpace(payload.Email) == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(payload.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if !validRole(payload.Role) {
		return nil, fmt.Errorf("unknown role %q", payload.Role)
	}
	if payload.DepartmentID != "" {
		if _, err := s.store.GetDepartment(ctx, payload.DepartmentID); err != nil {
			return nil, err
		}
	}
	if payload.PositionID != "" {
		if _, err := s.store.GetPosition(ctx, payload.PositionID); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := User{
		ID:           uuid.NewString(),
		FirstName:    strings.TrimSpace(payload.FirstName),
		LastName:     strings.TrimSpace(payload.LastName),
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		Role:         payload.Role,
		DepartmentID: payload.DepartmentID,
		PositionID:   payload.PositionID,
		Status:       StatusActive,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user, string(hash)); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context, departmentID string) ([]User, error) {
	return s.store.ListUsers(ctx, departmentID)
}

func (s *Service) UpdateUser(ctx context.Context, user User) error {
	if !validRole(user.Role) {
		return fmt.Errorf("unknown role %q", user.Role)
	}
	return s.store.UpdateUser(ctx, user)
}

func validateWeights(pos Position) error {
	for _, w := range []float64{pos.CoreWeight, pos.StrategicWeight, pos.SupportWeight} {
		if w < 0 || w > 1 {
			return fmt.Errorf("weights must be between 0 and 1")
		}
	}
	return nil
}

func validRole(role string) bool {
	for _, known := range Roles {
		if role == known {
			return true
		}
	}
	return false
}
