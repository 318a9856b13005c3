package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateDepartment(ctx context.Context, dep Department) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO departments (id, name, manager_id, status, created_at)
    VALUES ($1,$2,NULLIF($3,'')::uuid,$4,$5)
  `, dep.ID, dep.Name, dep.ManagerID, dep.Status, dep.CreatedAt)
	return err
}

func (s *Store) GetDepartment(ctx context.Context, departmentID string) (*Department, error) {
	var dep Department
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(manager_id::text, ''), status, created_at
    FROM departments
    WHERE id = $1
  `, departmentID).Scan(&dep.ID, &dep.Name, &dep.ManagerID, &dep.Status, &dep.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDepartmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, COALESCE(manager_id::text, ''), status, created_at
    FROM departments
    WHERE status = 'active'
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var dep Department
		if err := rows.Scan(&dep.ID, &dep.Name, &dep.ManagerID, &dep.Status, &dep.CreatedAt); err != nil {
			return nil, err
		}
		departments = append(departments, dep)
	}
	return departments, rows.Err()
}

func (s *Store) UpdateDepartment(ctx context.Context, dep Department) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE departments
    SET name = $2, manager_id = NULLIF($3,'')::uuid, status = $4
    WHERE id = $1
  `, dep.ID, dep.Name, dep.ManagerID, dep.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}

func (s *Store) DepartmentHasUsers(ctx context.Context, departmentID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM users WHERE department_id = $1
  `, departmentID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) DeleteDepartment(ctx context.Context, departmentID string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM departments WHERE id = $1`, departmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}

func (s *Store) CreatePosition(ctx context.Context, pos Position) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO positions (id, title, core_weight, strategic_weight, support_weight, created_at)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, pos.ID, pos.Title, pos.CoreWeight, pos.StrategicWeight, pos.SupportWeight, pos.CreatedAt)
	return err
}

func (s *Store) GetPosition(ctx context.Context, positionID string) (*Position, error) {
	var pos Position
	err := s.DB.QueryRow(ctx, `
    SELECT id, title, core_weight, strategic_weight, support_weight, created_at
    FROM positions
    WHERE id = $1
  `, positionID).Scan(&pos.ID, &pos.Title, &pos.CoreWeight, &pos.StrategicWeight, &pos.SupportWeight, &pos.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPositionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func (s *Store) ListPositions(ctx context.Context) ([]Position, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, title, core_weight, strategic_weight, support_weight, created_at
    FROM positions
    ORDER BY title
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var pos Position
		if err := rows.Scan(&pos.ID, &pos.Title, &pos.CoreWeight, &pos.StrategicWeight, &pos.SupportWeight, &pos.CreatedAt); err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func (s *Store) UpdatePosition(ctx context.Context, pos Position) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE positions
    SET title = $2, core_weight = $3, strategic_weight = $4, support_weight = $5
    WHERE id = $1
  `, pos.ID, pos.Title, pos.CoreWeight, pos.StrategicWeight, pos.SupportWeight)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPositionNotFound
	}
	return nil
}

func (s *Store) PositionHasUsers(ctx context.Context, positionID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM users WHERE position_id = $1
  `, positionID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) DeletePosition(ctx context.Context, positionID string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM positions WHERE id = $1`, positionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPositionNotFound
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user User, passwordHash string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO users (id, first_name, last_name, email, password_hash, role, department_id, position_id, status, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,'')::uuid,NULLIF($8,'')::uuid,$9,$10)
  `, user.ID, user.FirstName, user.LastName, user.Email, passwordHash, user.Role,
		user.DepartmentID, user.PositionID, user.Status, user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	err := s.DB.QueryRow(ctx, `
    SELECT id, first_name, last_name, email, role,
           COALESCE(department_id::text, ''), COALESCE(position_id::text, ''),
           status, created_at
    FROM users
    WHERE id = $1
  `, userID).Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Role,
		&user.DepartmentID, &user.PositionID, &user.Status, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context, departmentID string) ([]User, error) {
	query := `
    SELECT id, first_name, last_name, email, role,
           COALESCE(department_id::text, ''), COALESCE(position_id::text, ''),
           status, created_at
    FROM users
    WHERE status = 'active'
  `
	args := []any{}
	if departmentID != "" {
		query += " AND department_id = $1"
		args = append(args, departmentID)
	}
	query += " ORDER BY last_name, first_name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Role,
			&user.DepartmentID, &user.PositionID, &user.Status, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, user User) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET first_name = $2, last_name = $3, email = $4, role = $5,
        department_id = NULLIF($6,'')::uuid, position_id = NULLIF($7,'')::uuid, status = $8
    WHERE id = $1
  `, user.ID, user.FirstName, user.LastName, user.Email, user.Role,
		user.DepartmentID, user.PositionID, user.Status)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
