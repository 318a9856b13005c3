package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// ScoreRows returns the scored sub-tasks visible to aggregation:
// active sub-task, active parent document, requested period.
func (s *Store) ScoreRows(ctx context.Context, filter RowFilter) ([]ScoreRow, error) {
	query := `
    SELECT st.id, st.task_id, t.category_id, c.function_type,
           COALESCE(u.department_id::text, ''), o.user_id,
           st.quantity, st.efficiency, st.timeliness, st.average
    FROM sub_tasks st
    JOIN outputs o ON st.output_id = o.id
    JOIN main_tasks t ON st.task_id = t.id
    JOIN categories c ON t.category_id = c.id
    JOIN appraisal_documents d ON st.document_id = d.id
    JOIN users u ON o.user_id = u.id
    WHERE st.status = 'active' AND d.status = 'active' AND st.period = $1
  `
	args := []any{filter.Period}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND t.category_id = $%d", len(args))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		query += fmt.Sprintf(" AND u.department_id = $%d", len(args))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND o.user_id = $%d", len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var r ScoreRow
		if err := rows.Scan(&r.SubTaskID, &r.TaskID, &r.CategoryID, &r.FunctionType,
			&r.DepartmentID, &r.UserID,
			&r.Quantity, &r.Efficiency, &r.Timeliness, &r.Average); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) PositionWeights(ctx context.Context, userID string) (Weights, error) {
	var w Weights
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(p.core_weight, 0), COALESCE(p.strategic_weight, 0), COALESCE(p.support_weight, 0)
    FROM users u
    LEFT JOIN positions p ON u.position_id = p.id
    WHERE u.id = $1
  `, userID).Scan(&w.Core, &w.Strategic, &w.Support)
	if errors.Is(err, pgx.ErrNoRows) {
		return Weights{}, ErrUserNotFound
	}
	if err != nil {
		return Weights{}, err
	}
	return w, nil
}

// DocumentReport loads one appraisal document with its lines for
// rendering. Lines are ordered by function type then task title so the
// form groups cleanly.
func (s *Store) DocumentReport(ctx context.Context, documentID string) (*DocumentReport, error) {
	var report DocumentReport
	err := s.DB.QueryRow(ctx, `
    SELECT d.id, d.kind, d.period,
           COALESCE(u.first_name || ' ' || u.last_name, ''),
           COALESCE(dep.name, ''),
           COALESCE(d.reviewed_by, ''), COALESCE(d.approved_by, ''),
           COALESCE(d.discussed_with, ''), COALESCE(d.assessed_by, ''),
           COALESCE(d.final_rating_by, ''), COALESCE(d.confirmed_by, ''),
           d.created_at
    FROM appraisal_documents d
    LEFT JOIN users u ON d.user_id = u.id
    LEFT JOIN departments dep ON d.department_id = dep.id
    WHERE d.id = $1
  `, documentID).Scan(&report.DocumentID, &report.Kind, &report.Period,
		&report.UserName, &report.DepartmentName,
		&report.ReviewedBy, &report.ApprovedBy,
		&report.DiscussedWith, &report.AssessedBy,
		&report.FinalRatingBy, &report.ConfirmedBy,
		&report.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT c.function_type, c.name, t.title, COALESCE(t.target_description, ''),
           st.target_quantity, st.actual_quantity,
           st.quantity, st.efficiency, st.timeliness, st.average
    FROM sub_tasks st
    JOIN main_tasks t ON st.task_id = t.id
    JOIN categories c ON t.category_id = c.id
    WHERE st.document_id = $1 AND st.status = 'active'
    ORDER BY c.function_type, t.title
  `, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line ReportLine
		if err := rows.Scan(&line.FunctionType, &line.CategoryName, &line.TaskTitle,
			&line.TargetDescription,
			&line.TargetQuantity, &line.ActualQuantity,
			&line.Quantity, &line.Efficiency, &line.Timeliness, &line.Average); err != nil {
			return nil, err
		}
		report.Lines = append(report.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &report, nil
}
