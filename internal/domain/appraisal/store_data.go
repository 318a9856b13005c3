package appraisal

import (
	"context"
	"errors"
	"fmt"

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

type pgxTx struct {
	tx pgx.Tx
}

func (t pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func (s *Store) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgxTx{tx: tx}, nil
}

func unwrapTx(tx Tx) (pgx.Tx, error) {
	wrapped, ok := tx.(pgxTx)
	if !ok {
		return nil, fmt.Errorf("unexpected transaction type %T", tx)
	}
	return wrapped.tx, nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Store) CreateCategory(ctx context.Context, category Category) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO categories (id, name, function_type, priority, status, period, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, category.ID, category.Name, category.FunctionType, category.Priority,
		category.Status, category.Period, category.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateCategory
	}
	return err
}

func (s *Store) GetCategory(ctx context.Context, categoryID string) (*Category, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, name, function_type, priority, status, period, created_at
    FROM categories
    WHERE id = $1
  `, categoryID)

	var category Category
	err := row.Scan(&category.ID, &category.Name, &category.FunctionType,
		&category.Priority, &category.Status, &category.Period, &category.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Store) ListCategories(ctx context.Context, status, period string) ([]Category, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, function_type, priority, status, period, created_at
    FROM categories
    WHERE status = $1 AND period = $2
    ORDER BY priority DESC, name
  `, status, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var category Category
		if err := rows.Scan(&category.ID, &category.Name, &category.FunctionType,
			&category.Priority, &category.Status, &category.Period, &category.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (s *Store) UpdateCategory(ctx context.Context, category Category) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE categories
    SET name = $2, function_type = $3, priority = $4, status = $5
    WHERE id = $1
  `, category.ID, category.Name, category.FunctionType, category.Priority, category.Status)
	if isUniqueViolation(err) {
		return ErrDuplicateCategory
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *Store) CreateTask(ctx context.Context, task MainTask) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO main_tasks
      (id, category_id, department_id, title, target_description, time_description,
       modification_description, assigned, status, period, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
  `, task.ID, task.CategoryID, nullIfEmpty(task.DepartmentID), task.Title,
		task.TargetDescription, task.TimeDescription, task.ModificationDescription,
		task.Assigned, task.Status, task.Period, task.CreatedAt)
	return err
}

const taskColumns = `
    id, category_id, COALESCE(department_id::text, ''), title, target_description,
    time_description, modification_description, assigned, status, period, created_at`

func scanTask(row pgx.Row) (*MainTask, error) {
	var task MainTask
	err := row.Scan(&task.ID, &task.CategoryID, &task.DepartmentID, &task.Title,
		&task.TargetDescription, &task.TimeDescription, &task.ModificationDescription,
		&task.Assigned, &task.Status, &task.Period, &task.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Store) GetTask(ctx context.Context, taskID string) (*MainTask, error) {
	return scanTask(s.DB.QueryRow(ctx, `SELECT`+taskColumns+` FROM main_tasks WHERE id = $1`, taskID))
}

func (s *Store) ListTasks(ctx context.Context, categoryID, status, period string) ([]MainTask, error) {
	query := `SELECT` + taskColumns + ` FROM main_tasks WHERE status = $1 AND period = $2`
	args := []any{status, period}
	if categoryID != "" {
		query += " AND category_id = $3"
		args = append(args, categoryID)
	}
	query += " ORDER BY created_at"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]MainTask, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(ctx context.Context, task MainTask) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE main_tasks
    SET category_id = $2, department_id = $3, title = $4, target_description = $5,
        time_description = $6, modification_description = $7, status = $8
    WHERE id = $1
  `, task.ID, task.CategoryID, nullIfEmpty(task.DepartmentID), task.Title,
		task.TargetDescription, task.TimeDescription, task.ModificationDescription, task.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

const subTaskColumns = `
    id, task_id, output_id, COALESCE(document_id::text, ''), target_quantity, actual_quantity,
    target_time, actual_time, target_time_description, actual_time_description,
    target_modification, actual_modification, quantity, efficiency, timeliness,
    average, status, period`

func scanSubTask(row pgx.Row) (*SubTask, error) {
	var st SubTask
	err := row.Scan(&st.ID, &st.TaskID, &st.OutputID, &st.DocumentID,
		&st.TargetQuantity, &st.ActualQuantity, &st.TargetTime, &st.ActualTime,
		&st.TargetTimeDescription, &st.ActualTimeDescription,
		&st.TargetModification, &st.ActualModification,
		&st.Quantity, &st.Efficiency, &st.Timeliness, &st.Average,
		&st.Status, &st.Period)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSubTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) GetSubTask(ctx context.Context, subTaskID string) (*SubTask, error) {
	return scanSubTask(s.DB.QueryRow(ctx, `SELECT`+subTaskColumns+` FROM sub_tasks WHERE id = $1`, subTaskID))
}

func (s *Store) UpdateSubTask(ctx context.Context, st SubTask) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE sub_tasks
    SET target_quantity = $2, actual_quantity = $3, target_time = $4, actual_time = $5,
        target_time_description = $6, actual_time_description = $7,
        target_modification = $8, actual_modification = $9,
        quantity = $10, efficiency = $11, timeliness = $12, average = $13, status = $14
    WHERE id = $1
  `, st.ID, st.TargetQuantity, st.ActualQuantity, st.TargetTime, st.ActualTime,
		st.TargetTimeDescription, st.ActualTimeDescription,
		st.TargetModification, st.ActualModification,
		st.Quantity, st.Efficiency, st.Timeliness, st.Average, st.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubTaskNotFound
	}
	return nil
}

func (s *Store) listSubTasks(ctx context.Context, where string, arg any) ([]SubTask, error) {
	rows, err := s.DB.Query(ctx, `SELECT`+subTaskColumns+` FROM sub_tasks WHERE `+where+` ORDER BY id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subTasks := make([]SubTask, 0)
	for rows.Next() {
		st, err := scanSubTask(rows)
		if err != nil {
			return nil, err
		}
		subTasks = append(subTasks, *st)
	}
	return subTasks, rows.Err()
}

func (s *Store) ListSubTasksByDocument(ctx context.Context, documentID string) ([]SubTask, error) {
	return s.listSubTasks(ctx, "document_id = $1", documentID)
}

func (s *Store) ListSubTasksByTask(ctx context.Context, taskID string) ([]SubTask, error) {
	return s.listSubTasks(ctx, "task_id = $1", taskID)
}

const documentColumns = `
    id, kind, COALESCE(user_id::text, ''), COALESCE(department_id::text, ''),
    COALESCE(reviewed_by, ''), COALESCE(approved_by, ''), COALESCE(discussed_with, ''),
    COALESCE(assessed_by, ''), COALESCE(final_rating_by, ''), COALESCE(confirmed_by, ''),
    status, period, created_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var doc Document
	err := row.Scan(&doc.ID, &doc.Kind, &doc.UserID, &doc.DepartmentID,
		&doc.ReviewedBy, &doc.ApprovedBy, &doc.DiscussedWith,
		&doc.AssessedBy, &doc.FinalRatingBy, &doc.ConfirmedBy,
		&doc.Status, &doc.Period, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) GetDocument(ctx context.Context, documentID string) (*Document, error) {
	return scanDocument(s.DB.QueryRow(ctx, `SELECT`+documentColumns+` FROM appraisal_documents WHERE id = $1`, documentID))
}

func (s *Store) ListDocuments(ctx context.Context, userID, departmentID, period string) ([]Document, error) {
	query := `SELECT` + documentColumns + ` FROM appraisal_documents WHERE period = $1`
	args := []any{period}
	if userID != "" {
		args = append(args, userID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if departmentID != "" {
		args = append(args, departmentID)
		query += fmt.Sprintf(" AND department_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	documents := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, *doc)
	}
	return documents, rows.Err()
}

// signoffColumns whitelists the updatable sign-off columns; field names
// arrive from the service layer, never raw from a request.
var signoffColumns = map[string]string{
	SignoffReviewedBy:    "reviewed_by",
	SignoffApprovedBy:    "approved_by",
	SignoffDiscussedWith: "discussed_with",
	SignoffAssessedBy:    "assessed_by",
	SignoffFinalRatingBy: "final_rating_by",
	SignoffConfirmedBy:   "confirmed_by",
}

func (s *Store) UpdateDocumentSignoff(ctx context.Context, documentID, field, name string) error {
	column, ok := signoffColumns[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSignoff, field)
	}
	tag, err := s.DB.Exec(ctx,
		fmt.Sprintf("UPDATE appraisal_documents SET %s = $2 WHERE id = $1", column),
		documentID, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *Store) TaskForUpdateTx(ctx context.Context, tx Tx, taskID string) (*MainTask, error) {
	raw, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	return scanTask(raw.QueryRow(ctx, `SELECT`+taskColumns+` FROM main_tasks WHERE id = $1 FOR UPDATE`, taskID))
}

func (s *Store) CreateDocumentTx(ctx context.Context, tx Tx, doc Document) error {
	raw, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	_, err = raw.Exec(ctx, `
    INSERT INTO appraisal_documents (id, kind, user_id, department_id, status, period, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, doc.ID, doc.Kind, nullIfEmpty(doc.UserID), nullIfEmpty(doc.DepartmentID),
		doc.Status, doc.Period, doc.CreatedAt)
	return err
}

func (s *Store) OutputForUserTaskTx(ctx context.Context, tx Tx, userID, taskID string) (*Output, error) {
	raw, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	row := raw.QueryRow(ctx, `
    SELECT id, user_id, task_id, created_at
    FROM outputs
    WHERE user_id = $1 AND task_id = $2
  `, userID, taskID)

	var output Output
	err = row.Scan(&output.ID, &output.UserID, &output.TaskID, &output.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOutputNotFound
	}
	if err != nil {
		return nil, err
	}
	return &output, nil
}

func (s *Store) CreateOutputTx(ctx context.Context, tx Tx, output Output) error {
	raw, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	_, err = raw.Exec(ctx, `
    INSERT INTO outputs (id, user_id, task_id, created_at)
    VALUES ($1,$2,$3,$4)
  `, output.ID, output.UserID, output.TaskID, output.CreatedAt)
	return err
}

func (s *Store) CreateSubTaskTx(ctx context.Context, tx Tx, st SubTask) error {
	raw, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	_, err = raw.Exec(ctx, `
    INSERT INTO sub_tasks
      (id, task_id, output_id, document_id, target_quantity, actual_quantity,
       target_time, actual_time, target_time_description, actual_time_description,
       target_modification, actual_modification, quantity, efficiency, timeliness,
       average, status, period)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
  `, st.ID, st.TaskID, st.OutputID, nullIfEmpty(st.DocumentID),
		st.TargetQuantity, st.ActualQuantity, st.TargetTime, st.ActualTime,
		st.TargetTimeDescription, st.ActualTimeDescription,
		st.TargetModification, st.ActualModification,
		st.Quantity, st.Efficiency, st.Timeliness, st.Average, st.Status, st.Period)
	return err
}

func (s *Store) StampSubTaskDocumentTx(ctx context.Context, tx Tx, outputID, documentID string) error {
	raw, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	_, err = raw.Exec(ctx, `UPDATE sub_tasks SET document_id = $2 WHERE output_id = $1`, outputID, documentID)
	return err
}

func (s *Store) MarkTaskAssignedTx(ctx context.Context, tx Tx, taskID string) error {
	raw, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	_, err = raw.Exec(ctx, `UPDATE main_tasks SET assigned = TRUE WHERE id = $1`, taskID)
	return err
}

func (s *Store) ArchiveCategoryTx(ctx context.Context, tx Tx, categoryID string) error {
	raw, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	_, err = raw.Exec(ctx, `UPDATE categories SET status = $2 WHERE id = $1`, categoryID, StatusArchived)
	return err
}

func (s *Store) ListTaskIDsByCategoryTx(ctx context.Context, tx Tx, categoryID string) ([]string, error) {
	raw, err := unwrapTx(tx)
	if err != nil {
		return nil, err
	}
	rows, err := raw.Query(ctx, `SELECT id FROM main_tasks WHERE category_id = $1`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var taskIDs []string
	for rows.Next() {
		var taskID string
		if err := rows.Scan(&taskID); err != nil {
			return nil, err
		}
		taskIDs = append(taskIDs, taskID)
	}
	return taskIDs, rows.Err()
}

func (s *Store) ArchiveTaskTx(ctx context.Context, tx Tx, taskID string) error {
	raw, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	_, err = raw.Exec(ctx, `UPDATE main_tasks SET status = $2, assigned = FALSE WHERE id = $1`, taskID, StatusArchived)
	return err
}

func (s *Store) ArchiveSubTasksByTaskTx(ctx context.Context, tx Tx, taskID string) error {
	raw, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	_, err = raw.Exec(ctx, `UPDATE sub_tasks SET status = $2 WHERE task_id = $1`, taskID, StatusArchived)
	return err
}

func (s *Store) DeleteSubTasksByTaskTx(ctx context.Context, tx Tx, taskID string) error {
	raw, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	_, err = raw.Exec(ctx, `DELETE FROM sub_tasks WHERE task_id = $1`, taskID)
	return err
}

func (s *Store) DeleteOutputsByTaskTx(ctx context.Context, tx Tx, taskID string) error {
	raw, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	_, err = raw.Exec(ctx, `DELETE FROM outputs WHERE task_id = $1`, taskID)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
