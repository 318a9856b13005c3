package appraisal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateDocument creates one appraisal document for a user and wires
// the given main tasks to it. The whole batch runs in one transaction:
// an unknown task id fails everything and nothing is persisted.
//
// The operation is idempotent per (user, task) pair — an existing
// Output is reused, never duplicated — but every invocation creates a
// fresh document and re-stamps all involved sub-tasks to it. A user
// therefore has exactly one live document at a time; generating again
// moves prior sub-tasks onto the new document.
func (s *Service) GenerateDocument(ctx context.Context, userID, departmentID, kind string, taskIDs []string) (*Document, error) {
	if len(taskIDs) == 0 {
		return nil, ErrNoTasks
	}
	if kind != DocumentKindIPCR && kind != DocumentKindOPCR {
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}

	record, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	period := record.CurrentPeriodID

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	document := Document{
		ID:           uuid.NewString(),
		Kind:         kind,
		UserID:       userID,
		DepartmentID: departmentID,
		Status:       StatusActive,
		Period:       period,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateDocumentTx(ctx, tx, document); err != nil {
		return nil, err
	}

	for _, taskID := range taskIDs {
		task, err := s.store.TaskForUpdateTx(ctx, tx, taskID)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", taskID, err)
		}

		output, err := s.store.OutputForUserTaskTx(ctx, tx, userID, taskID)
		if errors.Is(err, ErrOutputNotFound) {
			output = &Output{
				ID:        uuid.NewString(),
				UserID:    userID,
				TaskID:    taskID,
				CreatedAt: time.Now().UTC(),
			}
			if err := s.store.CreateOutputTx(ctx, tx, *output); err != nil {
				return nil, err
			}
			subTask := SubTask{
				ID:       uuid.NewString(),
				TaskID:   taskID,
				OutputID: output.ID,
				Status:   StatusActive,
				Period:   period,
			}
			if err := s.store.CreateSubTaskTx(ctx, tx, subTask); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}

		if err := s.store.StampSubTaskDocumentTx(ctx, tx, output.ID, document.ID); err != nil {
			return nil, err
		}
		if !task.Assigned {
			if err := s.store.MarkTaskAssignedTx(ctx, tx, taskID); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &document, nil
}

// ArchiveCategory archives the category and every main task under it,
// and hard-deletes those tasks' outputs and sub-tasks. Documents are
// left in place; their sub-task lists simply shrink.
func (s *Service) ArchiveCategory(ctx context.Context, categoryID string) error {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.store.ArchiveCategoryTx(ctx, tx, categoryID); err != nil {
		return err
	}
	taskIDs, err := s.store.ListTaskIDsByCategoryTx(ctx, tx, categoryID)
	if err != nil {
		return err
	}
	for _, taskID := range taskIDs {
		if err := s.store.ArchiveTaskTx(ctx, tx, taskID); err != nil {
			return err
		}
		if err := s.store.DeleteSubTasksByTaskTx(ctx, tx, taskID); err != nil {
			return err
		}
		if err := s.store.DeleteOutputsByTaskTx(ctx, tx, taskID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ArchiveTask archives a single main task and its sub-tasks and deletes
// its outputs, detaching users from the task.
func (s *Service) ArchiveTask(ctx context.Context, taskID string) error {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.store.ArchiveTaskTx(ctx, tx, taskID); err != nil {
		return err
	}
	if err := s.store.ArchiveSubTasksByTaskTx(ctx, tx, taskID); err != nil {
		return err
	}
	if err := s.store.DeleteOutputsByTaskTx(ctx, tx, taskID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
