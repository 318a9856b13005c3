package appraisal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ipcr/internal/domain/rating"
	"ipcr/internal/domain/settings"
)

type Service struct {
	store    StoreAPI
	settings *settings.Service
}

func NewService(store StoreAPI, settingsSvc *settings.Service) *Service {
	return &Service{store: store, settings: settingsSvc}
}

func (s *Service) CreateCategory(ctx context.Context, name, functionType string, priority int) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name is required")
	}
	if !validFunctionType(functionType) {
		return nil, fmt.Errorf("unknown function type %q", functionType)
	}

	cfg, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	category := Category{
		ID:           uuid.NewString(),
		Name:         name,
		FunctionType: functionType,
		Priority:     priority,
		Status:       StatusActive,
		Period:       cfg.CurrentPeriodID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *Service) GetCategory(ctx context.Context, categoryID string) (*Category, error) {
	return s.store.GetCategory(ctx, categoryID)
}

// ListCategories returns active categories for the current period,
// ordered by descending priority.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	cfg, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListCategories(ctx, StatusActive, cfg.CurrentPeriodID)
}

func (s *Service) UpdateCategory(ctx context.Context, category Category) error {
	if strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("category name is required")
	}
	if !validFunctionType(category.FunctionType) {
		return fmt.Errorf("unknown function type %q", category.FunctionType)
	}
	return s.store.UpdateCategory(ctx, category)
}

func (s *Service) CreateTask(ctx context.Context, task MainTask) (*MainTask, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("task title is required")
	}
	if _, err := s.store.GetCategory(ctx, task.CategoryID); err != nil {
		return nil, err
	}

	cfg, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	task.ID = uuid.NewString()
	task.Assigned = false
	task.Status = StatusActive
	task.Period = cfg.CurrentPeriodID
	task.CreatedAt = time.Now().UTC()
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Service) GetTask(ctx context.Context, taskID string) (*MainTask, error) {
	return s.store.GetTask(ctx, taskID)
}

func (s *Service) ListTasks(ctx context.Context, categoryID string) ([]MainTask, error) {
	cfg, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListTasks(ctx, categoryID, StatusActive, cfg.CurrentPeriodID)
}

func (s *Service) UpdateTask(ctx context.Context, task MainTask) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("task title is required")
	}
	return s.store.UpdateTask(ctx, task)
}

func (s *Service) GetSubTask(ctx context.Context, subTaskID string) (*SubTask, error) {
	return s.store.GetSubTask(ctx, subTaskID)
}

func (s *Service) GetDocument(ctx context.Context, documentID string) (*Document, error) {
	return s.store.GetDocument(ctx, documentID)
}

func (s *Service) ListDocuments(ctx context.Context, userID, departmentID string) ([]Document, error) {
	cfg, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, userID, departmentID, cfg.CurrentPeriodID)
}

func (s *Service) DocumentSubTasks(ctx context.Context, documentID string) ([]SubTask, error) {
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.store.ListSubTasksByDocument(ctx, documentID)
}

// SetTargets records the planned values on a sub-task and recomputes
// scores against any already-reported actuals. Settings are read at
// call time so threshold and formula edits take effect immediately.
func (s *Service) SetTargets(ctx context.Context, subTaskID string, targets Targets) (*SubTask, []string, error) {
	subTask, err := s.store.GetSubTask(ctx, subTaskID)
	if err != nil {
		return nil, nil, err
	}
	subTask.TargetQuantity = targets.Quantity
	subTask.TargetTime = targets.Time
	subTask.TargetTimeDescription = targets.TimeDescription
	subTask.TargetModification = targets.Modification
	return s.rescore(ctx, subTask)
}

// RecordAccomplishment stores the reported actuals and recomputes the
// three component scores plus the average.
func (s *Service) RecordAccomplishment(ctx context.Context, subTaskID string, actual Accomplishment) (*SubTask, []string, error) {
	subTask, err := s.store.GetSubTask(ctx, subTaskID)
	if err != nil {
		return nil, nil, err
	}
	subTask.ActualQuantity = actual.Quantity
	subTask.ActualTime = actual.Time
	subTask.ActualTimeDescription = actual.TimeDescription
	subTask.ActualModification = actual.Modification
	return s.rescore(ctx, subTask)
}

// rescore recomputes scores with live settings. Formula configuration
// problems degrade to the fixed rules and come back as warnings; the
// write itself still happens.
func (s *Service) rescore(ctx context.Context, subTask *SubTask) (*SubTask, []string, error) {
	record, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, nil, err
	}
	cfg := record.RatingConfig()

	var warnings []string
	score := func(metric rating.Metric, target, actual float64) int {
		value, err := cfg.Score(metric, target, actual)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", metric, err))
		}
		return value
	}

	subTask.Quantity = score(rating.MetricQuantity, subTask.TargetQuantity, subTask.ActualQuantity)
	subTask.Efficiency = score(rating.MetricEfficiency, subTask.TargetModification, subTask.ActualModification)
	subTask.Timeliness = score(rating.MetricTimeliness, subTask.TargetTime, subTask.ActualTime)
	subTask.Average = rating.Average(subTask.Quantity, subTask.Efficiency, subTask.Timeliness)

	if err := s.store.UpdateSubTask(ctx, *subTask); err != nil {
		return nil, nil, err
	}
	return subTask, warnings, nil
}

// Signoff records a free-text name on one approval-chain field. Fields
// may be set in any order and overwritten; the workflow deliberately
// stays a loose record of signatures.
func (s *Service) Signoff(ctx context.Context, documentID, field, name string) (*Document, error) {
	if !validSignoffField(field) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSignoff, field)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("sign-off name is required")
	}
	if err := s.store.UpdateDocumentSignoff(ctx, documentID, field, name); err != nil {
		return nil, err
	}
	return s.store.GetDocument(ctx, documentID)
}

func validFunctionType(functionType string) bool {
	for _, known := range FunctionTypes {
		if functionType == known {
			return true
		}
	}
	return false
}

func validSignoffField(field string) bool {
	for _, known := range SignoffFields {
		if field == known {
			return true
		}
	}
	return false
}
