package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// GetOrCreate returns the settings record, creating the default one on
// first access. A lost creation race falls through to a re-read, so
// concurrent first callers all observe the same single record.
func (s *Service) GetOrCreate(ctx context.Context) (*Settings, error) {
	record, err := s.store.Get(ctx)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	fresh := Settings{
		ID:               SentinelID,
		RatingThresholds: defaultThresholds(),
		CurrentPeriodID:  NewPeriodID(now),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Insert(ctx, fresh); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return s.store.Get(ctx)
		}
		return nil, err
	}
	return &fresh, nil
}

// Update merges only the fields present in the patch onto the current
// record. Unspecified fields keep their prior values.
func (s *Service) Update(ctx context.Context, patch Patch) (*Settings, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	record, err := s.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	if patch.RatingThresholds != nil {
		record.RatingThresholds = patch.RatingThresholds
	}
	if patch.QuantityFormula != nil {
		record.QuantityFormula = patch.QuantityFormula
	}
	if patch.EfficiencyFormula != nil {
		record.EfficiencyFormula = patch.EfficiencyFormula
	}
	if patch.TimelinessFormula != nil {
		record.TimelinessFormula = patch.TimelinessFormula
	}
	if patch.EnableFormula != nil {
		record.EnableFormula = *patch.EnableFormula
	}
	if patch.CurrentPeriodID != nil {
		record.CurrentPeriodID = *patch.CurrentPeriodID
	}
	if patch.Phases != nil {
		record.Phases = patch.Phases
	}
	if patch.AlertThresholds != nil {
		record.AlertThresholds = patch.AlertThresholds
	}
	if patch.KPIDefinitions != nil {
		record.KPIDefinitions = patch.KPIDefinitions
	}
	record.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, *record); err != nil {
		return nil, err
	}
	return record, nil
}

// ChangePeriod opens a new appraisal cycle. Prior-period sub-tasks keep
// their stored period tag and remain queryable; nothing is migrated.
func (s *Service) ChangePeriod(ctx context.Context) (*Settings, error) {
	period := NewPeriodID(time.Now().UTC())
	return s.Update(ctx, Patch{CurrentPeriodID: &period})
}

// CurrentPhases reports the active phase names for the given day.
func (s *Service) CurrentPhases(ctx context.Context, today time.Time) ([]string, error) {
	record, err := s.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	return record.CurrentPhases(today), nil
}

func validatePatch(patch Patch) error {
	if patch.QuantityFormula != nil {
		if err := patch.QuantityFormula.Validate(); err != nil {
			return fmt.Errorf("quantity formula: %w", err)
		}
	}
	if patch.EfficiencyFormula != nil {
		if err := patch.EfficiencyFormula.Validate(); err != nil {
			return fmt.Errorf("efficiency formula: %w", err)
		}
	}
	if patch.TimelinessFormula != nil {
		if err := patch.TimelinessFormula.Validate(); err != nil {
			return fmt.Errorf("timeliness formula: %w", err)
		}
	}
	for _, phase := range patch.Phases {
		switch phase.Name {
		case PhasePlanning, PhaseMonitoring, PhaseRating:
		default:
			return fmt.Errorf("unknown phase %q", phase.Name)
		}
		if phase.EndDate.Before(phase.StartDate) {
			return fmt.Errorf("phase %s ends before it starts", phase.Name)
		}
	}
	if patch.CurrentPeriodID != nil && strings.TrimSpace(*patch.CurrentPeriodID) == "" {
		return fmt.Errorf("current period id must not be blank")
	}
	return nil
}

// NewPeriodID builds a period identifier: a human-readable cycle tag
// plus a random suffix so concurrent creations never collide.
func NewPeriodID(now time.Time) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s-%s", now.Format("2006-Jan"), suffix)
}
