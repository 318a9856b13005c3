package reports

import (
	"context"
	"sort"

	"ipcr/internal/domain/settings"
)

type Service struct {
	store    StoreAPI
	settings *settings.Service
	dir      string
}

// NewService wires the reporting store and settings. dir is where
// rendered PDF forms are written.
func NewService(store StoreAPI, settingsSvc *settings.Service, dir string) *Service {
	return &Service{store: store, settings: settingsSvc, dir: dir}
}

func (s *Service) rows(ctx context.Context, filter RowFilter) ([]ScoreRow, error) {
	record, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	filter.Period = record.CurrentPeriodID
	return s.store.ScoreRows(ctx, filter)
}

// TaskSummaries returns the per-task component averages for one
// category, ordered by task id. An unknown category id yields an empty
// slice, not an error.
func (s *Service) TaskSummaries(ctx context.Context, categoryID string) ([]TaskSummary, error) {
	rows, err := s.rows(ctx, RowFilter{CategoryID: categoryID})
	if err != nil {
		return nil, err
	}

	means := TaskMeans(rows)
	out := make([]TaskSummary, 0, len(means))
	for taskID, summary := range means {
		out = append(out, TaskSummary{TaskID: taskID, Summary: summary})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out, nil
}

// CategorySummary is the two-level rollup of one category.
func (s *Service) CategorySummary(ctx context.Context, categoryID string) (Summary, error) {
	rows, err := s.rows(ctx, RowFilter{CategoryID: categoryID})
	if err != nil {
		return Summary{}, err
	}
	return Rollup(rows), nil
}

// CategoryBreakdown rolls up every category with scored work in the
// current period.
func (s *Service) CategoryBreakdown(ctx context.Context) ([]CategorySummary, error) {
	rows, err := s.rows(ctx, RowFilter{})
	if err != nil {
		return nil, err
	}
	return RollupByCategory(rows), nil
}

// DepartmentSummary is the two-level rollup over one department's
// sub-tasks. A task shared across departments contributes only this
// department's own sub-tasks here.
func (s *Service) DepartmentSummary(ctx context.Context, departmentID string) (Summary, error) {
	rows, err := s.rows(ctx, RowFilter{DepartmentID: departmentID})
	if err != nil {
		return Summary{}, err
	}
	return Rollup(rows), nil
}

// DepartmentBreakdown is the department's rollup partitioned by
// category.
func (s *Service) DepartmentBreakdown(ctx context.Context, departmentID string) ([]CategorySummary, error) {
	rows, err := s.rows(ctx, RowFilter{DepartmentID: departmentID})
	if err != nil {
		return nil, err
	}
	return RollupByCategory(rows), nil
}

// Standings ranks departments by the flat grouped mean over their raw
// sub-task rows. This is a different algorithm from DepartmentSummary
// and the two can disagree for the same data; both stay because the
// published reports expose both numbers.
func (s *Service) Standings(ctx context.Context) ([]DepartmentStanding, error) {
	rows, err := s.rows(ctx, RowFilter{})
	if err != nil {
		return nil, err
	}
	return DepartmentStandings(rows), nil
}

func (s *Service) TopDepartment(ctx context.Context) (DepartmentStanding, error) {
	rows, err := s.rows(ctx, RowFilter{})
	if err != nil {
		return DepartmentStanding{}, err
	}
	return TopDepartment(rows), nil
}

// FinalRatingResult is a user's weighted overall score with its
// adjectival label from the configured thresholds.
type FinalRatingResult struct {
	Rating     float64           `json:"rating"`
	Label      string            `json:"label"`
	ByFunction []CategorySummary `json:"byFunction"`
}

// UserFinalRating rolls the user's work up per function type, weights
// the per-type overalls with the user's position coefficients and
// labels the result against the rating thresholds.
func (s *Service) UserFinalRating(ctx context.Context, userID string) (*FinalRatingResult, error) {
	weights, err := s.store.PositionWeights(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.rows(ctx, RowFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	byFunction := map[string][]ScoreRow{}
	for _, row := range rows {
		byFunction[row.FunctionType] = append(byFunction[row.FunctionType], row)
	}
	overalls := make(map[string]float64, len(byFunction))
	for functionType, partition := range byFunction {
		overalls[functionType] = Rollup(partition).OverallAverage
	}

	record, err := s.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	rating := FinalRating(overalls, weights)
	return &FinalRatingResult{
		Rating:     rating,
		Label:      record.RatingLabel(rating),
		ByFunction: RollupByCategory(rows),
	}, nil
}
