package reports

import (
	"testing"

	"ipcr/internal/domain/appraisal"
)

func row(taskID, categoryID, departmentID string, score float64) ScoreRow {
	return ScoreRow{
		TaskID:       taskID,
		CategoryID:   categoryID,
		FunctionType: appraisal.FunctionTypeCore,
		DepartmentID: departmentID,
		Quantity:     score,
		Efficiency:   score,
		Timeliness:   score,
		Average:      score,
	}
}

func TestRollupEqualWeightPerTask(t *testing.T) {
	// One task with a single sub-task at 5, another with ten sub-tasks
	// at 1. Tasks weigh equally, so the rollup is 3.00, not the flat
	// per-sub-task mean of about 1.36.
	rows := []ScoreRow{row("task-a", "cat", "dept", 5)}
	for i := 0; i < 10; i++ {
		rows = append(rows, row("task-b", "cat", "dept", 1))
	}

	got := Rollup(rows)
	if got.OverallAverage != 3.00 {
		t.Fatalf("expected overall 3.00, got %v", got.OverallAverage)
	}
	if got.Quantity != 3.00 || got.Efficiency != 3.00 || got.Timeliness != 3.00 {
		t.Fatalf("unexpected component averages: %+v", got)
	}

	flat := FlatSummary(rows)
	if flat.OverallAverage != 1.36 {
		t.Fatalf("expected flat mean 1.36, got %v", flat.OverallAverage)
	}
}

func TestRollupExcludesEmptyTasks(t *testing.T) {
	// A task with zero valid sub-tasks never shows up in the rows, so
	// it must not drag the category mean toward zero.
	rows := []ScoreRow{
		row("task-a", "cat", "dept", 4),
		row("task-b", "cat", "dept", 2),
	}

	got := Rollup(rows)
	if got.OverallAverage != 3.00 {
		t.Fatalf("expected mean of tasks with data only, got %v", got.OverallAverage)
	}

	tasks := TaskMeans(rows)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 task entries, got %d", len(tasks))
	}
	if _, ok := tasks["task-empty"]; ok {
		t.Fatal("task without rows must not appear")
	}
}

func TestRollupZeroRows(t *testing.T) {
	got := Rollup(nil)
	if got != (Summary{}) {
		t.Fatalf("expected all-zero summary, got %+v", got)
	}
	if flat := FlatSummary(nil); flat != (Summary{}) {
		t.Fatalf("expected all-zero flat summary, got %+v", flat)
	}
	if top := TopDepartment(nil); top != (DepartmentStanding{}) {
		t.Fatalf("expected empty standing, got %+v", top)
	}
}

func TestTaskMeansComponentAverages(t *testing.T) {
	rows := []ScoreRow{
		{TaskID: "t", Quantity: 5, Efficiency: 3, Timeliness: 4, Average: 4},
		{TaskID: "t", Quantity: 3, Efficiency: 3, Timeliness: 2, Average: 2.67},
	}
	got := TaskMeans(rows)["t"]
	if got.Quantity != 4.00 || got.Efficiency != 3.00 || got.Timeliness != 3.00 {
		t.Fatalf("unexpected component means: %+v", got)
	}
	if got.OverallAverage != 3.33 {
		t.Fatalf("expected overall 3.33, got %v", got.OverallAverage)
	}
}

func TestRollupByCategoryPartitions(t *testing.T) {
	rows := []ScoreRow{
		row("task-a", "cat-1", "dept", 4),
		row("task-b", "cat-2", "dept", 2),
	}
	got := RollupByCategory(rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got))
	}
	if got[0].CategoryID != "cat-1" || got[0].Summary.OverallAverage != 4.00 {
		t.Fatalf("unexpected first category: %+v", got[0])
	}
	if got[1].CategoryID != "cat-2" || got[1].Summary.OverallAverage != 2.00 {
		t.Fatalf("unexpected second category: %+v", got[1])
	}
}

func TestDepartmentStandingsFlatGroupedMean(t *testing.T) {
	// Same data where the two-level and flat methods diverge: the flat
	// grouped mean ranks departments on raw sub-task rows.
	rows := []ScoreRow{row("task-a", "cat", "dept-1", 5)}
	for i := 0; i < 10; i++ {
		rows = append(rows, row("task-b", "cat", "dept-1", 1))
	}
	rows = append(rows,
		row("task-c", "cat", "dept-2", 2),
		row("task-d", "cat", "dept-2", 2),
	)

	standings := DepartmentStandings(rows)
	if len(standings) != 2 {
		t.Fatalf("expected 2 standings, got %d", len(standings))
	}
	if standings[0].DepartmentID != "dept-2" {
		t.Fatalf("expected dept-2 on top via flat mean, got %+v", standings[0])
	}
	if standings[0].Summary.OverallAverage != 2.00 {
		t.Fatalf("unexpected top mean: %v", standings[0].Summary.OverallAverage)
	}
	if standings[1].Summary.OverallAverage != 1.36 {
		t.Fatalf("unexpected runner-up mean: %v", standings[1].Summary.OverallAverage)
	}

	// The two-level rollup of dept-1 would have won; the operations are
	// deliberately distinct.
	if dept1 := Rollup(rows[:11]); dept1.OverallAverage != 3.00 {
		t.Fatalf("two-level rollup changed: %v", dept1.OverallAverage)
	}

	if top := TopDepartment(rows); top.DepartmentID != "dept-2" {
		t.Fatalf("expected top dept-2, got %+v", top)
	}
}

func TestFinalRatingWeighted(t *testing.T) {
	weights := Weights{Core: 0.6, Strategic: 0.2, Support: 0.2}

	byFunction := map[string]float64{
		appraisal.FunctionTypeCore:      4.0,
		appraisal.FunctionTypeStrategic: 3.0,
		appraisal.FunctionTypeSupport:   5.0,
	}
	if got := FinalRating(byFunction, weights); got != 4.00 {
		t.Fatalf("expected 4.00, got %v", got)
	}

	// Missing function types drop out of the denominator.
	partial := map[string]float64{appraisal.FunctionTypeCore: 4.0}
	if got := FinalRating(partial, weights); got != 4.00 {
		t.Fatalf("expected 4.00 with core only, got %v", got)
	}

	if got := FinalRating(nil, weights); got != 0 {
		t.Fatalf("expected 0 for no scored work, got %v", got)
	}
	if got := FinalRating(byFunction, Weights{}); got != 0 {
		t.Fatalf("expected 0 for zero weights, got %v", got)
	}
}
