package reports

import (
	"sort"

	"ipcr/internal/domain/appraisal"
	"ipcr/internal/domain/rating"
)

// TaskMeans computes per-task component averages over the rows of each
// main task. A task present in the result always has at least one row;
// tasks with no valid sub-tasks simply never appear.
func TaskMeans(rows []ScoreRow) map[string]Summary {
	type acc struct {
		quantity   float64
		efficiency float64
		timeliness float64
		count      int
	}
	byTask := map[string]*acc{}
	for _, row := range rows {
		a := byTask[row.TaskID]
		if a == nil {
			a = &acc{}
			byTask[row.TaskID] = a
		}
		a.quantity += row.Quantity
		a.efficiency += row.Efficiency
		a.timeliness += row.Timeliness
		a.count++
	}

	out := make(map[string]Summary, len(byTask))
	for taskID, a := range byTask {
		n := float64(a.count)
		quantity := a.quantity / n
		efficiency := a.efficiency / n
		timeliness := a.timeliness / n
		out[taskID] = Summary{
			Quantity:       rating.Round2(quantity),
			Efficiency:     rating.Round2(efficiency),
			Timeliness:     rating.Round2(timeliness),
			OverallAverage: rating.Round2((quantity + efficiency + timeliness) / 3),
		}
	}
	return out
}

// Rollup is the two-level average: first a mean per main task, then a
// mean across tasks with equal weight per task. A task with one
// sub-task counts the same as a task with fifty.
func Rollup(rows []ScoreRow) Summary {
	tasks := TaskMeans(rows)
	if len(tasks) == 0 {
		return Summary{}
	}

	var quantity, efficiency, timeliness, overall float64
	for _, task := range tasks {
		quantity += task.Quantity
		efficiency += task.Efficiency
		timeliness += task.Timeliness
		overall += task.OverallAverage
	}
	n := float64(len(tasks))
	return Summary{
		Quantity:       rating.Round2(quantity / n),
		Efficiency:     rating.Round2(efficiency / n),
		Timeliness:     rating.Round2(timeliness / n),
		OverallAverage: rating.Round2(overall / n),
	}
}

// RollupByCategory partitions rows by category and rolls each partition
// up with the two-level average.
func RollupByCategory(rows []ScoreRow) []CategorySummary {
	partitions := map[string][]ScoreRow{}
	functionTypes := map[string]string{}
	for _, row := range rows {
		partitions[row.CategoryID] = append(partitions[row.CategoryID], row)
		functionTypes[row.CategoryID] = row.FunctionType
	}

	out := make([]CategorySummary, 0, len(partitions))
	for categoryID, partition := range partitions {
		out = append(out, CategorySummary{
			CategoryID:   categoryID,
			FunctionType: functionTypes[categoryID],
			Summary:      Rollup(partition),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out
}

// FlatSummary is a grouped mean computed directly over the rows' score
// columns, with no per-task level in between. It deliberately differs
// from Rollup; the department standings endpoint preserves the original
// report's numbers by using this one.
func FlatSummary(rows []ScoreRow) Summary {
	if len(rows) == 0 {
		return Summary{}
	}

	var quantity, efficiency, timeliness, overall float64
	for _, row := range rows {
		quantity += row.Quantity
		efficiency += row.Efficiency
		timeliness += row.Timeliness
		overall += row.Average
	}
	n := float64(len(rows))
	return Summary{
		Quantity:       rating.Round2(quantity / n),
		Efficiency:     rating.Round2(efficiency / n),
		Timeliness:     rating.Round2(timeliness / n),
		OverallAverage: rating.Round2(overall / n),
	}
}

// DepartmentStandings computes a flat grouped mean per department,
// ordered best first. Ties break on department id so the order is
// stable.
func DepartmentStandings(rows []ScoreRow) []DepartmentStanding {
	partitions := map[string][]ScoreRow{}
	for _, row := range rows {
		partitions[row.DepartmentID] = append(partitions[row.DepartmentID], row)
	}

	out := make([]DepartmentStanding, 0, len(partitions))
	for departmentID, partition := range partitions {
		out = append(out, DepartmentStanding{
			DepartmentID: departmentID,
			Summary:      FlatSummary(partition),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Summary.OverallAverage != out[j].Summary.OverallAverage {
			return out[i].Summary.OverallAverage > out[j].Summary.OverallAverage
		}
		return out[i].DepartmentID < out[j].DepartmentID
	})
	return out
}

// TopDepartment returns the best flat grouped-mean department, or an
// empty standing when there are no rows.
func TopDepartment(rows []ScoreRow) DepartmentStanding {
	standings := DepartmentStandings(rows)
	if len(standings) == 0 {
		return DepartmentStanding{}
	}
	return standings[0]
}

// FinalRating combines per-function-type overall averages into one
// score using the position's weights. Function types with no scored
// work are left out of both numerator and denominator, so an employee
// with no strategic assignments is not penalised for the gap.
func FinalRating(byFunction map[string]float64, weights Weights) float64 {
	weightFor := map[string]float64{
		appraisal.FunctionTypeCore:      weights.Core,
		appraisal.FunctionTypeStrategic: weights.Strategic,
		appraisal.FunctionTypeSupport:   weights.Support,
	}

	var weighted, total float64
	for functionType, overall := range byFunction {
		w := weightFor[functionType]
		if w <= 0 {
			continue
		}
		weighted += overall * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return rating.Round2(weighted / total)
}
