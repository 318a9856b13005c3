package reports

import "time"

// ScoreRow is one scored sub-task joined with its parent task, category
// and owner. Rows are pre-filtered by the store: active sub-task, active
// parent document, current period.
type ScoreRow struct {
	SubTaskID    string
	TaskID       string
	CategoryID   string
	FunctionType string
	DepartmentID string
	UserID       string
	Quantity     float64
	Efficiency   float64
	Timeliness   float64
	Average      float64
}

// Summary is the aggregate record every rollup operation returns. Zero
// valid members produce an all-zero Summary, never an error.
type Summary struct {
	Quantity       float64 `json:"quantity"`
	Efficiency     float64 `json:"efficiency"`
	Timeliness     float64 `json:"timeliness"`
	OverallAverage float64 `json:"overallAverage"`
}

type CategorySummary struct {
	CategoryID   string  `json:"categoryId"`
	FunctionType string  `json:"functionType"`
	Summary      Summary `json:"summary"`
}

type TaskSummary struct {
	TaskID  string  `json:"taskId"`
	Summary Summary `json:"summary"`
}

type DepartmentStanding struct {
	DepartmentID string  `json:"departmentId"`
	Summary      Summary `json:"summary"`
}

// Weights are the function-type coefficients carried by a position.
type Weights struct {
	Core      float64 `json:"coreWeight"`
	Strategic float64 `json:"strategicWeight"`
	Support   float64 `json:"supportWeight"`
}

// RowFilter narrows which scored sub-tasks a query returns. Zero-value
// fields are ignored; Period is always required.
type RowFilter struct {
	Period       string
	CategoryID   string
	DepartmentID string
	UserID       string
}

// ReportLine is one sub-task rendered onto an appraisal form.
type ReportLine struct {
	FunctionType      string
	CategoryName      string
	TaskTitle         string
	TargetDescription string
	TargetQuantity    float64
	ActualQuantity    float64
	Quantity          int
	Efficiency        int
	Timeliness        int
	Average           float64
}

// DocumentReport is everything needed to render one IPCR/OPCR form.
type DocumentReport struct {
	DocumentID     string
	Kind           string
	UserName       string
	DepartmentName string
	Period         string
	ReviewedBy     string
	ApprovedBy     string
	DiscussedWith  string
	AssessedBy     string
	FinalRatingBy  string
	ConfirmedBy    string
	CreatedAt      time.Time
	Lines          []ReportLine
}
