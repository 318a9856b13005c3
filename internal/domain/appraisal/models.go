// Package appraisal manages the Category → Main Task → (Output,
// Sub-Task) hierarchy and the IPCR/OPCR document workflow built on top
// of it. An appraisal document is a parallel index over sub-tasks, not
// an owner: cascades flow down from categories, never up from
// documents.
package appraisal

import "time"

// Category groups organizational functions of one kind within a period.
type Category struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	FunctionType string    `json:"functionType"`
	Priority     int       `json:"priority"`
	Status       string    `json:"status"`
	Period       string    `json:"period"`
	CreatedAt    time.Time `json:"createdAt"`
}

// MainTask is a unit-of-work template (an MFO). It belongs to exactly
// one category and optionally a department.
type MainTask struct {
	ID                      string    `json:"id"`
	CategoryID              string    `json:"categoryId"`
	DepartmentID            string    `json:"departmentId,omitempty"`
	Title                   string    `json:"title"`
	TargetDescription       string    `json:"targetDescription"`
	TimeDescription         string    `json:"timeDescription"`
	ModificationDescription string    `json:"modificationDescription"`
	Assigned                bool      `json:"assigned"`
	Status                  string    `json:"status"`
	Period                  string    `json:"period"`
	CreatedAt               time.Time `json:"createdAt"`
}

// Output is the join row "this task is assigned to this user". One per
// (user, task) pair; it owns exactly one sub-task.
type Output struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TaskID    string    `json:"taskId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SubTask is the scored unit of work: one user's targets and actuals
// for one main task within one period, plus the computed component
// scores.
type SubTask struct {
	ID                    string  `json:"id"`
	TaskID                string  `json:"taskId"`
	OutputID              string  `json:"outputId"`
	DocumentID            string  `json:"documentId,omitempty"`
	TargetQuantity        float64 `json:"targetQuantity"`
	ActualQuantity        float64 `json:"actualQuantity"`
	TargetTime            float64 `json:"targetTime"`
	ActualTime            float64 `json:"actualTime"`
	TargetTimeDescription string  `json:"targetTimeDescription"`
	ActualTimeDescription string  `json:"actualTimeDescription"`
	TargetModification    float64 `json:"targetModification"`
	ActualModification    float64 `json:"actualModification"`
	Quantity              int     `json:"quantity"`
	Efficiency            int     `json:"efficiency"`
	Timeliness            int     `json:"timeliness"`
	Average               float64 `json:"average"`
	Status                string  `json:"status"`
	Period                string  `json:"period"`
}

// Document is an appraisal document: an IPCR for one user or an OPCR
// for one department. Sign-off fields are free-text names recorded in
// any order; the workflow does not enforce a strict sequence.
type Document struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	UserID        string    `json:"userId,omitempty"`
	DepartmentID  string    `json:"departmentId,omitempty"`
	ReviewedBy    string    `json:"reviewedBy,omitempty"`
	ApprovedBy    string    `json:"approvedBy,omitempty"`
	DiscussedWith string    `json:"discussedWith,omitempty"`
	AssessedBy    string    `json:"assessedBy,omitempty"`
	FinalRatingBy string    `json:"finalRatingBy,omitempty"`
	ConfirmedBy   string    `json:"confirmedBy,omitempty"`
	Status        string    `json:"status"`
	Period        string    `json:"period"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Targets is the employee-entered plan for one sub-task.
type Targets struct {
	Quantity        float64 `json:"quantity"`
	Time            float64 `json:"time"`
	TimeDescription string  `json:"timeDescription"`
	Modification    float64 `json:"modification"`
}

// Accomplishment is the reported actual result for one sub-task.
type Accomplishment struct {
	Quantity        float64 `json:"quantity"`
	Time            float64 `json:"time"`
	TimeDescription string  `json:"timeDescription"`
	Modification    float64 `json:"modification"`
}
