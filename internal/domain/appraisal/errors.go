package appraisal

import "errors"

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateCategory = errors.New("an active category with that name already exists")
	ErrTaskNotFound      = errors.New("main task not found")
	ErrOutputNotFound    = errors.New("output not found")
	ErrSubTaskNotFound   = errors.New("sub-task not found")
	ErrDocumentNotFound  = errors.New("appraisal document not found")
	ErrUnknownSignoff    = errors.New("unknown sign-off field")
	ErrNoTasks           = errors.New("at least one main task is required")
)
