package appraisal

import "context"

// Tx is the store's transaction handle. The workflow operations in this
// package run entirely inside one transaction so that batch creation
// and cascades are all-or-nothing.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type StoreAPI interface {
	CreateCategory(ctx context.Context, category Category) error
	GetCategory(ctx context.Context, categoryID string) (*Category, error)
	ListCategories(ctx context.Context, status, period string) ([]Category, error)
	UpdateCategory(ctx context.Context, category Category) error

	CreateTask(ctx context.Context, task MainTask) error
	GetTask(ctx context.Context, taskID string) (*MainTask, error)
	ListTasks(ctx context.Context, categoryID, status, period string) ([]MainTask, error)
	UpdateTask(ctx context.Context, task MainTask) error

	GetSubTask(ctx context.Context, subTaskID string) (*SubTask, error)
	UpdateSubTask(ctx context.Context, subTask SubTask) error
	ListSubTasksByDocument(ctx context.Context, documentID string) ([]SubTask, error)
	ListSubTasksByTask(ctx context.Context, taskID string) ([]SubTask, error)

	GetDocument(ctx context.Context, documentID string) (*Document, error)
	ListDocuments(ctx context.Context, userID, departmentID, period string) ([]Document, error)
	UpdateDocumentSignoff(ctx context.Context, documentID, field, name string) error

	Begin(ctx context.Context) (Tx, error)
	TaskForUpdateTx(ctx context.Context, tx Tx, taskID string) (*MainTask, error)
	CreateDocumentTx(ctx context.Context, tx Tx, document Document) error
	OutputForUserTaskTx(ctx context.Context, tx Tx, userID, taskID string) (*Output, error)
	CreateOutputTx(ctx context.Context, tx Tx, output Output) error
	CreateSubTaskTx(ctx context.Context, tx Tx, subTask SubTask) error
	StampSubTaskDocumentTx(ctx context.Context, tx Tx, outputID, documentID string) error
	MarkTaskAssignedTx(ctx context.Context, tx Tx, taskID string) error

	ArchiveCategoryTx(ctx context.Context, tx Tx, categoryID string) error
	ListTaskIDsByCategoryTx(ctx context.Context, tx Tx, categoryID string) ([]string, error)
	ArchiveTaskTx(ctx context.Context, tx Tx, taskID string) error
	ArchiveSubTasksByTaskTx(ctx context.Context, tx Tx, taskID string) error
	DeleteSubTasksByTaskTx(ctx context.Context, tx Tx, taskID string) error
	DeleteOutputsByTaskTx(ctx context.Context, tx Tx, taskID string) error
}
