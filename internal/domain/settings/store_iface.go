package settings

import "context"

type StoreAPI interface {
	Get(ctx context.Context) (*Settings, error)
	// Insert creates the singleton row. ErrAlreadyExists signals that a
	// concurrent creator won the race; callers re-read instead of
	// duplicating.
	Insert(ctx context.Context, record Settings) error
	Update(ctx context.Context, record Settings) error
}
