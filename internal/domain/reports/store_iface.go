package reports

import "context"

type StoreAPI interface {
	ScoreRows(ctx context.Context, filter RowFilter) ([]ScoreRow, error)
	PositionWeights(ctx context.Context, userID string) (Weights, error)
	DocumentReport(ctx context.Context, documentID string) (*DocumentReport, error)
}
