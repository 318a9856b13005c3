package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ipcr/internal/domain/rating"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Get(ctx context.Context) (*Settings, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, rating_thresholds, quantity_formula, efficiency_formula, timeliness_formula,
           enable_formula, current_period_id, phases, alert_thresholds, kpi_definitions,
           created_at, updated_at
    FROM system_settings
    WHERE id = $1
  `, SentinelID)

	var record Settings
	var thresholds, quantity, efficiency, timeliness, phases []byte
	err := row.Scan(
		&record.ID, &thresholds, &quantity, &efficiency, &timeliness,
		&record.EnableFormula, &record.CurrentPeriodID, &phases,
		&record.AlertThresholds, &record.KPIDefinitions,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if len(thresholds) > 0 {
		if err := json.Unmarshal(thresholds, &record.RatingThresholds); err != nil {
			return nil, fmt.Errorf("decode rating thresholds: %w", err)
		}
	}
	if len(phases) > 0 {
		if err := json.Unmarshal(phases, &record.Phases); err != nil {
			return nil, fmt.Errorf("decode phase windows: %w", err)
		}
	}
	if record.QuantityFormula, err = rating.ParseFormula(quantity); err != nil {
		return nil, fmt.Errorf("decode quantity formula: %w", err)
	}
	if record.EfficiencyFormula, err = rating.ParseFormula(efficiency); err != nil {
		return nil, fmt.Errorf("decode efficiency formula: %w", err)
	}
	if record.TimelinessFormula, err = rating.ParseFormula(timeliness); err != nil {
		return nil, fmt.Errorf("decode timeliness formula: %w", err)
	}
	return &record, nil
}

func (s *Store) Insert(ctx context.Context, record Settings) error {
	columns, err := encodeColumns(record)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO system_settings
      (id, rating_thresholds, quantity_formula, efficiency_formula, timeliness_formula,
       enable_formula, current_period_id, phases, alert_thresholds, kpi_definitions,
       created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    ON CONFLICT (id) DO NOTHING
  `, SentinelID, columns.thresholds, columns.quantity, columns.efficiency, columns.timeliness,
		record.EnableFormula, record.CurrentPeriodID, columns.phases,
		nullableRaw(record.AlertThresholds), nullableRaw(record.KPIDefinitions),
		record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *Store) Update(ctx context.Context, record Settings) error {
	columns, err := encodeColumns(record)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    UPDATE system_settings
    SET rating_thresholds = $2,
        quantity_formula = $3,
        efficiency_formula = $4,
        timeliness_formula = $5,
        enable_formula = $6,
        current_period_id = $7,
        phases = $8,
        alert_thresholds = $9,
        kpi_definitions = $10,
        updated_at = $11
    WHERE id = $1
  `, SentinelID, columns.thresholds, columns.quantity, columns.efficiency, columns.timeliness,
		record.EnableFormula, record.CurrentPeriodID, columns.phases,
		nullableRaw(record.AlertThresholds), nullableRaw(record.KPIDefinitions),
		record.UpdatedAt)
	return err
}

type encodedColumns struct {
	thresholds, quantity, efficiency, timeliness, phases []byte
}

func encodeColumns(record Settings) (encodedColumns, error) {
	var cols encodedColumns
	var err error
	if cols.thresholds, err = json.Marshal(record.RatingThresholds); err != nil {
		return cols, err
	}
	if cols.phases, err = json.Marshal(record.Phases); err != nil {
		return cols, err
	}
	if record.QuantityFormula != nil {
		if cols.quantity, err = json.Marshal(record.QuantityFormula); err != nil {
			return cols, err
		}
	}
	if record.EfficiencyFormula != nil {
		if cols.efficiency, err = json.Marshal(record.EfficiencyFormula); err != nil {
			return cols, err
		}
	}
	if record.TimelinessFormula != nil {
		if cols.timeliness, err = json.Marshal(record.TimelinessFormula); err != nil {
			return cols, err
		}
	}
	return cols, nil
}

func nullableRaw(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
