package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const PsqlSchema = `
CREATE TABLE IF NOT EXISTS public.calculation
(
    id          VARCHAR PRIMARY KEY,
    user_id     VARCHAR     NOT NULL,
    type        VARCHAR     NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    result_json JSONB       NOT NULL,
    input_json  JSONB       NOT NULL,
    goal        VARCHAR
);

CREATE INDEX IF NOT EXISTS ix_calculation_user_created_at ON public.calculation (user_id, created_at DESC);
`

var _ Store = (*PsqlStore)(nil)

type PsqlStore struct {
	db *pgxpool.Pool
}

func NewPsqlStore(db *pgxpool.Pool) *PsqlStore {
	return &PsqlStore{db: db}
}

func (s *PsqlStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, PsqlSchema); err != nil {
		return fmt.Errorf("create calculation table: %w", err)
	}
	return nil
}

func (s *PsqlStore) Add(ctx context.Context, calc calculations.Calculation) (err error) {
	ctx, span := tracing.DevServerTracer.Start(ctx, "psqlStore.add")
	defer tracing.EndSpanWithErrCheck(span, &err)

	if calc.UserID == "" {
		return ErrEmptyUser
	}
	if calc.Result == nil || calc.Input == nil {
		return errors.New("record result and input required")
	}
	resultJSON, err := json.Marshal(calc.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	inputJSON, err := json.Marshal(calc.Input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}

	_, err = s.db.Exec(
		ctx,
		`INSERT INTO calculation (id, user_id, type, created_at, result_json, input_json, goal)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		calc.ID, calc.UserID, string(calc.Type), calc.CreatedAt, resultJSON, inputJSON, calc.Goal,
	)
	if err != nil {
		return fmt.Errorf("insert calculation: %w", err)
	}
	return nil
}

func (s *PsqlStore) List(ctx context.Context, userID string) (_ []calculations.Calculation, err error) {
	ctx, span := tracing.DevServerTracer.Start(ctx, "psqlStore.list")
	defer tracing.EndSpanWithErrCheck(span, &err)

	rows, err := s.db.Query(
		ctx,
		`
			SELECT
				id, user_id, type, created_at, result_json, input_json, goal
			FROM calculation
			WHERE user_id = $1
			ORDER BY created_at DESC, id;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	calcs := []calculations.Calculation{}
	for rows.Next() {
		var rec storedRecord
		var createdAt time.Time
		var resultJSON, inputJSON []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Type, &createdAt, &resultJSON, &inputJSON, &rec.Goal); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		rec.CreatedAt = createdAt.UTC().Format(time.RFC3339Nano)
		rec.Result = resultJSON
		rec.Input = inputJSON

		calc, err := rec.decode()
		if err != nil {
			log.Warnf("psql store: skipping record %s of user %s: %s", rec.ID, userID, err)
			continue
		}
		calcs = append(calcs, calc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return calcs, nil
}

func (s *PsqlStore) Delete(ctx context.Context, userID string, ids []string) (_ []string, err error) {
	ctx, span := tracing.DevServerTracer.Start(ctx, "psqlStore.delete")
	defer tracing.EndSpanWithErrCheck(span, &err)

	rows, err := s.db.Query(
		ctx,
		`DELETE FROM calculation WHERE user_id = $1 AND id = ANY($2) RETURNING id;`,
		userID, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deleted := make([]string, 0, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		deleted = append(deleted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return deleted, nil
}
