package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

// ErrNotFound is returned when a requested span or record does not
// exist in the store.
var ErrNotFound = errors.New("not found")

// WriteSpan upserts a span's geometry and demand. The drawing is the
// source of truth for geometry, so repeated writes simply overwrite.
func (s *Store) WriteSpan(ctx context.Context, sp model.Span) error {
	return writeSpan(ctx, s.db, sp)
}

// WriteSpan upserts a span inside the transaction.
func (t *Tx) WriteSpan(ctx context.Context, sp model.Span) error {
	return writeSpan(ctx, t.tx, sp)
}

func writeSpan(ctx context.Context, q querier, sp model.Span) error {
	var demandJSON any
	if sp.Demand != nil {
		b, err := json.Marshal(sp.Demand)
		if err != nil {
			return fmt.Errorf("write span %s: marshal demand: %w", sp.ID, err)
		}
		demandJSON = string(b)
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO spans
		(id, start_x, start_y, end_x, end_y, width, depth,
		 support_start, support_end, concrete_grade, steel_grade, demand)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_x = excluded.start_x,
			start_y = excluded.start_y,
			end_x = excluded.end_x,
			end_y = excluded.end_y,
			width = excluded.width,
			depth = excluded.depth,
			support_start = excluded.support_start,
			support_end = excluded.support_end,
			concrete_grade = excluded.concrete_grade,
			steel_grade = excluded.steel_grade,
			demand = excluded.demand
	`,
		sp.ID,
		sp.Start.X, sp.Start.Y,
		sp.End.X, sp.End.Y,
		sp.Width, sp.Depth,
		int(sp.SupportStart), int(sp.SupportEnd),
		sp.ConcreteGrade, sp.SteelGrade,
		demandJSON,
	)
	if err != nil {
		return fmt.Errorf("write span %s: %w", sp.ID, err)
	}
	return nil
}

const spanColumns = `id, start_x, start_y, end_x, end_y, width, depth,
	support_start, support_end, concrete_grade, steel_grade, demand`

// ReadSpan loads one span by ID. Returns ErrNotFound if it has been
// deleted from the drawing.
func (s *Store) ReadSpan(ctx context.Context, id string) (model.Span, error) {
	return readSpan(ctx, s.db, id)
}

// ReadSpan loads one span inside the transaction.
func (t *Tx) ReadSpan(ctx context.Context, id string) (model.Span, error) {
	return readSpan(ctx, t.tx, id)
}

func readSpan(ctx context.Context, q querier, id string) (model.Span, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+spanColumns+` FROM spans WHERE id = ?`, id)
	sp, err := scanSpan(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Span{}, fmt.Errorf("span %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Span{}, fmt.Errorf("read span %s: %w", id, err)
	}
	return sp, nil
}

// SpanExists reports whether a span is still live in the drawing.
// Registry healing resolves member IDs through this.
func (t *Tx) SpanExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM spans WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("span exists %s: %w", id, err)
	}
	return n > 0, nil
}

// ListSpans enumerates every span in the model, ordered by ID for
// deterministic iteration.
func (s *Store) ListSpans(ctx context.Context) ([]model.Span, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+spanColumns+` FROM spans ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list spans: %w", err)
	}
	defer rows.Close()

	var spans []model.Span
	for rows.Next() {
		sp, err := scanSpan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list spans: %w", err)
		}
		spans = append(spans, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list spans: %w", err)
	}
	return spans, nil
}

// DeleteSpan removes a span and, via cascade, its records. Simulates
// the user erasing the entity in the drawing.
func (s *Store) DeleteSpan(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM spans WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete span %s: %w", id, err)
	}
	return nil
}

func scanSpan(scan func(dest ...any) error) (model.Span, error) {
	var sp model.Span
	var supportStart, supportEnd int
	var demand sql.NullString
	err := scan(
		&sp.ID,
		&sp.Start.X, &sp.Start.Y,
		&sp.End.X, &sp.End.Y,
		&sp.Width, &sp.Depth,
		&supportStart, &supportEnd,
		&sp.ConcreteGrade, &sp.SteelGrade,
		&demand,
	)
	if err != nil {
		return model.Span{}, err
	}
	sp.SupportStart = model.SupportType(supportStart)
	sp.SupportEnd = model.SupportType(supportEnd)
	if demand.Valid && demand.String != "" {
		var d model.SteelDemand
		if err := json.Unmarshal([]byte(demand.String), &d); err != nil {
			return model.Span{}, fmt.Errorf("unmarshal demand: %w", err)
		}
		sp.Demand = &d
	}
	return sp, nil
}
