package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type historyPostgres struct{ q querier }

// NewHistoryPostgresRepository creates the postgres-backed audit trail.
// Rows are insert-only; there are no update or delete statements here.
func NewHistoryPostgresRepository(db *sql.DB) HistoryRepository { return &historyPostgres{q: db} }

func (r *historyPostgres) WithTx(tx *sql.Tx) HistoryRepository {
	if tx == nil {
		return r
	}
	return &historyPostgres{q: tx}
}

const stockHistoryColumns = `id, medicine_id, adjustment_type, quantity_before,
	quantity_after, adjustment_amount, reason, reference_id, reference_type,
	recorded_at, recorded_by`

func (r *historyPostgres) RecordStockChange(ctx context.Context, e *StockHistoryEntry) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO medicine_stock_history
		  (id, medicine_id, adjustment_type, quantity_before, quantity_after,
		   adjustment_amount, reason, reference_id, reference_type, recorded_at, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.MedicineID, e.AdjustmentType, e.QuantityBefore, e.QuantityAfter,
		e.Adjustment, e.Reason, e.ReferenceID, e.ReferenceType, e.RecordedAt, e.RecordedBy)
	return translate(err, "")
}

func (r *historyPostgres) RecordPriceChange(ctx context.Context, e *PriceHistoryEntry) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO medicine_price_history
		  (id, medicine_id, price_before, price_after, reason, recorded_at, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.MedicineID, e.PriceBefore, e.PriceAfter, e.Reason, e.RecordedAt, e.RecordedBy)
	return translate(err, "")
}

func (r *historyPostgres) StockHistory(ctx context.Context, medicineID uuid.UUID, limit int) ([]*StockHistoryEntry, error) {
	query := `SELECT ` + stockHistoryColumns + `
		FROM medicine_stock_history WHERE medicine_id=$1
		ORDER BY recorded_at DESC, id DESC`
	args := []interface{}{medicineID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "")
	}
	defer rows.Close()

	var entries []*StockHistoryEntry
	for rows.Next() {
		e := &StockHistoryEntry{}
		if err := rows.Scan(&e.ID, &e.MedicineID, &e.AdjustmentType,
			&e.QuantityBefore, &e.QuantityAfter, &e.Adjustment,
			&e.Reason, &e.ReferenceID, &e.ReferenceType,
			&e.RecordedAt, &e.RecordedBy); err != nil {
			return nil, translate(err, "")
		}
		entries = append(entries, e)
	}
	return entries, translate(rows.Err(), "")
}

func (r *historyPostgres) PriceHistory(ctx context.Context, medicineID uuid.UUID, limit int) ([]*PriceHistoryEntry, error) {
	query := `SELECT id, medicine_id, price_before, price_after, reason, recorded_at, recorded_by
		FROM medicine_price_history WHERE medicine_id=$1
		ORDER BY recorded_at DESC, id DESC`
	args := []interface{}{medicineID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "")
	}
	defer rows.Close()

	var entries []*PriceHistoryEntry
	for rows.Next() {
		e := &PriceHistoryEntry{}
		if err := rows.Scan(&e.ID, &e.MedicineID, &e.PriceBefore, &e.PriceAfter,
			&e.Reason, &e.RecordedAt, &e.RecordedBy); err != nil {
			return nil, translate(err, "")
		}
		entries = append(entries, e)
	}
	return entries, translate(rows.Err(), "")
}

func (r *historyPostgres) LatestStockEntry(ctx context.Context, medicineID uuid.UUID) (*StockHistoryEntry, error) {
	e := &StockHistoryEntry{}
	err := r.q.QueryRowContext(ctx, `
		SELECT `+stockHistoryColumns+`
		FROM medicine_stock_history WHERE medicine_id=$1
		ORDER BY recorded_at DESC, id DESC LIMIT 1`, medicineID).
		Scan(&e.ID, &e.MedicineID, &e.AdjustmentType,
			&e.QuantityBefore, &e.QuantityAfter, &e.Adjustment,
			&e.Reason, &e.ReferenceID, &e.ReferenceType,
			&e.RecordedAt, &e.RecordedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "")
	}
	return e, nil
}
