package inventory

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meditrack/meditrack-backend/internal/apperror"
)

type stockPostgres struct{ q querier }

// NewStockPostgresRepository creates the postgres-backed stock ledger.
func NewStockPostgresRepository(db *sql.DB) StockRepository { return &stockPostgres{q: db} }

func (r *stockPostgres) WithTx(tx *sql.Tx) StockRepository {
	if tx == nil {
		return r
	}
	return &stockPostgres{q: tx}
}

const stockColumns = `id, medicine_id, stock_quantity, min_stock_level, unit_price,
	last_restocked_at, created_at, updated_at`

func (r *stockPostgres) Create(ctx context.Context, s *Stock) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO medicine_stock
		  (id, medicine_id, stock_quantity, min_stock_level, unit_price,
		   last_restocked_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.MedicineID, s.Quantity, s.MinStockLevel, s.UnitPrice,
		s.LastRestockedAt, s.CreatedAt, s.UpdatedAt)
	return translate(err, "")
}

func (r *stockPostgres) GetByMedicine(ctx context.Context, medicineID uuid.UUID) (*Stock, error) {
	return r.get(ctx, medicineID, "")
}

func (r *stockPostgres) GetByMedicineForUpdate(ctx context.Context, medicineID uuid.UUID) (*Stock, error) {
	return r.get(ctx, medicineID, " FOR UPDATE")
}

func (r *stockPostgres) get(ctx context.Context, medicineID uuid.UUID, suffix string) (*Stock, error) {
	s := &Stock{}
	err := r.q.QueryRowContext(ctx,
		`SELECT `+stockColumns+` FROM medicine_stock WHERE medicine_id=$1`+suffix,
		medicineID).
		Scan(&s.ID, &s.MedicineID, &s.Quantity, &s.MinStockLevel, &s.UnitPrice,
			&s.LastRestockedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, translate(err, "stock record not found for medicine: "+medicineID.String())
	}
	return s, nil
}

func (r *stockPostgres) Update(ctx context.Context, s *Stock) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE medicine_stock SET
		  stock_quantity=$1, min_stock_level=$2, unit_price=$3,
		  last_restocked_at=$4, updated_at=$5
		WHERE id=$6`,
		s.Quantity, s.MinStockLevel, s.UnitPrice,
		s.LastRestockedAt, s.UpdatedAt, s.ID)
	if err != nil {
		return translate(err, "")
	}
	return requireRow(res, "stock record not found: "+s.ID.String())
}

// Aggregate computes the inventory-wide statistics in one statement so the
// snapshot is internally consistent.
func (r *stockPostgres) Aggregate(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{}
	var totalValue decimal.NullDecimal
	err := r.q.QueryRowContext(ctx, `
		SELECT
		  COUNT(*),
		  COUNT(*) FILTER (WHERE m.is_active),
		  COUNT(*) FILTER (WHERE m.is_active AND s.stock_quantity <= s.min_stock_level),
		  COUNT(*) FILTER (WHERE m.is_active AND s.stock_quantity = 0),
		  SUM(s.unit_price * s.stock_quantity)
		FROM medicines m
		JOIN medicine_stock s ON s.medicine_id = m.id
		WHERE m.deleted_at IS NULL`).
		Scan(&stats.TotalItems, &stats.ActiveItems,
			&stats.LowStockCount, &stats.OutOfStockCount, &totalValue)
	if err != nil {
		return nil, apperror.Internal(err, "aggregate inventory statistics")
	}
	stats.InactiveItems = stats.TotalItems - stats.ActiveItems
	if totalValue.Valid {
		stats.TotalInventoryValue = totalValue.Decimal
	} else {
		stats.TotalInventoryValue = decimal.Zero
	}
	return stats, nil
}
