package inventory

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/meditrack/meditrack-backend/internal/apperror"
)

type catalogPostgres struct{ q querier }

// NewCatalogPostgresRepository creates the postgres-backed catalog store.
func NewCatalogPostgresRepository(db *sql.DB) CatalogRepository { return &catalogPostgres{q: db} }

func (r *catalogPostgres) WithTx(tx *sql.Tx) CatalogRepository {
	if tx == nil {
		return r
	}
	return &catalogPostgres{q: tx}
}

const medicineColumns = `id, name, generic_name, concentration, form, manufacturer,
	requires_prescription, is_controlled, storage_instructions, notes, is_active,
	created_by, updated_by, created_at, updated_at, deleted_at`

func (r *catalogPostgres) Create(ctx context.Context, m *Medicine) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO medicines
		  (id, name, generic_name, concentration, form, manufacturer,
		   requires_prescription, is_controlled, storage_instructions, notes,
		   is_active, created_by, updated_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		m.ID, m.Name, m.GenericName, m.Concentration, m.Form, m.Manufacturer,
		m.RequiresPrescription, m.IsControlled, m.StorageInstructions, m.Notes,
		m.IsActive, m.CreatedBy, m.UpdatedBy, m.CreatedAt, m.UpdatedAt)
	return translate(err, "medicine already exists")
}

func (r *catalogPostgres) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Medicine, error) {
	query := `SELECT ` + medicineColumns + ` FROM medicines WHERE id=$1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	m, err := scanMedicine(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "medicine not found: "+id.String())
	}
	return m, nil
}

func (r *catalogPostgres) Update(ctx context.Context, m *Medicine) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE medicines SET
		  name=$1, generic_name=$2, concentration=$3, form=$4, manufacturer=$5,
		  requires_prescription=$6, is_controlled=$7, storage_instructions=$8,
		  notes=$9, is_active=$10, updated_by=$11, updated_at=$12
		WHERE id=$13 AND deleted_at IS NULL`,
		m.Name, m.GenericName, m.Concentration, m.Form, m.Manufacturer,
		m.RequiresPrescription, m.IsControlled, m.StorageInstructions,
		m.Notes, m.IsActive, m.UpdatedBy, m.UpdatedAt, m.ID)
	if err != nil {
		return translate(err, "")
	}
	return requireRow(res, "medicine not found: "+m.ID.String())
}

func (r *catalogPostgres) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE medicines SET deleted_at=$1, is_active=FALSE, updated_at=$1
		WHERE id=$2 AND deleted_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return translate(err, "")
	}
	return requireRow(res, "medicine not found: "+id.String())
}

func (r *catalogPostgres) Restore(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE medicines SET deleted_at=NULL, is_active=TRUE, updated_at=$1
		WHERE id=$2`,
		time.Now().UTC(), id)
	if err != nil {
		return translate(err, "")
	}
	return requireRow(res, "medicine not found: "+id.String())
}

func (r *catalogPostgres) HardDelete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM medicines WHERE id=$1`, id)
	if err != nil {
		return translate(err, "")
	}
	return requireRow(res, "medicine not found: "+id.String())
}

const itemStockQuery = `
	SELECT m.id, m.name, m.generic_name, m.concentration, m.form, m.manufacturer,
	       m.requires_prescription, m.is_controlled, m.storage_instructions, m.notes,
	       m.is_active, m.created_by, m.updated_by, m.created_at, m.updated_at, m.deleted_at,
	       s.id, s.medicine_id, s.stock_quantity, s.min_stock_level, s.unit_price,
	       s.last_restocked_at, s.created_at, s.updated_at
	FROM medicines m
	JOIN medicine_stock s ON s.medicine_id = m.id`

func (r *catalogPostgres) ListActive(ctx context.Context) ([]*ItemStockRow, error) {
	return r.queryRows(ctx, itemStockQuery+`
		WHERE m.is_active AND m.deleted_at IS NULL
		ORDER BY m.name ASC`)
}

func (r *catalogPostgres) ListLowStock(ctx context.Context) ([]*ItemStockRow, error) {
	return r.queryRows(ctx, itemStockQuery+`
		WHERE m.is_active AND m.deleted_at IS NULL
		  AND s.stock_quantity <= s.min_stock_level
		ORDER BY m.name ASC`)
}

func (r *catalogPostgres) ListOutOfStock(ctx context.Context) ([]*ItemStockRow, error) {
	return r.queryRows(ctx, itemStockQuery+`
		WHERE m.is_active AND m.deleted_at IS NULL
		  AND s.stock_quantity = 0
		ORDER BY m.name ASC`)
}

func (r *catalogPostgres) Search(ctx context.Context, term string) ([]*ItemStockRow, error) {
	pattern := "%" + term + "%"
	return r.queryRows(ctx, itemStockQuery+`
		WHERE m.deleted_at IS NULL
		  AND (m.name ILIKE $1 OR m.generic_name ILIKE $1)
		ORDER BY m.name ASC`, pattern)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (r *catalogPostgres) queryRows(ctx context.Context, query string, args ...interface{}) ([]*ItemStockRow, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "")
	}
	defer rows.Close()

	var result []*ItemStockRow
	for rows.Next() {
		row := &ItemStockRow{}
		if err := rows.Scan(
			&row.Medicine.ID, &row.Medicine.Name, &row.Medicine.GenericName,
			&row.Medicine.Concentration, &row.Medicine.Form, &row.Medicine.Manufacturer,
			&row.Medicine.RequiresPrescription, &row.Medicine.IsControlled,
			&row.Medicine.StorageInstructions, &row.Medicine.Notes, &row.Medicine.IsActive,
			&row.Medicine.CreatedBy, &row.Medicine.UpdatedBy,
			&row.Medicine.CreatedAt, &row.Medicine.UpdatedAt, &row.Medicine.DeletedAt,
			&row.Stock.ID, &row.Stock.MedicineID, &row.Stock.Quantity,
			&row.Stock.MinStockLevel, &row.Stock.UnitPrice,
			&row.Stock.LastRestockedAt, &row.Stock.CreatedAt, &row.Stock.UpdatedAt,
		); err != nil {
			return nil, translate(err, "")
		}
		result = append(result, row)
	}
	return result, translate(rows.Err(), "")
}

func scanMedicine(row *sql.Row) (*Medicine, error) {
	m := &Medicine{}
	err := row.Scan(
		&m.ID, &m.Name, &m.GenericName, &m.Concentration, &m.Form, &m.Manufacturer,
		&m.RequiresPrescription, &m.IsControlled, &m.StorageInstructions, &m.Notes,
		&m.IsActive, &m.CreatedBy, &m.UpdatedBy, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func requireRow(res sql.Result, notFoundMsg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Internal(err, "rows affected")
	}
	if n == 0 {
		return apperror.NotFound("%s", notFoundMsg)
	}
	return nil
}
