package inventory

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type barcodePostgres struct{ q querier }

// NewBarcodePostgresRepository creates the postgres-backed barcode registry.
func NewBarcodePostgresRepository(db *sql.DB) BarcodeRepository { return &barcodePostgres{q: db} }

func (r *barcodePostgres) WithTx(tx *sql.Tx) BarcodeRepository {
	if tx == nil {
		return r
	}
	return &barcodePostgres{q: tx}
}

const barcodeColumns = `id, medicine_id, barcode, barcode_type, is_primary,
	description, created_at, created_by`

func (r *barcodePostgres) Create(ctx context.Context, b *Barcode) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO medicine_barcodes
		  (id, medicine_id, barcode, barcode_type, is_primary, description,
		   created_at, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		b.ID, b.MedicineID, b.Barcode, b.Type, b.IsPrimary, b.Description,
		b.CreatedAt, b.CreatedBy)
	return translate(err, "")
}

func (r *barcodePostgres) GetByID(ctx context.Context, id uuid.UUID) (*Barcode, error) {
	b, err := scanBarcode(r.q.QueryRowContext(ctx,
		`SELECT `+barcodeColumns+` FROM medicine_barcodes WHERE id=$1`, id))
	if err != nil {
		return nil, translate(err, "barcode not found: "+id.String())
	}
	return b, nil
}

func (r *barcodePostgres) GetByValue(ctx context.Context, barcode string) (*Barcode, error) {
	b, err := scanBarcode(r.q.QueryRowContext(ctx,
		`SELECT `+barcodeColumns+` FROM medicine_barcodes WHERE barcode=$1`, barcode))
	if err != nil {
		return nil, translate(err, "no medicine found with barcode: "+barcode)
	}
	return b, nil
}

func (r *barcodePostgres) Update(ctx context.Context, b *Barcode) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE medicine_barcodes SET barcode=$1, barcode_type=$2, description=$3
		WHERE id=$4`,
		b.Barcode, b.Type, b.Description, b.ID)
	if err != nil {
		return translate(err, "")
	}
	return requireRow(res, "barcode not found: "+b.ID.String())
}

func (r *barcodePostgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM medicine_barcodes WHERE id=$1`, id)
	if err != nil {
		return translate(err, "")
	}
	return requireRow(res, "barcode not found: "+id.String())
}

func (r *barcodePostgres) ClearPrimary(ctx context.Context, medicineID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE medicine_barcodes SET is_primary=FALSE WHERE medicine_id=$1 AND is_primary`,
		medicineID)
	return translate(err, "")
}

func (r *barcodePostgres) SetPrimary(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE medicine_barcodes SET is_primary=TRUE WHERE id=$1`, id)
	if err != nil {
		return translate(err, "")
	}
	return requireRow(res, "barcode not found: "+id.String())
}

func (r *barcodePostgres) CountForMedicine(ctx context.Context, medicineID uuid.UUID) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM medicine_barcodes WHERE medicine_id=$1`, medicineID).Scan(&n)
	if err != nil {
		return 0, translate(err, "")
	}
	return n, nil
}

func (r *barcodePostgres) ListForMedicine(ctx context.Context, medicineID uuid.UUID) ([]*Barcode, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+barcodeColumns+` FROM medicine_barcodes
		WHERE medicine_id=$1
		ORDER BY is_primary DESC, created_at ASC`, medicineID)
	if err != nil {
		return nil, translate(err, "")
	}
	defer rows.Close()
	return collectBarcodes(rows)
}

func (r *barcodePostgres) ListForMedicines(ctx context.Context, medicineIDs []uuid.UUID) (map[uuid.UUID][]*Barcode, error) {
	result := make(map[uuid.UUID][]*Barcode, len(medicineIDs))
	if len(medicineIDs) == 0 {
		return result, nil
	}
	ids := make([]string, len(medicineIDs))
	for i, id := range medicineIDs {
		ids[i] = id.String()
	}
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+barcodeColumns+` FROM medicine_barcodes
		WHERE medicine_id = ANY($1)
		ORDER BY is_primary DESC, created_at ASC`, pq.Array(ids))
	if err != nil {
		return nil, translate(err, "")
	}
	defer rows.Close()

	barcodes, err := collectBarcodes(rows)
	if err != nil {
		return nil, err
	}
	for _, b := range barcodes {
		result[b.MedicineID] = append(result[b.MedicineID], b)
	}
	return result, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func scanBarcode(row *sql.Row) (*Barcode, error) {
	b := &Barcode{}
	err := row.Scan(&b.ID, &b.MedicineID, &b.Barcode, &b.Type, &b.IsPrimary,
		&b.Description, &b.CreatedAt, &b.CreatedBy)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func collectBarcodes(rows *sql.Rows) ([]*Barcode, error) {
	var barcodes []*Barcode
	for rows.Next() {
		b := &Barcode{}
		if err := rows.Scan(&b.ID, &b.MedicineID, &b.Barcode, &b.Type, &b.IsPrimary,
			&b.Description, &b.CreatedAt, &b.CreatedBy); err != nil {
			return nil, translate(err, "")
		}
		barcodes = append(barcodes, b)
	}
	return barcodes, translate(rows.Err(), "")
}
