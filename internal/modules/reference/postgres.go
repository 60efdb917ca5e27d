package reference

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/meditrack/meditrack-backend/internal/apperror"
)

const pgUniqueViolation = "23505"

func translate(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("%s", notFoundMsg)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return apperror.Conflict("record already exists")
	}
	return apperror.Internal(err, "reference query")
}

type formPostgres struct{ db *sql.DB }

// NewFormPostgresRepository creates the postgres-backed form repository.
func NewFormPostgresRepository(db *sql.DB) FormRepository { return &formPostgres{db: db} }

const formColumns = `id, code, name, display_order, is_active, created_at, updated_at`

func (r *formPostgres) Create(ctx context.Context, f *MedicineForm) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medicine_forms (id, code, name, display_order, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		f.ID, f.Code, f.Name, f.DisplayOrder, f.IsActive, f.CreatedAt, f.UpdatedAt)
	return translate(err, "")
}

func (r *formPostgres) GetByID(ctx context.Context, id uuid.UUID) (*MedicineForm, error) {
	f := &MedicineForm{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+formColumns+` FROM medicine_forms WHERE id=$1`, id).
		Scan(&f.ID, &f.Code, &f.Name, &f.DisplayOrder, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, translate(err, "medicine form not found: "+id.String())
	}
	return f, nil
}

func (r *formPostgres) GetByCode(ctx context.Context, code string) (*MedicineForm, error) {
	f := &MedicineForm{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+formColumns+` FROM medicine_forms WHERE code=$1`, code).
		Scan(&f.ID, &f.Code, &f.Name, &f.DisplayOrder, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, translate(err, "medicine form not found: "+code)
	}
	return f, nil
}

func (r *formPostgres) Update(ctx context.Context, f *MedicineForm) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medicine_forms SET code=$1, name=$2, display_order=$3, is_active=$4, updated_at=$5
		WHERE id=$6`,
		f.Code, f.Name, f.DisplayOrder, f.IsActive, f.UpdatedAt, f.ID)
	if err != nil {
		return translate(err, "")
	}
	return requireRow(res, "medicine form not found: "+f.ID.String())
}

func (r *formPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medicine_forms WHERE id=$1`, id)
	if err != nil {
		return translate(err, "")
	}
	return requireRow(res, "medicine form not found: "+id.String())
}

func (r *formPostgres) List(ctx context.Context, activeOnly bool) ([]*MedicineForm, error) {
	query := `SELECT ` + formColumns + ` FROM medicine_forms`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY display_order ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, translate(err, "")
	}
	defer rows.Close()

	var forms []*MedicineForm
	for rows.Next() {
		f := &MedicineForm{}
		if err := rows.Scan(&f.ID, &f.Code, &f.Name, &f.DisplayOrder, &f.IsActive,
			&f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, translate(err, "")
		}
		forms = append(forms, f)
	}
	return forms, translate(rows.Err(), "")
}

func (r *formPostgres) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM medicine_forms WHERE code=$1 AND is_active)`, code).
		Scan(&exists)
	if err != nil {
		return false, translate(err, "")
	}
	return exists, nil
}

type manufacturerPostgres struct{ db *sql.DB }

// NewManufacturerPostgresRepository creates the postgres-backed manufacturer repository.
func NewManufacturerPostgresRepository(db *sql.DB) ManufacturerRepository {
	return &manufacturerPostgres{db: db}
}

const manufacturerColumns = `id, name, short_name, country, phone, email, website,
	notes, is_active, created_at, updated_at`

func (r *manufacturerPostgres) Create(ctx context.Context, m *Manufacturer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO manufacturers
		  (id, name, short_name, country, phone, email, website, notes, is_active,
		   created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		m.ID, m.Name, m.ShortName, m.Country, m.Phone, m.Email, m.Website, m.Notes,
		m.IsActive, m.CreatedAt, m.UpdatedAt)
	return translate(err, "")
}

func (r *manufacturerPostgres) GetByID(ctx context.Context, id uuid.UUID) (*Manufacturer, error) {
	m := &Manufacturer{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+manufacturerColumns+` FROM manufacturers WHERE id=$1`, id).
		Scan(&m.ID, &m.Name, &m.ShortName, &m.Country, &m.Phone, &m.Email, &m.Website,
			&m.Notes, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, translate(err, "manufacturer not found: "+id.String())
	}
	return m, nil
}

func (r *manufacturerPostgres) Update(ctx context.Context, m *Manufacturer) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE manufacturers SET
		  name=$1, short_name=$2, country=$3, phone=$4, email=$5, website=$6,
		  notes=$7, is_active=$8, updated_at=$9
		WHERE id=$10`,
		m.Name, m.ShortName, m.Country, m.Phone, m.Email, m.Website,
		m.Notes, m.IsActive, m.UpdatedAt, m.ID)
	if err != nil {
		return translate(err, "")
	}
	return requireRow(res, "manufacturer not found: "+m.ID.String())
}

func (r *manufacturerPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM manufacturers WHERE id=$1`, id)
	if err != nil {
		return translate(err, "")
	}
	return requireRow(res, "manufacturer not found: "+id.String())
}

func (r *manufacturerPostgres) List(ctx context.Context, activeOnly bool) ([]*Manufacturer, error) {
	query := `SELECT ` + manufacturerColumns + ` FROM manufacturers`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, translate(err, "")
	}
	defer rows.Close()

	var makers []*Manufacturer
	for rows.Next() {
		m := &Manufacturer{}
		if err := rows.Scan(&m.ID, &m.Name, &m.ShortName, &m.Country, &m.Phone,
			&m.Email, &m.Website, &m.Notes, &m.IsActive,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, translate(err, "")
		}
		makers = append(makers, m)
	}
	return makers, translate(rows.Err(), "")
}

func (r *manufacturerPostgres) SearchByName(ctx context.Context, term string) ([]*Manufacturer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+manufacturerColumns+` FROM manufacturers WHERE name ILIKE $1 ORDER BY name ASC`,
		"%"+term+"%")
	if err != nil {
		return nil, translate(err, "")
	}
	defer rows.Close()

	var makers []*Manufacturer
	for rows.Next() {
		m := &Manufacturer{}
		if err := rows.Scan(&m.ID, &m.Name, &m.ShortName, &m.Country, &m.Phone,
			&m.Email, &m.Website, &m.Notes, &m.IsActive,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, translate(err, "")
		}
		makers = append(makers, m)
	}
	return makers, translate(rows.Err(), "")
}

func (r *manufacturerPostgres) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM manufacturers WHERE name=$1 AND is_active)`, name).
		Scan(&exists)
	if err != nil {
		return false, translate(err, "")
	}
	return exists, nil
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
