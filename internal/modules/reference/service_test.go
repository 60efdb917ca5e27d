package reference

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditrack/meditrack-backend/internal/apperror"
)

type memForms struct{ byID map[uuid.UUID]*MedicineForm }

func (r *memForms) Create(ctx context.Context, f *MedicineForm) error {
	for _, existing := range r.byID {
		if existing.Code == f.Code {
			return apperror.Conflict("record already exists")
		}
	}
	cp := *f
	r.byID[f.ID] = &cp
	return nil
}

func (r *memForms) GetByID(ctx context.Context, id uuid.UUID) (*MedicineForm, error) {
	f, ok := r.byID[id]
	if !ok {
		return nil, apperror.NotFound("medicine form not found: %s", id)
	}
	cp := *f
	return &cp, nil
}

func (r *memForms) GetByCode(ctx context.Context, code string) (*MedicineForm, error) {
	for _, f := range r.byID {
		if f.Code == code {
			cp := *f
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("medicine form not found: %s", code)
}

func (r *memForms) Update(ctx context.Context, f *MedicineForm) error {
	if _, ok := r.byID[f.ID]; !ok {
		return apperror.NotFound("medicine form not found: %s", f.ID)
	}
	for _, existing := range r.byID {
		if existing.ID != f.ID && existing.Code == f.Code {
			return apperror.Conflict("record already exists")
		}
	}
	cp := *f
	r.byID[f.ID] = &cp
	return nil
}

func (r *memForms) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return apperror.NotFound("medicine form not found: %s", id)
	}
	delete(r.byID, id)
	return nil
}

func (r *memForms) List(ctx context.Context, activeOnly bool) ([]*MedicineForm, error) {
	var forms []*MedicineForm
	for _, f := range r.byID {
		if activeOnly && !f.IsActive {
			continue
		}
		cp := *f
		forms = append(forms, &cp)
	}
	return forms, nil
}

func (r *memForms) ExistsByCode(ctx context.Context, code string) (bool, error) {
	for _, f := range r.byID {
		if f.Code == code && f.IsActive {
			return true, nil
		}
	}
	return false, nil
}

type memManufacturers struct{ byID map[uuid.UUID]*Manufacturer }

func (r *memManufacturers) Create(ctx context.Context, m *Manufacturer) error {
	for _, existing := range r.byID {
		if existing.Name == m.Name {
			return apperror.Conflict("record already exists")
		}
	}
	cp := *m
	r.byID[m.ID] = &cp
	return nil
}

func (r *memManufacturers) GetByID(ctx context.Context, id uuid.UUID) (*Manufacturer, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, apperror.NotFound("manufacturer not found: %s", id)
	}
	cp := *m
	return &cp, nil
}

func (r *memManufacturers) Update(ctx context.Context, m *Manufacturer) error {
	if _, ok := r.byID[m.ID]; !ok {
		return apperror.NotFound("manufacturer not found: %s", m.ID)
	}
	cp := *m
	r.byID[m.ID] = &cp
	return nil
}

func (r *memManufacturers) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.byID[id]; !ok {
		return apperror.NotFound("manufacturer not found: %s", id)
	}
	delete(r.byID, id)
	return nil
}

func (r *memManufacturers) List(ctx context.Context, activeOnly bool) ([]*Manufacturer, error) {
	var makers []*Manufacturer
	for _, m := range r.byID {
		if activeOnly && !m.IsActive {
			continue
		}
		cp := *m
		makers = append(makers, &cp)
	}
	return makers, nil
}

func (r *memManufacturers) SearchByName(ctx context.Context, term string) ([]*Manufacturer, error) {
	var makers []*Manufacturer
	for _, m := range r.byID {
		if strings.Contains(strings.ToLower(m.Name), strings.ToLower(term)) {
			cp := *m
			makers = append(makers, &cp)
		}
	}
	return makers, nil
}

func (r *memManufacturers) ExistsByName(ctx context.Context, name string) (bool, error) {
	for _, m := range r.byID {
		if m.Name == name && m.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func newTestService() Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(
		&memForms{byID: make(map[uuid.UUID]*MedicineForm)},
		&memManufacturers{byID: make(map[uuid.UUID]*Manufacturer)},
		log,
	)
}

func TestCreateFormDuplicateCode(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	form, err := svc.CreateForm(ctx, FormRequest{Code: "tablet", Name: "Tablet"})
	require.NoError(t, err)
	assert.True(t, form.IsActive)

	_, err = svc.CreateForm(ctx, FormRequest{Code: "tablet", Name: "Tablet Again"})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestFormExistsIgnoresInactive(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	form, err := svc.CreateForm(ctx, FormRequest{Code: "syrup", Name: "Syrup"})
	require.NoError(t, err)

	ok, err := svc.FormExists(ctx, "syrup")
	require.NoError(t, err)
	assert.True(t, ok)

	inactive := false
	_, err = svc.UpdateForm(ctx, form.ID, FormRequest{
		Code: "syrup", Name: "Syrup", IsActive: &inactive,
	})
	require.NoError(t, err)

	ok, err = svc.FormExists(ctx, "syrup")
	require.NoError(t, err)
	assert.False(t, ok, "inactive forms must not validate new medicines")
}

func TestCreateFormValidation(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateForm(context.Background(), FormRequest{Code: "", Name: "No Code"})
	assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))
}

func TestManufacturerLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	country := "Denmark"
	maker, err := svc.CreateManufacturer(ctx, ManufacturerRequest{
		Name: "Novo Nordisk", Country: &country,
	})
	require.NoError(t, err)

	_, err = svc.CreateManufacturer(ctx, ManufacturerRequest{Name: "Novo Nordisk"})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	ok, err := svc.ManufacturerExists(ctx, "Novo Nordisk")
	require.NoError(t, err)
	assert.True(t, ok)

	short := "NN"
	updated, err := svc.UpdateManufacturer(ctx, maker.ID, ManufacturerRequest{
		Name: "Novo Nordisk", ShortName: &short,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ShortName)
	assert.Equal(t, "NN", *updated.ShortName)

	require.NoError(t, svc.DeleteManufacturer(ctx, maker.ID))
	_, err = svc.GetManufacturer(ctx, maker.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestGetFormByCode(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateForm(ctx, FormRequest{Code: "tablet", Name: "Tablet"})
	require.NoError(t, err)

	form, err := svc.GetFormByCode(ctx, "tablet")
	require.NoError(t, err)
	assert.Equal(t, "Tablet", form.Name)

	_, err = svc.GetFormByCode(ctx, "capsule")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestSearchManufacturers(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateManufacturer(ctx, ManufacturerRequest{Name: "Novo Nordisk"})
	require.NoError(t, err)
	_, err = svc.CreateManufacturer(ctx, ManufacturerRequest{Name: "Pfizer"})
	require.NoError(t, err)

	makers, err := svc.SearchManufacturers(ctx, "novo")
	require.NoError(t, err)
	require.Len(t, makers, 1)
	assert.Equal(t, "Novo Nordisk", makers[0].Name)
}

func TestManufacturerEmailValidation(t *testing.T) {
	svc := newTestService()

	bad := "not-an-email"
	_, err := svc.CreateManufacturer(context.Background(), ManufacturerRequest{
		Name: "Acme Pharma", Email: &bad,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))
}
