package reference

import (
	"context"

	"github.com/google/uuid"
)

// FormRepository persists medicine forms.
type FormRepository interface {
	Create(ctx context.Context, f *MedicineForm) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicineForm, error)
	GetByCode(ctx context.Context, code string) (*MedicineForm, error)
	Update(ctx context.Context, f *MedicineForm) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool) ([]*MedicineForm, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// ManufacturerRepository persists manufacturers.
type ManufacturerRepository interface {
	Create(ctx context.Context, m *Manufacturer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Manufacturer, error)
	Update(ctx context.Context, m *Manufacturer) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool) ([]*Manufacturer, error)
	SearchByName(ctx context.Context, term string) ([]*Manufacturer, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}
