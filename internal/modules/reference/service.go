package reference

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/meditrack/meditrack-backend/internal/apperror"
)

// Service manages the reference data medicines point at: dosage forms and
// manufacturers. It also answers existence checks for the inventory module.
type Service interface {
	CreateForm(ctx context.Context, req FormRequest) (*MedicineForm, error)
	GetForm(ctx context.Context, id uuid.UUID) (*MedicineForm, error)
	GetFormByCode(ctx context.Context, code string) (*MedicineForm, error)
	UpdateForm(ctx context.Context, id uuid.UUID, req FormRequest) (*MedicineForm, error)
	DeleteForm(ctx context.Context, id uuid.UUID) error
	ListForms(ctx context.Context, activeOnly bool) ([]*MedicineForm, error)

	CreateManufacturer(ctx context.Context, req ManufacturerRequest) (*Manufacturer, error)
	GetManufacturer(ctx context.Context, id uuid.UUID) (*Manufacturer, error)
	UpdateManufacturer(ctx context.Context, id uuid.UUID, req ManufacturerRequest) (*Manufacturer, error)
	DeleteManufacturer(ctx context.Context, id uuid.UUID) error
	ListManufacturers(ctx context.Context, activeOnly bool) ([]*Manufacturer, error)
	SearchManufacturers(ctx context.Context, term string) ([]*Manufacturer, error)

	FormExists(ctx context.Context, code string) (bool, error)
	ManufacturerExists(ctx context.Context, name string) (bool, error)
}

// FormRequest holds data for creating or replacing a medicine form.
type FormRequest struct {
	Code         string `json:"code" validate:"required,max=50"`
	Name         string `json:"name" validate:"required,max=100"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
	IsActive     *bool  `json:"is_active"`
}

// ManufacturerRequest holds data for creating or replacing a manufacturer.
type ManufacturerRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	ShortName *string `json:"short_name" validate:"omitempty,max=50"`
	Country   *string `json:"country" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=50"`
	Email     *string `json:"email" validate:"omitempty,email,max=200"`
	Website   *string `json:"website" validate:"omitempty,max=200"`
	Notes     *string `json:"notes"`
	IsActive  *bool   `json:"is_active"`
}

type service struct {
	forms    FormRepository
	makers   ManufacturerRepository
	validate *validator.Validate
	log      *logrus.Logger
}

// NewService creates the reference data service.
func NewService(forms FormRepository, makers ManufacturerRepository, log *logrus.Logger) Service {
	if log == nil {
		log = logrus.New()
	}
	return &service{forms: forms, makers: makers, validate: validator.New(), log: log}
}

func newID() uuid.UUID { return uuid.Must(uuid.NewV7()) }

func (s *service) CreateForm(ctx context.Context, req FormRequest) (*MedicineForm, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.BadRequest("invalid request: %v", err)
	}
	now := time.Now().UTC()
	form := &MedicineForm{
		ID:           newID(),
		Code:         req.Code,
		Name:         req.Name,
		DisplayOrder: req.DisplayOrder,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.IsActive != nil {
		form.IsActive = *req.IsActive
	}
	if err := s.forms.Create(ctx, form); err != nil {
		if apperror.IsKind(err, apperror.KindConflict) {
			return nil, apperror.Conflict("medicine form code already exists: %s", req.Code)
		}
		return nil, err
	}
	s.log.WithField("code", form.Code).Info("created medicine form")
	return form, nil
}

func (s *service) GetForm(ctx context.Context, id uuid.UUID) (*MedicineForm, error) {
	return s.forms.GetByID(ctx, id)
}

func (s *service) GetFormByCode(ctx context.Context, code string) (*MedicineForm, error) {
	return s.forms.GetByCode(ctx, code)
}

func (s *service) UpdateForm(ctx context.Context, id uuid.UUID, req FormRequest) (*MedicineForm, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.BadRequest("invalid request: %v", err)
	}
	form, err := s.forms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	form.Code = req.Code
	form.Name = req.Name
	form.DisplayOrder = req.DisplayOrder
	if req.IsActive != nil {
		form.IsActive = *req.IsActive
	}
	form.UpdatedAt = time.Now().UTC()

	if err := s.forms.Update(ctx, form); err != nil {
		if apperror.IsKind(err, apperror.KindConflict) {
			return nil, apperror.Conflict("medicine form code already exists: %s", req.Code)
		}
		return nil, err
	}
	return form, nil
}

func (s *service) DeleteForm(ctx context.Context, id uuid.UUID) error {
	return s.forms.Delete(ctx, id)
}

func (s *service) ListForms(ctx context.Context, activeOnly bool) ([]*MedicineForm, error) {
	return s.forms.List(ctx, activeOnly)
}

func (s *service) CreateManufacturer(ctx context.Context, req ManufacturerRequest) (*Manufacturer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.BadRequest("invalid request: %v", err)
	}
	now := time.Now().UTC()
	maker := &Manufacturer{
		ID:        newID(),
		Name:      req.Name,
		ShortName: req.ShortName,
		Country:   req.Country,
		Phone:     req.Phone,
		Email:     req.Email,
		Website:   req.Website,
		Notes:     req.Notes,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.IsActive != nil {
		maker.IsActive = *req.IsActive
	}
	if err := s.makers.Create(ctx, maker); err != nil {
		if apperror.IsKind(err, apperror.KindConflict) {
			return nil, apperror.Conflict("manufacturer already exists: %s", req.Name)
		}
		return nil, err
	}
	s.log.WithField("name", maker.Name).Info("created manufacturer")
	return maker, nil
}

func (s *service) GetManufacturer(ctx context.Context, id uuid.UUID) (*Manufacturer, error) {
	return s.makers.GetByID(ctx, id)
}

func (s *service) UpdateManufacturer(ctx context.Context, id uuid.UUID, req ManufacturerRequest) (*Manufacturer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.BadRequest("invalid request: %v", err)
	}
	maker, err := s.makers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	maker.Name = req.Name
	maker.ShortName = req.ShortName
	maker.Country = req.Country
	maker.Phone = req.Phone
	maker.Email = req.Email
	maker.Website = req.Website
	maker.Notes = req.Notes
	if req.IsActive != nil {
		maker.IsActive = *req.IsActive
	}
	maker.UpdatedAt = time.Now().UTC()

	if err := s.makers.Update(ctx, maker); err != nil {
		if apperror.IsKind(err, apperror.KindConflict) {
			return nil, apperror.Conflict("manufacturer already exists: %s", req.Name)
		}
		return nil, err
	}
	return maker, nil
}

func (s *service) DeleteManufacturer(ctx context.Context, id uuid.UUID) error {
	return s.makers.Delete(ctx, id)
}

func (s *service) ListManufacturers(ctx context.Context, activeOnly bool) ([]*Manufacturer, error) {
	return s.makers.List(ctx, activeOnly)
}

func (s *service) SearchManufacturers(ctx context.Context, term string) ([]*Manufacturer, error) {
	return s.makers.SearchByName(ctx, term)
}

func (s *service) FormExists(ctx context.Context, code string) (bool, error) {
	return s.forms.ExistsByCode(ctx, code)
}

func (s *service) ManufacturerExists(ctx context.Context, name string) (bool, error) {
	return s.makers.ExistsByName(ctx, name)
}
