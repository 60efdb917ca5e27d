package inventory

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/meditrack/meditrack-backend/internal/apperror"
	"github.com/meditrack/meditrack-backend/internal/middleware"
)

// Service is the inventory orchestrator: the only entry point the rest of the
// application uses for the medicine catalog, stock levels, barcodes, and the
// audit trail. Every multi-row write runs inside one transaction.
type Service interface {
	// Item operations
	CreateItem(ctx context.Context, req CreateItemRequest) (*ItemView, error)
	GetItem(ctx context.Context, id uuid.UUID) (*ItemView, error)
	GetItemByBarcode(ctx context.Context, barcode string) (*ItemView, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req UpdateItemRequest) (*Medicine, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	RestoreItem(ctx context.Context, id uuid.UUID) (*ItemView, error)
	PurgeItem(ctx context.Context, id uuid.UUID) error

	// Stock operations
	SetStock(ctx context.Context, id uuid.UUID, req UpdateStockRequest) (*Stock, error)
	AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*Stock, error)

	// Barcode operations
	AddBarcode(ctx context.Context, id uuid.UUID, req BarcodeInput) (*Barcode, error)
	UpdateBarcode(ctx context.Context, barcodeID uuid.UUID, req UpdateBarcodeRequest) (*Barcode, error)
	RemoveBarcode(ctx context.Context, barcodeID uuid.UUID) error
	SetPrimaryBarcode(ctx context.Context, id, barcodeID uuid.UUID) error
	ListBarcodes(ctx context.Context, id uuid.UUID) ([]*Barcode, error)

	// Query operations
	ListActive(ctx context.Context) ([]*ItemView, error)
	LowStock(ctx context.Context) ([]*ItemView, error)
	OutOfStock(ctx context.Context) ([]*ItemView, error)
	Search(ctx context.Context, term string) ([]*ItemView, error)
	GetStatistics(ctx context.Context) (*Statistics, error)

	// History operations
	StockHistory(ctx context.Context, id uuid.UUID, limit int) ([]*StockHistoryEntry, error)
	PriceHistory(ctx context.Context, id uuid.UUID, limit int) ([]*PriceHistoryEntry, error)
	LatestStockEntry(ctx context.Context, id uuid.UUID) (*StockHistoryEntry, error)
	StockHistoryStatistics(ctx context.Context, id uuid.UUID) (*StockHistoryStatistics, error)
}

// ReferenceChecker validates medicine form and manufacturer references owned
// by the reference module.
type ReferenceChecker interface {
	FormExists(ctx context.Context, code string) (bool, error)
	ManufacturerExists(ctx context.Context, name string) (bool, error)
}

// BarcodeInput holds data for one barcode, at creation or added later.
type BarcodeInput struct {
	Barcode     string  `json:"barcode" validate:"required,min=3,max=100"`
	Type        *string `json:"barcode_type" validate:"omitempty,max=50"`
	IsPrimary   bool    `json:"is_primary"`
	Description *string `json:"description"`
}

// CreateItemRequest holds data for the composite create: catalog fields,
// initial stock, and the barcode list.
type CreateItemRequest struct {
	Name                 string          `json:"name" validate:"required,max=200"`
	GenericName          *string         `json:"generic_name" validate:"omitempty,max=200"`
	Concentration        string          `json:"concentration" validate:"required,max=50"`
	Form                 string          `json:"form" validate:"required,max=50"`
	Manufacturer         *string         `json:"manufacturer" validate:"omitempty,max=200"`
	RequiresPrescription bool            `json:"requires_prescription"`
	IsControlled         bool            `json:"is_controlled"`
	StorageInstructions  *string         `json:"storage_instructions"`
	Notes                *string         `json:"notes"`
	Quantity             int             `json:"stock_quantity" validate:"gte=0"`
	MinStockLevel        int             `json:"min_stock_level" validate:"gte=0"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	Barcodes             []BarcodeInput  `json:"barcodes" validate:"dive"`
}

// UpdateItemRequest holds partial catalog fields; absent fields are untouched.
type UpdateItemRequest struct {
	Name                 *string `json:"name" validate:"omitempty,min=1,max=200"`
	GenericName          *string `json:"generic_name" validate:"omitempty,max=200"`
	Concentration        *string `json:"concentration" validate:"omitempty,min=1,max=50"`
	Form                 *string `json:"form" validate:"omitempty,min=1,max=50"`
	Manufacturer         *string `json:"manufacturer" validate:"omitempty,max=200"`
	RequiresPrescription *bool   `json:"requires_prescription"`
	IsControlled         *bool   `json:"is_controlled"`
	StorageInstructions  *string `json:"storage_instructions"`
	Notes                *string `json:"notes"`
	IsActive             *bool   `json:"is_active"`
}

// UpdateStockRequest sets absolute stock values; absent fields are untouched.
type UpdateStockRequest struct {
	Quantity      *int             `json:"stock_quantity" validate:"omitempty,gte=0"`
	MinStockLevel *int             `json:"min_stock_level" validate:"omitempty,gte=0"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	Reason        *string          `json:"reason"`
}

// AdjustStockRequest applies a signed delta to the stock quantity.
type AdjustStockRequest struct {
	Adjustment     int            `json:"adjustment"`
	AdjustmentType AdjustmentType `json:"adjustment_type" validate:"required"`
	Reason         *string        `json:"reason"`
	ReferenceID    *uuid.UUID     `json:"reference_id"`
	ReferenceType  *string        `json:"reference_type" validate:"omitempty,max=50"`
}

// UpdateBarcodeRequest holds partial barcode fields.
type UpdateBarcodeRequest struct {
	Barcode     *string `json:"barcode" validate:"omitempty,min=3,max=100"`
	Type        *string `json:"barcode_type" validate:"omitempty,max=50"`
	Description *string `json:"description"`
}

type service struct {
	runner   TxRunner
	catalog  CatalogRepository
	stock    StockRepository
	barcodes BarcodeRepository
	history  HistoryRepository
	refs     ReferenceChecker
	cache    *redis.Client
	validate *validator.Validate
	log      *logrus.Logger
}

// NewService creates the inventory orchestrator. cache may be nil to disable
// the barcode lookup cache.
func NewService(
	runner TxRunner,
	catalog CatalogRepository,
	stock StockRepository,
	barcodes BarcodeRepository,
	history HistoryRepository,
	refs ReferenceChecker,
	cache *redis.Client,
	log *logrus.Logger,
) Service {
	if log == nil {
		log = logrus.New()
	}
	return &service{
		runner:   runner,
		catalog:  catalog,
		stock:    stock,
		barcodes: barcodes,
		history:  history,
		refs:     refs,
		cache:    cache,
		validate: validator.New(),
		log:      log,
	}
}

func newID() uuid.UUID { return uuid.Must(uuid.NewV7()) }

// ── Item operations ──────────────────────────────────────────────────────────

func (s *service) CreateItem(ctx context.Context, req CreateItemRequest) (*ItemView, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.BadRequest("invalid request: %v", err)
	}
	if req.UnitPrice.IsNegative() {
		return nil, apperror.BadRequest("invalid unit price: must not be negative")
	}
	primaries := 0
	for _, b := range req.Barcodes {
		if b.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return nil, apperror.BadRequest("at most one barcode may be marked primary")
	}
	if err := s.checkReferences(ctx, req.Form, req.Manufacturer); err != nil {
		return nil, err
	}

	actor := middleware.ActorFrom(ctx)
	now := time.Now().UTC()

	medicine := &Medicine{
		ID:                   newID(),
		Name:                 req.Name,
		GenericName:          req.GenericName,
		Concentration:        req.Concentration,
		Form:                 req.Form,
		Manufacturer:         req.Manufacturer,
		RequiresPrescription: req.RequiresPrescription,
		IsControlled:         req.IsControlled,
		StorageInstructions:  req.StorageInstructions,
		Notes:                req.Notes,
		IsActive:             true,
		CreatedBy:            actor,
		UpdatedBy:            actor,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	stock := &Stock{
		ID:            newID(),
		MedicineID:    medicine.ID,
		Quantity:      req.Quantity,
		MinStockLevel: req.MinStockLevel,
		UnitPrice:     req.UnitPrice,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Quantity > 0 {
		stock.LastRestockedAt = &now
	}

	created := make([]*Barcode, 0, len(req.Barcodes))
	for i, in := range req.Barcodes {
		b := &Barcode{
			ID:          newID(),
			MedicineID:  medicine.ID,
			Barcode:     in.Barcode,
			Type:        in.Type,
			// A single unflagged barcode becomes primary by default.
			IsPrimary:   in.IsPrimary || (i == 0 && len(req.Barcodes) == 1),
			Description: in.Description,
			CreatedAt:   now,
			CreatedBy:   actor,
		}
		created = append(created, b)
	}

	err := s.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		if err := s.catalog.WithTx(tx).Create(ctx, medicine); err != nil {
			return err
		}
		barcodeRepo := s.barcodes.WithTx(tx)
		for _, b := range created {
			if err := barcodeRepo.Create(ctx, b); err != nil {
				return err
			}
		}
		if err := s.stock.WithTx(tx).Create(ctx, stock); err != nil {
			return err
		}
		if req.Quantity > 0 {
			return s.history.WithTx(tx).RecordStockChange(ctx, &StockHistoryEntry{
				ID:             newID(),
				MedicineID:     medicine.ID,
				AdjustmentType: AdjustmentInitialStock,
				QuantityBefore: 0,
				QuantityAfter:  req.Quantity,
				Adjustment:     req.Quantity,
				RecordedAt:     now,
				RecordedBy:     actor,
			})
		}
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithField("name", req.Name).Error("failed to create inventory item")
		return nil, err
	}

	sort.SliceStable(created, func(i, j int) bool {
		return created[i].IsPrimary && !created[j].IsPrimary
	})

	s.log.WithFields(logrus.Fields{"medicine_id": medicine.ID, "name": medicine.Name}).
		Info("created inventory item")

	return &ItemView{Medicine: *medicine, Stock: *stock, Barcodes: created}, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ItemView, error) {
	medicine, err := s.catalog.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, medicine)
}

func (s *service) GetItemByBarcode(ctx context.Context, barcode string) (*ItemView, error) {
	if id, ok := s.cachedBarcodeLookup(ctx, barcode); ok {
		view, err := s.GetItem(ctx, id)
		if err == nil {
			return view, nil
		}
		// Stale mapping: drop it and fall through to the database.
		s.invalidateBarcode(ctx, barcode)
	}

	entry, err := s.barcodes.GetByValue(ctx, barcode)
	if err != nil {
		return nil, err
	}
	view, err := s.GetItem(ctx, entry.MedicineID)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return nil, apperror.NotFound("no medicine found with barcode: %s", barcode)
		}
		return nil, err
	}
	s.rememberBarcode(ctx, barcode, entry.MedicineID)
	return view, nil
}

func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, req UpdateItemRequest) (*Medicine, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.BadRequest("invalid request: %v", err)
	}

	medicine, err := s.catalog.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		medicine.Name = *req.Name
	}
	if req.GenericName != nil {
		medicine.GenericName = req.GenericName
	}
	if req.Concentration != nil {
		medicine.Concentration = *req.Concentration
	}
	if req.Form != nil {
		medicine.Form = *req.Form
	}
	if req.Manufacturer != nil {
		medicine.Manufacturer = req.Manufacturer
	}
	if req.RequiresPrescription != nil {
		medicine.RequiresPrescription = *req.RequiresPrescription
	}
	if req.IsControlled != nil {
		medicine.IsControlled = *req.IsControlled
	}
	if req.StorageInstructions != nil {
		medicine.StorageInstructions = req.StorageInstructions
	}
	if req.Notes != nil {
		medicine.Notes = req.Notes
	}
	if req.IsActive != nil {
		medicine.IsActive = *req.IsActive
	}

	if err := s.checkReferences(ctx, medicine.Form, medicine.Manufacturer); err != nil {
		return nil, err
	}

	medicine.UpdatedBy = middleware.ActorFrom(ctx)
	medicine.UpdatedAt = time.Now().UTC()

	if err := s.catalog.Update(ctx, medicine); err != nil {
		s.log.WithError(err).WithField("medicine_id", id).Error("failed to update inventory item")
		return nil, err
	}
	s.log.WithField("medicine_id", id).Info("updated inventory item")
	return medicine, nil
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.catalog.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("medicine_id", id).Info("soft deleted inventory item")
	return nil
}

func (s *service) RestoreItem(ctx context.Context, id uuid.UUID) (*ItemView, error) {
	if _, err := s.catalog.GetByID(ctx, id, true); err != nil {
		return nil, err
	}
	if err := s.catalog.Restore(ctx, id); err != nil {
		return nil, err
	}
	s.log.WithField("medicine_id", id).Info("restored inventory item")
	return s.GetItem(ctx, id)
}

// PurgeItem physically removes a soft-deleted medicine. Stock and barcodes
// cascade; audit history blocks the purge while it exists.
func (s *service) PurgeItem(ctx context.Context, id uuid.UUID) error {
	medicine, err := s.catalog.GetByID(ctx, id, true)
	if err != nil {
		return err
	}
	if medicine.DeletedAt == nil {
		return apperror.InvalidOperation("medicine must be deleted before it can be purged")
	}

	barcodes, err := s.barcodes.ListForMedicine(ctx, id)
	if err != nil {
		return err
	}
	if err := s.catalog.HardDelete(ctx, id); err != nil {
		return err
	}
	for _, b := range barcodes {
		s.invalidateBarcode(ctx, b.Barcode)
	}
	s.log.WithField("medicine_id", id).Info("purged inventory item")
	return nil
}

// ── Stock operations ─────────────────────────────────────────────────────────

func (s *service) SetStock(ctx context.Context, id uuid.UUID, req UpdateStockRequest) (*Stock, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.BadRequest("invalid request: %v", err)
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, apperror.BadRequest("invalid unit price: must not be negative")
	}

	actor := middleware.ActorFrom(ctx)
	var updated *Stock

	err := s.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		stockRepo := s.stock.WithTx(tx)
		stock, err := stockRepo.GetByMedicineForUpdate(ctx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		historyRepo := s.history.WithTx(tx)

		if req.Quantity != nil {
			if *req.Quantity != stock.Quantity {
				if err := historyRepo.RecordStockChange(ctx, &StockHistoryEntry{
					ID:             newID(),
					MedicineID:     id,
					AdjustmentType: AdjustmentManual,
					QuantityBefore: stock.Quantity,
					QuantityAfter:  *req.Quantity,
					Adjustment:     *req.Quantity - stock.Quantity,
					Reason:         req.Reason,
					RecordedAt:     now,
					RecordedBy:     actor,
				}); err != nil {
					return err
				}
			}
			stock.Quantity = *req.Quantity
			if *req.Quantity > 0 {
				stock.LastRestockedAt = &now
			}
		}
		if req.MinStockLevel != nil {
			stock.MinStockLevel = *req.MinStockLevel
		}
		if req.UnitPrice != nil {
			if !req.UnitPrice.Equal(stock.UnitPrice) {
				if err := historyRepo.RecordPriceChange(ctx, &PriceHistoryEntry{
					ID:          newID(),
					MedicineID:  id,
					PriceBefore: stock.UnitPrice,
					PriceAfter:  *req.UnitPrice,
					Reason:      req.Reason,
					RecordedAt:  now,
					RecordedBy:  actor,
				}); err != nil {
					return err
				}
			}
			stock.UnitPrice = *req.UnitPrice
		}

		stock.UpdatedAt = now
		if err := stockRepo.Update(ctx, stock); err != nil {
			return err
		}
		updated = stock
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithField("medicine_id", id).Error("failed to update stock")
		return nil, err
	}
	s.log.WithField("medicine_id", id).Info("updated stock")
	return updated, nil
}

func (s *service) AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*Stock, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.BadRequest("invalid request: %v", err)
	}
	if !req.AdjustmentType.Valid() {
		return nil, apperror.BadRequest("unknown adjustment type: %s", req.AdjustmentType)
	}

	actor := middleware.ActorFrom(ctx)
	var updated *Stock

	err := s.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		stockRepo := s.stock.WithTx(tx)
		stock, err := stockRepo.GetByMedicineForUpdate(ctx, id)
		if err != nil {
			return err
		}

		// A zero delta is a no-op: no write, no history.
		if req.Adjustment == 0 {
			updated = stock
			return nil
		}

		newQuantity := stock.Quantity + req.Adjustment
		if newQuantity < 0 {
			return apperror.InvalidOperation("stock quantity cannot be negative")
		}

		now := time.Now().UTC()
		before := stock.Quantity
		stock.Quantity = newQuantity
		if req.Adjustment > 0 {
			stock.LastRestockedAt = &now
		}
		stock.UpdatedAt = now

		if err := stockRepo.Update(ctx, stock); err != nil {
			return err
		}
		if err := s.history.WithTx(tx).RecordStockChange(ctx, &StockHistoryEntry{
			ID:             newID(),
			MedicineID:     id,
			AdjustmentType: req.AdjustmentType,
			QuantityBefore: before,
			QuantityAfter:  newQuantity,
			Adjustment:     req.Adjustment,
			Reason:         req.Reason,
			ReferenceID:    req.ReferenceID,
			ReferenceType:  req.ReferenceType,
			RecordedAt:     now,
			RecordedBy:     actor,
		}); err != nil {
			return err
		}
		updated = stock
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"medicine_id": id, "adjustment": req.Adjustment,
		}).Error("failed to adjust stock")
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"medicine_id": id, "adjustment": req.Adjustment, "type": req.AdjustmentType,
	}).Info("adjusted stock")
	return updated, nil
}

// ── Barcode operations ───────────────────────────────────────────────────────

func (s *service) AddBarcode(ctx context.Context, id uuid.UUID, req BarcodeInput) (*Barcode, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.BadRequest("invalid request: %v", err)
	}
	if _, err := s.catalog.GetByID(ctx, id, true); err != nil {
		return nil, err
	}

	barcode := &Barcode{
		ID:          newID(),
		MedicineID:  id,
		Barcode:     req.Barcode,
		Type:        req.Type,
		IsPrimary:   req.IsPrimary,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   middleware.ActorFrom(ctx),
	}

	err := s.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		barcodeRepo := s.barcodes.WithTx(tx)
		if req.IsPrimary {
			if err := barcodeRepo.ClearPrimary(ctx, id); err != nil {
				return err
			}
		}
		return barcodeRepo.Create(ctx, barcode)
	})
	if err != nil {
		return nil, err
	}
	s.rememberBarcode(ctx, barcode.Barcode, id)
	s.log.WithFields(logrus.Fields{"medicine_id": id, "barcode_id": barcode.ID}).
		Info("added barcode")
	return barcode, nil
}

func (s *service) UpdateBarcode(ctx context.Context, barcodeID uuid.UUID, req UpdateBarcodeRequest) (*Barcode, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.BadRequest("invalid request: %v", err)
	}

	barcode, err := s.barcodes.GetByID(ctx, barcodeID)
	if err != nil {
		return nil, err
	}

	oldValue := barcode.Barcode
	if req.Barcode != nil {
		barcode.Barcode = *req.Barcode
	}
	if req.Type != nil {
		barcode.Type = req.Type
	}
	if req.Description != nil {
		barcode.Description = req.Description
	}

	if err := s.barcodes.Update(ctx, barcode); err != nil {
		return nil, err
	}
	if barcode.Barcode != oldValue {
		s.invalidateBarcode(ctx, oldValue)
	}
	s.log.WithField("barcode_id", barcodeID).Info("updated barcode")
	return barcode, nil
}

func (s *service) RemoveBarcode(ctx context.Context, barcodeID uuid.UUID) error {
	barcode, err := s.barcodes.GetByID(ctx, barcodeID)
	if err != nil {
		return err
	}

	err = s.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		barcodeRepo := s.barcodes.WithTx(tx)
		count, err := barcodeRepo.CountForMedicine(ctx, barcode.MedicineID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return apperror.InvalidOperation("cannot remove the last barcode from an item")
		}
		return barcodeRepo.Delete(ctx, barcodeID)
	})
	if err != nil {
		return err
	}
	s.invalidateBarcode(ctx, barcode.Barcode)
	s.log.WithField("barcode_id", barcodeID).Info("removed barcode")
	return nil
}

func (s *service) SetPrimaryBarcode(ctx context.Context, id, barcodeID uuid.UUID) error {
	barcode, err := s.barcodes.GetByID(ctx, barcodeID)
	if err != nil {
		return err
	}
	if barcode.MedicineID != id {
		return apperror.InvalidOperation("barcode does not belong to this item")
	}

	err = s.runner.RunInTx(ctx, func(tx *sql.Tx) error {
		barcodeRepo := s.barcodes.WithTx(tx)
		if err := barcodeRepo.ClearPrimary(ctx, id); err != nil {
			return err
		}
		return barcodeRepo.SetPrimary(ctx, barcodeID)
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"medicine_id": id, "barcode_id": barcodeID}).
		Info("set primary barcode")
	return nil
}

func (s *service) ListBarcodes(ctx context.Context, id uuid.UUID) ([]*Barcode, error) {
	if _, err := s.catalog.GetByID(ctx, id, true); err != nil {
		return nil, err
	}
	return s.barcodes.ListForMedicine(ctx, id)
}

// ── Query operations ─────────────────────────────────────────────────────────

func (s *service) ListActive(ctx context.Context) ([]*ItemView, error) {
	rows, err := s.catalog.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, rows)
}

func (s *service) LowStock(ctx context.Context) ([]*ItemView, error) {
	rows, err := s.catalog.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, rows)
}

func (s *service) OutOfStock(ctx context.Context) ([]*ItemView, error) {
	rows, err := s.catalog.ListOutOfStock(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, rows)
}

func (s *service) Search(ctx context.Context, term string) ([]*ItemView, error) {
	rows, err := s.catalog.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, rows)
}

func (s *service) GetStatistics(ctx context.Context) (*Statistics, error) {
	return s.stock.Aggregate(ctx)
}

// ── History operations ───────────────────────────────────────────────────────

func (s *service) StockHistory(ctx context.Context, id uuid.UUID, limit int) ([]*StockHistoryEntry, error) {
	// History stays readable for soft-deleted items.
	if _, err := s.catalog.GetByID(ctx, id, true); err != nil {
		return nil, err
	}
	return s.history.StockHistory(ctx, id, limit)
}

func (s *service) PriceHistory(ctx context.Context, id uuid.UUID, limit int) ([]*PriceHistoryEntry, error) {
	if _, err := s.catalog.GetByID(ctx, id, true); err != nil {
		return nil, err
	}
	return s.history.PriceHistory(ctx, id, limit)
}

func (s *service) LatestStockEntry(ctx context.Context, id uuid.UUID) (*StockHistoryEntry, error) {
	if _, err := s.catalog.GetByID(ctx, id, true); err != nil {
		return nil, err
	}
	return s.history.LatestStockEntry(ctx, id)
}

func (s *service) StockHistoryStatistics(ctx context.Context, id uuid.UUID) (*StockHistoryStatistics, error) {
	if _, err := s.catalog.GetByID(ctx, id, true); err != nil {
		return nil, err
	}
	entries, err := s.history.StockHistory(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	return computeStockStatistics(entries), nil
}

// computeStockStatistics aggregates the full history of one medicine. The
// most common adjustment type breaks ties by first occurrence in the input
// (most recent first), which is stable across runs.
func computeStockStatistics(entries []*StockHistoryEntry) *StockHistoryStatistics {
	stats := &StockHistoryStatistics{TotalAdjustments: int64(len(entries))}
	if len(entries) == 0 {
		return stats
	}

	counts := make(map[AdjustmentType]int)
	var order []AdjustmentType
	for _, e := range entries {
		switch {
		case e.Adjustment > 0:
			stats.TotalAdded += int64(e.Adjustment)
		case e.Adjustment < 0:
			stats.TotalRemoved += int64(-e.Adjustment)
		}
		stats.NetChange += int64(e.Adjustment)
		if _, seen := counts[e.AdjustmentType]; !seen {
			order = append(order, e.AdjustmentType)
		}
		counts[e.AdjustmentType]++
	}

	best := order[0]
	for _, t := range order[1:] {
		if counts[t] > counts[best] {
			best = t
		}
	}
	stats.MostCommonAdjustmentType = &best
	return stats
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *service) checkReferences(ctx context.Context, form string, manufacturer *string) error {
	if s.refs == nil {
		return nil
	}
	ok, err := s.refs.FormExists(ctx, form)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.BadRequest("unknown medicine form: %s", form)
	}
	if manufacturer != nil && *manufacturer != "" {
		ok, err := s.refs.ManufacturerExists(ctx, *manufacturer)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.BadRequest("unknown manufacturer: %s", *manufacturer)
		}
	}
	return nil
}

// buildView assembles the combined read model. A missing stock row for a
// live medicine is a data-integrity error, not a NotFound.
func (s *service) buildView(ctx context.Context, medicine *Medicine) (*ItemView, error) {
	stock, err := s.stock.GetByMedicine(ctx, medicine.ID)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return nil, apperror.Internal(err, "orphaned medicine %s: stock record missing", medicine.ID)
		}
		return nil, err
	}
	barcodes, err := s.barcodes.ListForMedicine(ctx, medicine.ID)
	if err != nil {
		return nil, err
	}
	return &ItemView{Medicine: *medicine, Stock: *stock, Barcodes: barcodes}, nil
}

func (s *service) buildViews(ctx context.Context, rows []*ItemStockRow) ([]*ItemView, error) {
	views := make([]*ItemView, 0, len(rows))
	if len(rows) == 0 {
		return views, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.Medicine.ID
	}
	barcodeMap, err := s.barcodes.ListForMedicines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		views = append(views, &ItemView{
			Medicine: row.Medicine,
			Stock:    row.Stock,
			Barcodes: barcodeMap[row.Medicine.ID],
		})
	}
	return views, nil
}

// ── barcode lookup cache ─────────────────────────────────────────────────────

const barcodeCacheTTL = 24 * time.Hour

func barcodeCacheKey(barcode string) string { return "inventory:barcode:" + barcode }

func (s *service) cachedBarcodeLookup(ctx context.Context, barcode string) (uuid.UUID, bool) {
	if s.cache == nil {
		return uuid.Nil, false
	}
	val, err := s.cache.Get(ctx, barcodeCacheKey(barcode)).Result()
	if err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (s *service) rememberBarcode(ctx context.Context, barcode string, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, barcodeCacheKey(barcode), id.String(), barcodeCacheTTL).Err(); err != nil {
		s.log.WithError(err).Debug("barcode cache set failed")
	}
}

func (s *service) invalidateBarcode(ctx context.Context, barcode string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, barcodeCacheKey(barcode)).Err(); err != nil {
		s.log.WithError(err).Debug("barcode cache delete failed")
	}
}
