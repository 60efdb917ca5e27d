package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdjustmentType tags a stock history entry with the business reason for the
// quantity change. Values match the stock_adjustment_type database enum.
type AdjustmentType string

const (
	AdjustmentManual       AdjustmentType = "manual_adjustment"
	AdjustmentOrderArrival AdjustmentType = "order_arrival"
	AdjustmentSale         AdjustmentType = "sale"
	AdjustmentDamage       AdjustmentType = "damage"
	AdjustmentExpiry       AdjustmentType = "expiry"
	AdjustmentReturn       AdjustmentType = "return"
	AdjustmentTransfer     AdjustmentType = "transfer"
	AdjustmentInitialStock AdjustmentType = "initial_stock"
)

// Valid reports whether t is one of the known adjustment types.
func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentManual, AdjustmentOrderArrival, AdjustmentSale, AdjustmentDamage,
		AdjustmentExpiry, AdjustmentReturn, AdjustmentTransfer, AdjustmentInitialStock:
		return true
	}
	return false
}

// Medicine is the catalog half of an inventory item: identity plus
// descriptive fields, independent of how much is in stock.
type Medicine struct {
	ID                   uuid.UUID  `json:"id"`
	Name                 string     `json:"name"`
	GenericName          *string    `json:"generic_name,omitempty"`
	Concentration        string     `json:"concentration"`
	Form                 string     `json:"form"`
	Manufacturer         *string    `json:"manufacturer,omitempty"`
	RequiresPrescription bool       `json:"requires_prescription"`
	IsControlled         bool       `json:"is_controlled"`
	StorageInstructions  *string    `json:"storage_instructions,omitempty"`
	Notes                *string    `json:"notes,omitempty"`
	IsActive             bool       `json:"is_active"`
	CreatedBy            *uuid.UUID `json:"created_by,omitempty"`
	UpdatedBy            *uuid.UUID `json:"updated_by,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	DeletedAt            *time.Time `json:"deleted_at,omitempty"`
}

// Stock is the single mutable quantity/price record for one medicine.
// Quantity is never negative; every quantity or price change writes a
// matching history entry in the same transaction.
type Stock struct {
	ID              uuid.UUID       `json:"id"`
	MedicineID      uuid.UUID       `json:"medicine_id"`
	Quantity        int             `json:"stock_quantity"`
	MinStockLevel   int             `json:"min_stock_level"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	LastRestockedAt *time.Time      `json:"last_restocked_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Barcode is one of possibly many scan identifiers for a medicine. The
// barcode value is unique across all medicines; at most one barcode per
// medicine is primary.
type Barcode struct {
	ID          uuid.UUID  `json:"id"`
	MedicineID  uuid.UUID  `json:"medicine_id"`
	Barcode     string     `json:"barcode"`
	Type        *string    `json:"barcode_type,omitempty"`
	IsPrimary   bool       `json:"is_primary"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
}

// StockHistoryEntry is an immutable record of one stock quantity change.
type StockHistoryEntry struct {
	ID             uuid.UUID      `json:"id"`
	MedicineID     uuid.UUID      `json:"medicine_id"`
	AdjustmentType AdjustmentType `json:"adjustment_type"`
	QuantityBefore int            `json:"quantity_before"`
	QuantityAfter  int            `json:"quantity_after"`
	Adjustment     int            `json:"adjustment_amount"`
	Reason         *string        `json:"reason,omitempty"`
	ReferenceID    *uuid.UUID     `json:"reference_id,omitempty"`
	ReferenceType  *string        `json:"reference_type,omitempty"`
	RecordedAt     time.Time      `json:"recorded_at"`
	RecordedBy     *uuid.UUID     `json:"recorded_by,omitempty"`
}

// PriceHistoryEntry is an immutable record of one unit price change.
type PriceHistoryEntry struct {
	ID          uuid.UUID       `json:"id"`
	MedicineID  uuid.UUID       `json:"medicine_id"`
	PriceBefore decimal.Decimal `json:"price_before"`
	PriceAfter  decimal.Decimal `json:"price_after"`
	Reason      *string         `json:"reason,omitempty"`
	RecordedAt  time.Time       `json:"recorded_at"`
	RecordedBy  *uuid.UUID      `json:"recorded_by,omitempty"`
}

// ItemView is the combined catalog + stock + barcodes read model returned by
// the service's item queries.
type ItemView struct {
	Medicine
	Stock    Stock      `json:"stock"`
	Barcodes []*Barcode `json:"barcodes"`
}

// ItemStockRow is one row of a joined catalog/stock listing query.
type ItemStockRow struct {
	Medicine Medicine
	Stock    Stock
}

// StockHistoryStatistics aggregates the full stock history of one medicine.
type StockHistoryStatistics struct {
	TotalAdjustments         int64           `json:"total_adjustments"`
	TotalAdded               int64           `json:"total_added"`
	TotalRemoved             int64           `json:"total_removed"`
	NetChange                int64           `json:"net_change"`
	MostCommonAdjustmentType *AdjustmentType `json:"most_common_adjustment_type,omitempty"`
}

// Statistics is the inventory-wide aggregate view.
type Statistics struct {
	TotalItems          int64           `json:"total_items"`
	ActiveItems         int64           `json:"active_items"`
	InactiveItems       int64           `json:"inactive_items"`
	LowStockCount       int64           `json:"low_stock_count"`
	OutOfStockCount     int64           `json:"out_of_stock_count"`
	TotalInventoryValue decimal.Decimal `json:"total_inventory_value"`
}
