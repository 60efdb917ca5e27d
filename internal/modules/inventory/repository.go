package inventory

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// TxRunner executes fn inside a single database transaction. The service uses
// it for every multi-row write so that composite operations are all-or-nothing.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// CatalogRepository stores the descriptive half of a medicine and serves the
// joined catalog/stock listing queries.
type CatalogRepository interface {
	WithTx(tx *sql.Tx) CatalogRepository

	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	// HardDelete physically removes a medicine. Stock and barcode rows cascade;
	// existing history rows block the delete.
	HardDelete(ctx context.Context, id uuid.UUID) error

	ListActive(ctx context.Context) ([]*ItemStockRow, error)
	ListLowStock(ctx context.Context) ([]*ItemStockRow, error)
	ListOutOfStock(ctx context.Context) ([]*ItemStockRow, error)
	Search(ctx context.Context, term string) ([]*ItemStockRow, error)
}

// StockRepository stores the one quantity/price row per medicine.
type StockRepository interface {
	WithTx(tx *sql.Tx) StockRepository

	Create(ctx context.Context, s *Stock) error
	GetByMedicine(ctx context.Context, medicineID uuid.UUID) (*Stock, error)
	// GetByMedicineForUpdate locks the stock row for the duration of the
	// surrounding transaction so concurrent adjustments serialize.
	GetByMedicineForUpdate(ctx context.Context, medicineID uuid.UUID) (*Stock, error)
	Update(ctx context.Context, s *Stock) error
	Aggregate(ctx context.Context) (*Statistics, error)
}

// BarcodeRepository stores the scan identifiers of a medicine.
type BarcodeRepository interface {
	WithTx(tx *sql.Tx) BarcodeRepository

	Create(ctx context.Context, b *Barcode) error
	GetByID(ctx context.Context, id uuid.UUID) (*Barcode, error)
	GetByValue(ctx context.Context, barcode string) (*Barcode, error)
	Update(ctx context.Context, b *Barcode) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ClearPrimary unsets is_primary on every barcode of the medicine.
	ClearPrimary(ctx context.Context, medicineID uuid.UUID) error
	SetPrimary(ctx context.Context, id uuid.UUID) error
	CountForMedicine(ctx context.Context, medicineID uuid.UUID) (int, error)
	// ListForMedicine returns barcodes primary-first, then by creation time.
	ListForMedicine(ctx context.Context, medicineID uuid.UUID) ([]*Barcode, error)
	ListForMedicines(ctx context.Context, medicineIDs []uuid.UUID) (map[uuid.UUID][]*Barcode, error)
}

// HistoryRepository is the append-only audit trail. Entries are never updated
// or deleted by application paths.
type HistoryRepository interface {
	WithTx(tx *sql.Tx) HistoryRepository

	RecordStockChange(ctx context.Context, e *StockHistoryEntry) error
	RecordPriceChange(ctx context.Context, e *PriceHistoryEntry) error
	// StockHistory returns entries most recent first; limit <= 0 means no limit.
	StockHistory(ctx context.Context, medicineID uuid.UUID, limit int) ([]*StockHistoryEntry, error)
	PriceHistory(ctx context.Context, medicineID uuid.UUID, limit int) ([]*PriceHistoryEntry, error)
	// LatestStockEntry returns nil, nil when no history exists.
	LatestStockEntry(ctx context.Context, medicineID uuid.UUID) (*StockHistoryEntry, error)
}
