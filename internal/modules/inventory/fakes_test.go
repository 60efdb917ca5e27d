package inventory

import (
	"context"
	"database/sql"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/meditrack/meditrack-backend/internal/apperror"
)

// memStore is a shared in-memory backing store for the fake repositories. The
// fake transaction runner snapshots it before the callback and restores the
// snapshot on error, mirroring a rollback.
type memStore struct {
	medicines map[uuid.UUID]*Medicine
	stocks    map[uuid.UUID]*Stock // keyed by medicine id
	barcodes  map[uuid.UUID]*Barcode
	stockHist []*StockHistoryEntry
	priceHist []*PriceHistoryEntry
}

func newMemStore() *memStore {
	return &memStore{
		medicines: make(map[uuid.UUID]*Medicine),
		stocks:    make(map[uuid.UUID]*Stock),
		barcodes:  make(map[uuid.UUID]*Barcode),
	}
}

func (s *memStore) snapshot() *memStore {
	c := newMemStore()
	for k, v := range s.medicines {
		cp := *v
		c.medicines[k] = &cp
	}
	for k, v := range s.stocks {
		cp := *v
		c.stocks[k] = &cp
	}
	for k, v := range s.barcodes {
		cp := *v
		c.barcodes[k] = &cp
	}
	c.stockHist = append([]*StockHistoryEntry(nil), s.stockHist...)
	c.priceHist = append([]*PriceHistoryEntry(nil), s.priceHist...)
	return c
}

func (s *memStore) restore(from *memStore) {
	s.medicines = from.medicines
	s.stocks = from.stocks
	s.barcodes = from.barcodes
	s.stockHist = from.stockHist
	s.priceHist = from.priceHist
}

type memTxRunner struct{ store *memStore }

func (r *memTxRunner) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	saved := r.store.snapshot()
	if err := fn(nil); err != nil {
		r.store.restore(saved)
		return err
	}
	return nil
}

// ── catalog ──────────────────────────────────────────────────────────────────

type memCatalog struct{ store *memStore }

func (r *memCatalog) WithTx(tx *sql.Tx) CatalogRepository { return r }

func (r *memCatalog) Create(ctx context.Context, m *Medicine) error {
	if _, ok := r.store.medicines[m.ID]; ok {
		return apperror.Conflict("medicine already exists")
	}
	cp := *m
	r.store.medicines[m.ID] = &cp
	return nil
}

func (r *memCatalog) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Medicine, error) {
	m, ok := r.store.medicines[id]
	if !ok || (!includeDeleted && m.DeletedAt != nil) {
		return nil, apperror.NotFound("medicine not found: %s", id)
	}
	cp := *m
	return &cp, nil
}

func (r *memCatalog) Update(ctx context.Context, m *Medicine) error {
	existing, ok := r.store.medicines[m.ID]
	if !ok || existing.DeletedAt != nil {
		return apperror.NotFound("medicine not found: %s", m.ID)
	}
	cp := *m
	r.store.medicines[m.ID] = &cp
	return nil
}

func (r *memCatalog) SoftDelete(ctx context.Context, id uuid.UUID) error {
	m, ok := r.store.medicines[id]
	if !ok || m.DeletedAt != nil {
		return apperror.NotFound("medicine not found: %s", id)
	}
	now := m.UpdatedAt
	m.DeletedAt = &now
	m.IsActive = false
	return nil
}

func (r *memCatalog) Restore(ctx context.Context, id uuid.UUID) error {
	m, ok := r.store.medicines[id]
	if !ok {
		return apperror.NotFound("medicine not found: %s", id)
	}
	m.DeletedAt = nil
	m.IsActive = true
	return nil
}

func (r *memCatalog) HardDelete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.store.medicines[id]; !ok {
		return apperror.NotFound("medicine not found: %s", id)
	}
	for _, e := range r.store.stockHist {
		if e.MedicineID == id {
			return apperror.Conflict("still referenced by other records")
		}
	}
	delete(r.store.medicines, id)
	delete(r.store.stocks, id)
	for bid, b := range r.store.barcodes {
		if b.MedicineID == id {
			delete(r.store.barcodes, bid)
		}
	}
	return nil
}

func (r *memCatalog) rows(filter func(m *Medicine, s *Stock) bool) []*ItemStockRow {
	var rows []*ItemStockRow
	for id, m := range r.store.medicines {
		s, ok := r.store.stocks[id]
		if !ok || !filter(m, s) {
			continue
		}
		rows = append(rows, &ItemStockRow{Medicine: *m, Stock: *s})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Medicine.Name < rows[j].Medicine.Name })
	return rows
}

func (r *memCatalog) ListActive(ctx context.Context) ([]*ItemStockRow, error) {
	return r.rows(func(m *Medicine, s *Stock) bool {
		return m.IsActive && m.DeletedAt == nil
	}), nil
}

func (r *memCatalog) ListLowStock(ctx context.Context) ([]*ItemStockRow, error) {
	return r.rows(func(m *Medicine, s *Stock) bool {
		return m.IsActive && m.DeletedAt == nil && s.Quantity <= s.MinStockLevel
	}), nil
}

func (r *memCatalog) ListOutOfStock(ctx context.Context) ([]*ItemStockRow, error) {
	return r.rows(func(m *Medicine, s *Stock) bool {
		return m.IsActive && m.DeletedAt == nil && s.Quantity == 0
	}), nil
}

func (r *memCatalog) Search(ctx context.Context, term string) ([]*ItemStockRow, error) {
	needle := strings.ToLower(term)
	return r.rows(func(m *Medicine, s *Stock) bool {
		if m.DeletedAt != nil {
			return false
		}
		if strings.Contains(strings.ToLower(m.Name), needle) {
			return true
		}
		return m.GenericName != nil && strings.Contains(strings.ToLower(*m.GenericName), needle)
	}), nil
}

// ── stock ────────────────────────────────────────────────────────────────────

type memStock struct{ store *memStore }

func (r *memStock) WithTx(tx *sql.Tx) StockRepository { return r }

func (r *memStock) Create(ctx context.Context, s *Stock) error {
	if _, ok := r.store.stocks[s.MedicineID]; ok {
		return apperror.Conflict("stock record already exists")
	}
	cp := *s
	r.store.stocks[s.MedicineID] = &cp
	return nil
}

func (r *memStock) GetByMedicine(ctx context.Context, medicineID uuid.UUID) (*Stock, error) {
	s, ok := r.store.stocks[medicineID]
	if !ok {
		return nil, apperror.NotFound("stock record not found for medicine: %s", medicineID)
	}
	cp := *s
	return &cp, nil
}

func (r *memStock) GetByMedicineForUpdate(ctx context.Context, medicineID uuid.UUID) (*Stock, error) {
	return r.GetByMedicine(ctx, medicineID)
}

func (r *memStock) Update(ctx context.Context, s *Stock) error {
	existing, ok := r.store.stocks[s.MedicineID]
	if !ok || existing.ID != s.ID {
		return apperror.NotFound("stock record not found: %s", s.ID)
	}
	cp := *s
	r.store.stocks[s.MedicineID] = &cp
	return nil
}

func (r *memStock) Aggregate(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{TotalInventoryValue: decimal.Zero}
	for id, m := range r.store.medicines {
		if m.DeletedAt != nil {
			continue
		}
		s, ok := r.store.stocks[id]
		if !ok {
			continue
		}
		stats.TotalItems++
		if m.IsActive {
			stats.ActiveItems++
			if s.Quantity <= s.MinStockLevel {
				stats.LowStockCount++
			}
			if s.Quantity == 0 {
				stats.OutOfStockCount++
			}
		}
		stats.TotalInventoryValue = stats.TotalInventoryValue.
			Add(s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity))))
	}
	stats.InactiveItems = stats.TotalItems - stats.ActiveItems
	return stats, nil
}

// ── barcodes ─────────────────────────────────────────────────────────────────

type memBarcodes struct{ store *memStore }

func (r *memBarcodes) WithTx(tx *sql.Tx) BarcodeRepository { return r }

func (r *memBarcodes) Create(ctx context.Context, b *Barcode) error {
	for _, existing := range r.store.barcodes {
		if existing.Barcode == b.Barcode {
			return apperror.Conflict("record already exists")
		}
		if b.IsPrimary && existing.IsPrimary && existing.MedicineID == b.MedicineID {
			return apperror.Conflict("record already exists")
		}
	}
	cp := *b
	r.store.barcodes[b.ID] = &cp
	return nil
}

func (r *memBarcodes) GetByID(ctx context.Context, id uuid.UUID) (*Barcode, error) {
	b, ok := r.store.barcodes[id]
	if !ok {
		return nil, apperror.NotFound("barcode not found: %s", id)
	}
	cp := *b
	return &cp, nil
}

func (r *memBarcodes) GetByValue(ctx context.Context, barcode string) (*Barcode, error) {
	for _, b := range r.store.barcodes {
		if b.Barcode == barcode {
			cp := *b
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("no medicine found with barcode: %s", barcode)
}

func (r *memBarcodes) Update(ctx context.Context, b *Barcode) error {
	if _, ok := r.store.barcodes[b.ID]; !ok {
		return apperror.NotFound("barcode not found: %s", b.ID)
	}
	for _, existing := range r.store.barcodes {
		if existing.ID != b.ID && existing.Barcode == b.Barcode {
			return apperror.Conflict("record already exists")
		}
	}
	cp := *b
	r.store.barcodes[b.ID] = &cp
	return nil
}

func (r *memBarcodes) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.store.barcodes[id]; !ok {
		return apperror.NotFound("barcode not found: %s", id)
	}
	delete(r.store.barcodes, id)
	return nil
}

func (r *memBarcodes) ClearPrimary(ctx context.Context, medicineID uuid.UUID) error {
	for _, b := range r.store.barcodes {
		if b.MedicineID == medicineID {
			b.IsPrimary = false
		}
	}
	return nil
}

func (r *memBarcodes) SetPrimary(ctx context.Context, id uuid.UUID) error {
	b, ok := r.store.barcodes[id]
	if !ok {
		return apperror.NotFound("barcode not found: %s", id)
	}
	b.IsPrimary = true
	return nil
}

func (r *memBarcodes) CountForMedicine(ctx context.Context, medicineID uuid.UUID) (int, error) {
	n := 0
	for _, b := range r.store.barcodes {
		if b.MedicineID == medicineID {
			n++
		}
	}
	return n, nil
}

func (r *memBarcodes) ListForMedicine(ctx context.Context, medicineID uuid.UUID) ([]*Barcode, error) {
	var list []*Barcode
	for _, b := range r.store.barcodes {
		if b.MedicineID == medicineID {
			cp := *b
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].IsPrimary != list[j].IsPrimary {
			return list[i].IsPrimary
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (r *memBarcodes) ListForMedicines(ctx context.Context, medicineIDs []uuid.UUID) (map[uuid.UUID][]*Barcode, error) {
	result := make(map[uuid.UUID][]*Barcode, len(medicineIDs))
	for _, id := range medicineIDs {
		list, _ := r.ListForMedicine(ctx, id)
		if len(list) > 0 {
			result[id] = list
		}
	}
	return result, nil
}

// ── history ──────────────────────────────────────────────────────────────────

type memHistory struct{ store *memStore }

func (r *memHistory) WithTx(tx *sql.Tx) HistoryRepository { return r }

func (r *memHistory) RecordStockChange(ctx context.Context, e *StockHistoryEntry) error {
	cp := *e
	r.store.stockHist = append(r.store.stockHist, &cp)
	return nil
}

func (r *memHistory) RecordPriceChange(ctx context.Context, e *PriceHistoryEntry) error {
	cp := *e
	r.store.priceHist = append(r.store.priceHist, &cp)
	return nil
}

func (r *memHistory) StockHistory(ctx context.Context, medicineID uuid.UUID, limit int) ([]*StockHistoryEntry, error) {
	var entries []*StockHistoryEntry
	// Appended in chronological order; served most recent first.
	for i := len(r.store.stockHist) - 1; i >= 0; i-- {
		if r.store.stockHist[i].MedicineID == medicineID {
			cp := *r.store.stockHist[i]
			entries = append(entries, &cp)
			if limit > 0 && len(entries) == limit {
				break
			}
		}
	}
	return entries, nil
}

func (r *memHistory) PriceHistory(ctx context.Context, medicineID uuid.UUID, limit int) ([]*PriceHistoryEntry, error) {
	var entries []*PriceHistoryEntry
	for i := len(r.store.priceHist) - 1; i >= 0; i-- {
		if r.store.priceHist[i].MedicineID == medicineID {
			cp := *r.store.priceHist[i]
			entries = append(entries, &cp)
			if limit > 0 && len(entries) == limit {
				break
			}
		}
	}
	return entries, nil
}

func (r *memHistory) LatestStockEntry(ctx context.Context, medicineID uuid.UUID) (*StockHistoryEntry, error) {
	entries, _ := r.StockHistory(ctx, medicineID, 1)
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// ── reference checker ────────────────────────────────────────────────────────

type fakeRefs struct {
	forms  map[string]bool
	makers map[string]bool
}

func allowAllRefs() *fakeRefs { return &fakeRefs{} }

func (f *fakeRefs) FormExists(ctx context.Context, code string) (bool, error) {
	if f.forms == nil {
		return true, nil
	}
	return f.forms[code], nil
}

func (f *fakeRefs) ManufacturerExists(ctx context.Context, name string) (bool, error) {
	if f.makers == nil {
		return true, nil
	}
	return f.makers[name], nil
}

// ── wiring ───────────────────────────────────────────────────────────────────

type testEnv struct {
	store *memStore
	svc   Service
}

func newTestEnv() *testEnv {
	return newTestEnvWithRefs(allowAllRefs())
}

func newTestEnvWithRefs(refs ReferenceChecker) *testEnv {
	store := newMemStore()
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewService(
		&memTxRunner{store: store},
		&memCatalog{store: store},
		&memStock{store: store},
		&memBarcodes{store: store},
		&memHistory{store: store},
		refs,
		nil,
		log,
	)
	return &testEnv{store: store, svc: svc}
}
