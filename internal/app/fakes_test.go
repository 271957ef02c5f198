package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ManuelRichardt/ausleihe-sub001/internal/clock"
	"github.com/ManuelRichardt/ausleihe-sub001/internal/domain"
)

// fakeStore is a single in-memory backend implementing every repository
// interface the services consume. WithTx snapshots the state and restores it
// when the callback fails, mirroring the rollback behavior of the real
// storage layer so atomicity assertions hold.
type fakeStore struct {
	models    map[string]domain.AssetModel
	assets    map[string]domain.Asset
	stocks    map[string]domain.StockLevel
	bundles   map[string]domain.BundleDefinition
	locations map[string]domain.Location
	loans     map[string]domain.Loan
	items     []domain.LoanItem
	maint     map[string]domain.Maintenance
	notes     []domain.MaintenanceNote
	fields    map[string]domain.FieldDefinition
	values    map[string]domain.FieldValue

	lockedModels []string
	txDepth      int
	bareWrites   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		models:    map[string]domain.AssetModel{},
		assets:    map[string]domain.Asset{},
		stocks:    map[string]domain.StockLevel{},
		bundles:   map[string]domain.BundleDefinition{},
		locations: map[string]domain.Location{},
		loans:     map[string]domain.Loan{},
		maint:     map[string]domain.Maintenance{},
		fields:    map[string]domain.FieldDefinition{},
		values:    map[string]domain.FieldValue{},
	}
}

func stockKey(modelID, locationID string) string {
	return modelID + "|" + locationID
}

func (f *fakeStore) snapshot() *fakeStore {
	c := newFakeStore()
	for k, v := range f.models {
		c.models[k] = v
	}
	for k, v := range f.assets {
		c.assets[k] = v
	}
	for k, v := range f.stocks {
		c.stocks[k] = v
	}
	for k, v := range f.bundles {
		c.bundles[k] = v
	}
	for k, v := range f.locations {
		c.locations[k] = v
	}
	for k, v := range f.loans {
		c.loans[k] = v
	}
	for k, v := range f.maint {
		c.maint[k] = v
	}
	for k, v := range f.fields {
		c.fields[k] = v
	}
	for k, v := range f.values {
		c.values[k] = v
	}
	c.items = append([]domain.LoanItem{}, f.items...)
	c.notes = append([]domain.MaintenanceNote{}, f.notes...)
	return c
}

func (f *fakeStore) restore(snap *fakeStore) {
	f.models = snap.models
	f.assets = snap.assets
	f.stocks = snap.stocks
	f.bundles = snap.bundles
	f.locations = snap.locations
	f.loans = snap.loans
	f.items = snap.items
	f.maint = snap.maint
	f.notes = snap.notes
	f.fields = snap.fields
	f.values = snap.values
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := f.snapshot()
	f.txDepth++
	err := fn(ctx)
	f.txDepth--
	if err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

// noteBareWrite records a multi-statement write issued outside any
// transaction, so tests can assert those never autocommit piecewise.
func (f *fakeStore) noteBareWrite(op string) {
	if f.txDepth == 0 {
		f.bareWrites = append(f.bareWrites, op)
	}
}

// --- StockRepository ---

func (f *fakeStore) GetStock(_ context.Context, modelID, locationID string) (domain.StockLevel, error) {
	lvl, ok := f.stocks[stockKey(modelID, locationID)]
	if !ok {
		return domain.StockLevel{}, domain.ErrStockNotFound
	}
	return lvl, nil
}

func (f *fakeStore) GetStockForUpdate(ctx context.Context, modelID, locationID string) (domain.StockLevel, error) {
	return f.GetStock(ctx, modelID, locationID)
}

func (f *fakeStore) CreateStock(_ context.Context, lvl domain.StockLevel) error {
	key := stockKey(lvl.ModelID, lvl.LocationID)
	if _, ok := f.stocks[key]; ok {
		// Duplicate insert is swallowed, matching the repository's unique
		// violation handling.
		return nil
	}
	f.stocks[key] = lvl
	return nil
}

func (f *fakeStore) SaveStock(_ context.Context, lvl domain.StockLevel) error {
	key := stockKey(lvl.ModelID, lvl.LocationID)
	if _, ok := f.stocks[key]; !ok {
		return domain.ErrStockNotFound
	}
	f.stocks[key] = lvl
	return nil
}

// --- CatalogStore / CatalogAdminStore ---

func (f *fakeStore) GetModel(_ context.Context, id string) (domain.AssetModel, error) {
	m, ok := f.models[id]
	if !ok {
		return domain.AssetModel{}, domain.ErrAssetModelNotFound
	}
	return m, nil
}

func (f *fakeStore) GetModelForUpdate(ctx context.Context, id string) (domain.AssetModel, error) {
	m, err := f.GetModel(ctx, id)
	if err == nil {
		f.lockedModels = append(f.lockedModels, id)
	}
	return m, err
}

func (f *fakeStore) CreateModel(_ context.Context, m domain.AssetModel) error {
	f.models[m.ID] = m
	return nil
}

func (f *fakeStore) CreateAsset(_ context.Context, a domain.Asset) error {
	for _, existing := range f.assets {
		if existing.Code == a.Code {
			return domain.ErrDuplicateAssetCode
		}
	}
	f.assets[a.ID] = a
	return nil
}

func (f *fakeStore) SoftDeleteAsset(_ context.Context, assetID string) error {
	a, ok := f.assets[assetID]
	if !ok || a.DeletedAt != nil {
		return domain.ErrAssetNotFound
	}
	now := time.Now()
	a.DeletedAt = &now
	f.assets[assetID] = a
	return nil
}

func (f *fakeStore) SearchAssets(_ context.Context, q AssetSearch) ([]domain.Asset, error) {
	var out []domain.Asset
	for _, a := range f.assets {
		if !q.IncludeDeleted && a.DeletedAt != nil {
			continue
		}
		if q.ModelID != "" && a.ModelID != q.ModelID {
			continue
		}
		if q.LocationID != "" && a.LocationID != q.LocationID {
			continue
		}
		if q.Query != "" && !strings.Contains(strings.ToLower(a.Code), strings.ToLower(q.Query)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeStore) ListAssetCodes(_ context.Context, locationID string) ([]string, error) {
	var out []string
	for _, a := range f.assets {
		if a.DeletedAt != nil || a.LocationID != locationID {
			continue
		}
		out = append(out, a.Code)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeStore) CreateLocation(_ context.Context, l domain.Location) error {
	f.noteBareWrite("create_location")
	f.locations[l.ID] = l
	return nil
}

func (f *fakeStore) GetLocation(_ context.Context, id string) (domain.Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return domain.Location{}, domain.ErrLocationNotFound
	}
	return l, nil
}

func (f *fakeStore) GetFieldDefinition(_ context.Context, id string) (domain.FieldDefinition, error) {
	def, ok := f.fields[id]
	if !ok {
		return domain.FieldDefinition{}, domain.ErrFieldNotFound
	}
	return def, nil
}

func (f *fakeStore) CreateFieldDefinition(_ context.Context, def domain.FieldDefinition) error {
	f.fields[def.ID] = def
	return nil
}

func (f *fakeStore) SaveFieldValue(_ context.Context, assetID string, v domain.FieldValue) error {
	if _, ok := f.assets[assetID]; !ok {
		return domain.ErrAssetNotFound
	}
	f.values[assetID+"|"+v.FieldID] = v
	return nil
}

// --- BundleStore / BundleWriter ---

func (f *fakeStore) GetDefinition(_ context.Context, id string) (domain.BundleDefinition, error) {
	def, ok := f.bundles[id]
	if !ok {
		return domain.BundleDefinition{}, domain.ErrBundleNotFound
	}
	return def, nil
}

func (f *fakeStore) GetDefinitionByModel(_ context.Context, modelID string) (domain.BundleDefinition, error) {
	for _, def := range f.bundles {
		if def.ModelID == modelID {
			return def, nil
		}
	}
	return domain.BundleDefinition{}, domain.ErrBundleNotFound
}

func (f *fakeStore) CreateBundleDefinition(_ context.Context, def domain.BundleDefinition) error {
	f.noteBareWrite("create_bundle_definition")
	f.bundles[def.ID] = def
	return nil
}

// --- LoanStore ---

func (f *fakeStore) CreateLoan(_ context.Context, loan domain.Loan) error {
	f.loans[loan.ID] = loan
	return nil
}

func (f *fakeStore) GetLoan(_ context.Context, id string) (domain.Loan, error) {
	loan, ok := f.loans[id]
	if !ok {
		return domain.Loan{}, domain.ErrLoanNotFound
	}
	return loan, nil
}

func (f *fakeStore) GetLoanForUpdate(ctx context.Context, id string) (domain.Loan, error) {
	return f.GetLoan(ctx, id)
}

func (f *fakeStore) SaveLoan(_ context.Context, loan domain.Loan) error {
	if _, ok := f.loans[loan.ID]; !ok {
		return domain.ErrLoanNotFound
	}
	loan.Items = nil
	f.loans[loan.ID] = loan
	return nil
}

// --- ItemStore ---

func (f *fakeStore) CreateItem(_ context.Context, item domain.LoanItem) error {
	f.items = append(f.items, item)
	return nil
}

func (f *fakeStore) GetItem(_ context.Context, itemID string) (domain.LoanItem, error) {
	for _, item := range f.items {
		if item.ID == itemID {
			return item, nil
		}
	}
	return domain.LoanItem{}, domain.ErrLoanItemNotFound
}

func (f *fakeStore) SaveItem(_ context.Context, item domain.LoanItem) error {
	for i := range f.items {
		if f.items[i].ID == item.ID {
			f.items[i] = item
			return nil
		}
	}
	return domain.ErrLoanItemNotFound
}

func (f *fakeStore) DeleteItem(_ context.Context, itemID string) error {
	for i := range f.items {
		if f.items[i].ID == itemID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrLoanItemNotFound
}

func (f *fakeStore) ListItemsByLoan(_ context.Context, loanID string) ([]domain.LoanItem, error) {
	var out []domain.LoanItem
	for _, item := range f.items {
		if item.LoanID == loanID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeStore) ListItemsByParent(_ context.Context, parentID string) ([]domain.LoanItem, error) {
	var out []domain.LoanItem
	for _, item := range f.items {
		if item.ParentID != nil && *item.ParentID == parentID {
			out = append(out, item)
		}
	}
	return out, nil
}

// --- AssetStore / AvailabilityRepository / AssetPicker ---

func (f *fakeStore) GetAsset(_ context.Context, id string, includeDeleted bool) (domain.Asset, error) {
	a, ok := f.assets[id]
	if !ok {
		return domain.Asset{}, domain.ErrAssetNotFound
	}
	if !includeDeleted && a.DeletedAt != nil {
		return domain.Asset{}, domain.ErrAssetNotFound
	}
	return a, nil
}

func (f *fakeStore) SaveAssetCondition(_ context.Context, assetID string, cond domain.AssetCondition) error {
	a, ok := f.assets[assetID]
	if !ok {
		return domain.ErrAssetNotFound
	}
	a.Condition = cond
	f.assets[assetID] = a
	return nil
}

func (f *fakeStore) CountLoanableAssets(_ context.Context, modelID, locationID string) (int, error) {
	count := 0
	for _, a := range f.assets {
		if a.ModelID == modelID && a.LocationID == locationID && a.Loanable() {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) itemBlocks(item domain.LoanItem, from, until time.Time) bool {
	if item.AssetID == nil {
		return false
	}
	if item.Status != domain.ItemStatusReserved && item.Status != domain.ItemStatusHandedOver {
		return false
	}
	loan, ok := f.loans[item.LoanID]
	if !ok {
		return false
	}
	return loan.Blocks(from, until)
}

func (f *fakeStore) CountBlockingItems(_ context.Context, modelID string, from, until time.Time) (int, error) {
	count := 0
	for _, item := range f.items {
		if item.ModelID == modelID && f.itemBlocks(item, from, until) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CountBlockingItemsForAsset(_ context.Context, assetID string, from, until time.Time) (int, error) {
	count := 0
	for _, item := range f.items {
		if item.AssetID != nil && *item.AssetID == assetID && f.itemBlocks(item, from, until) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CountHeldElsewhere(_ context.Context, assetID, excludeLoanID string) (int, error) {
	count := 0
	for _, item := range f.items {
		if item.AssetID == nil || *item.AssetID != assetID || item.LoanID == excludeLoanID {
			continue
		}
		if item.Status != domain.ItemStatusReserved && item.Status != domain.ItemStatusHandedOver {
			continue
		}
		loan, ok := f.loans[item.LoanID]
		if !ok {
			continue
		}
		if loan.Status == domain.LoanStatusHandedOver || loan.Status == domain.LoanStatusOverdue {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) PickFreeAssets(_ context.Context, modelID, locationID string, from, until time.Time, qty int) ([]domain.Asset, error) {
	var candidates []domain.Asset
	for _, a := range f.assets {
		if a.ModelID != modelID || a.LocationID != locationID || !a.Loanable() {
			continue
		}
		blocked := false
		for _, item := range f.items {
			if item.AssetID != nil && *item.AssetID == a.ID && f.itemBlocks(item, from, until) {
				blocked = true
				break
			}
		}
		if !blocked {
			candidates = append(candidates, a)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Code < candidates[j].Code })
	if len(candidates) > qty {
		candidates = candidates[:qty]
	}
	return candidates, nil
}

// --- MaintenanceStore ---

func (f *fakeStore) CreateMaintenance(_ context.Context, m domain.Maintenance) error {
	f.maint[m.ID] = m
	return nil
}

func (f *fakeStore) GetMaintenance(_ context.Context, id string) (domain.Maintenance, error) {
	m, ok := f.maint[id]
	if !ok {
		return domain.Maintenance{}, domain.ErrMaintenanceNotFound
	}
	return m, nil
}

func (f *fakeStore) GetMaintenanceForUpdate(ctx context.Context, id string) (domain.Maintenance, error) {
	return f.GetMaintenance(ctx, id)
}

func (f *fakeStore) SaveMaintenance(_ context.Context, m domain.Maintenance) error {
	if _, ok := f.maint[m.ID]; !ok {
		return domain.ErrMaintenanceNotFound
	}
	f.maint[m.ID] = m
	return nil
}

func (f *fakeStore) AppendNote(_ context.Context, note domain.MaintenanceNote) error {
	f.notes = append(f.notes, note)
	return nil
}

func (f *fakeStore) ListNotes(_ context.Context, maintenanceID string) ([]domain.MaintenanceNote, error) {
	var out []domain.MaintenanceNote
	for _, n := range f.notes {
		if n.MaintenanceID == maintenanceID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeStore) ListMaintenanceByAsset(_ context.Context, assetID string) ([]domain.Maintenance, error) {
	var out []domain.Maintenance
	for _, m := range f.maint {
		if m.AssetID == assetID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// capturingRecorder collects audit events for assertions.
type capturingRecorder struct {
	events []domain.AuditEvent
}

func (r *capturingRecorder) Record(_ context.Context, ev domain.AuditEvent) {
	r.events = append(r.events, ev)
}

// testServices is the full service stack wired over one fakeStore.
type testServices struct {
	store       *fakeStore
	audit       *capturingRecorder
	stock       *StockService
	avail       *AvailabilityService
	ledger      *ItemLedger
	bundles     *BundleService
	loans       *LoanService
	catalog     *CatalogService
	maintenance *MaintenanceService
}

func newTestServices(now time.Time) *testServices {
	store := newFakeStore()
	rec := &capturingRecorder{}
	clk := clock.NewFixed(now)

	stock := NewStockService(store, clk)
	avail := NewAvailabilityService(store)
	ledger := NewItemLedger(store, rec, clk)
	bundles := NewBundleService(store, store, stock, avail, store, ledger)
	loans := NewLoanService(LoanServiceDeps{
		Loans:     store,
		Items:     store,
		Assets:    store,
		Locations: store,
		Catalog:   store,
		Picker:    store,
		Stock:     stock,
		Avail:     avail,
		Bundles:   bundles,
		Ledger:    ledger,
		Audit:     rec,
		Clock:     clk,
	})
	catalog := NewCatalogService(store, store, stock, clk)
	maintenance := NewMaintenanceService(store, store, clk)

	return &testServices{
		store:       store,
		audit:       rec,
		stock:       stock,
		avail:       avail,
		ledger:      ledger,
		bundles:     bundles,
		loans:       loans,
		catalog:     catalog,
		maintenance: maintenance,
	}
}

// Seed helpers.

func (s *testServices) addLocation(id string) {
	s.store.locations[id] = domain.Location{ID: id, Name: id}
}

func (s *testServices) addModel(id, locationID string, tracking domain.TrackingType) {
	s.store.models[id] = domain.AssetModel{ID: id, Name: id, LocationID: locationID, Tracking: tracking}
}

func (s *testServices) addAsset(id, modelID, locationID, code string) {
	s.store.assets[id] = domain.Asset{
		ID:         id,
		ModelID:    modelID,
		LocationID: locationID,
		Code:       code,
		Condition:  domain.ConditionGood,
		Active:     true,
	}
}

func (s *testServices) addStock(modelID, locationID string, total, available int) {
	s.store.stocks[stockKey(modelID, locationID)] = domain.StockLevel{
		ModelID:           modelID,
		LocationID:        locationID,
		QuantityTotal:     total,
		QuantityAvailable: available,
	}
}

func (s *testServices) addBundle(id, modelID string, items ...domain.BundleItem) {
	def := domain.BundleDefinition{ID: id, ModelID: modelID}
	for i := range items {
		items[i].BundleID = id
		items[i].Position = i
	}
	def.Items = items
	s.store.bundles[id] = def
}
