package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"myobclient/entity"
	"myobclient/internal/config"
)

const (
	customerUID = "3c9d7e1a-4f2b-4a6c-8e5d-1b0a9c8d7e6f"
	widgetUID   = "11111111-2222-4333-8444-555555555555"
	miscUID     = "99999999-8888-4777-8666-555555555555"
	gstUID      = "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"
	freUID      = "ffffffff-eeee-4ddd-8ccc-bbbbbbbbbbbb"
)

type fakeMyob struct {
	items     map[string][]entity.MyobItem
	customers map[string]entity.MyobCustomer
	taxCodes  map[string]entity.MyobTaxCode
	itemCalls map[string]int
	created   []*entity.MyobSalesOrder
	createErr error
}

func newFakeMyob() *fakeMyob {
	gst := &entity.MyobTaxCode{UID: gstUID, Code: "GST"}
	widget := entity.MyobItem{UID: widgetUID, Number: "WIDGET", Name: "Widget", IsActive: true, IsSold: true}
	widget.SellingDetails.TaxCode = gst
	return &fakeMyob{
		items: map[string][]entity.MyobItem{
			"WIDGET": {widget},
			"MISC":   {{UID: miscUID, Number: "MISC", Name: "Misc", IsActive: true, IsSold: true}},
			"OLD":    {{UID: "old", Number: "OLD", IsActive: false, IsSold: true}},
			"TWIN":   {{UID: "t1"}, {UID: "t2"}},
		},
		customers: map[string]entity.MyobCustomer{
			"CUS000123": {UID: customerUID, DisplayID: "CUS000123"},
		},
		taxCodes: map[string]entity.MyobTaxCode{
			"GST": *gst,
			"FRE": {UID: freUID, Code: "FRE"},
		},
		itemCalls: make(map[string]int),
	}
}

func (f *fakeMyob) FindItemBySku(_ context.Context, sku string) (*entity.MyobItem, error) {
	f.itemCalls[sku]++
	items := f.items[strings.ToUpper(sku)]
	switch len(items) {
	case 0:
		return nil, fmt.Errorf("item %q: %w", sku, entity.ErrNotFound)
	case 1:
		item := items[0]
		return &item, nil
	default:
		return nil, fmt.Errorf("item %q: %w", sku, entity.ErrAmbiguous)
	}
}

func (f *fakeMyob) FindCustomerByDisplayID(_ context.Context, displayID string) (*entity.MyobCustomer, error) {
	c, ok := f.customers[displayID]
	if !ok {
		return nil, fmt.Errorf("customer %q: %w", displayID, entity.ErrNotFound)
	}
	return &c, nil
}

func (f *fakeMyob) FindTaxCode(_ context.Context, code string) (*entity.MyobTaxCode, error) {
	tc, ok := f.taxCodes[strings.ToUpper(code)]
	if !ok {
		return nil, fmt.Errorf("tax code %q: %w", code, entity.ErrNotFound)
	}
	return &tc, nil
}

func (f *fakeMyob) CreateSalesOrder(_ context.Context, order *entity.MyobSalesOrder) (string, *entity.MyobResponse, error) {
	if f.createErr != nil {
		return "", nil, f.createErr
	}
	f.created = append(f.created, order)
	uid := fmt.Sprintf("00000000-0000-4000-8000-%012d", len(f.created))
	return uid, &entity.MyobResponse{
		StatusCode: 201,
		Headers:    map[string]string{"Location": "https://api.myob.com/accountright/cf/Sale/Order/Item/" + uid},
	}, nil
}

type fakeRepo struct {
	items map[string]*entity.ItemRef
	saved []*entity.ItemRef
}

func (r *fakeRepo) GetItemBySku(sku string) (*entity.ItemRef, error) {
	ref, ok := r.items[strings.ToUpper(sku)]
	if !ok {
		return nil, nil
	}
	cp := *ref
	return &cp, nil
}

func (r *fakeRepo) SaveItem(ref *entity.ItemRef) error {
	r.saved = append(r.saved, ref)
	return nil
}

func (r *fakeRepo) DeleteSku(sku string) error {
	delete(r.items, strings.ToUpper(sku))
	return nil
}

type fakeCache struct {
	items map[string]*entity.ItemRef
}

func (c *fakeCache) Get(_ context.Context, sku string) (*entity.ItemRef, error) {
	ref, ok := c.items[strings.ToUpper(sku)]
	if !ok {
		return nil, nil
	}
	cp := *ref
	return &cp, nil
}

func (c *fakeCache) Set(_ context.Context, ref *entity.ItemRef) error {
	c.items[strings.ToUpper(ref.Sku)] = ref
	return nil
}

func (c *fakeCache) Delete(_ context.Context, sku string) error {
	delete(c.items, strings.ToUpper(sku))
	return nil
}

type fakeMongo struct {
	versions map[string][]entity.Version
}

func (m *fakeMongo) SaveOrderVersion(reference string, version entity.Version) error {
	m.versions[reference] = append(m.versions[reference], version)
	return nil
}

func (m *fakeMongo) GetOrder(reference string) (*entity.MongoOrder, error) {
	versions, ok := m.versions[reference]
	if !ok {
		return nil, nil
	}
	return &entity.MongoOrder{Reference: reference, Versions: versions}, nil
}

func (m *fakeMongo) DeleteExpired() (int64, error) {
	return 0, nil
}

func newTestCore(defaultSku string) (*Core, *fakeMyob) {
	conf := &config.Config{}
	conf.Myob.DefaultSku = defaultSku
	c := New(slog.New(slog.NewTextHandler(io.Discard, nil)), conf)
	myob := newFakeMyob()
	c.SetMyob(myob)
	return c, myob
}

func boolPtr(b bool) *bool {
	return &b
}

func TestBuildSalesOrder_Mapping(t *testing.T) {
	c, _ := newTestCore("")

	req := &entity.SalesOrderRequest{
		CustomerUID:    customerUID,
		Date:           "2025-08-09",
		IsTaxInclusive: boolPtr(false),
		JournalMemo:    "Workflow order",
		CustomerPO:     "PO-42",
		PromisedDate:   "2025-08-15T00:00:00",
		Freight:        12.5,
		FreightTaxCode: "fre",
		Lines: []entity.SalesOrderLine{
			{Sku: "widget", Qty: 2, UnitPrice: 10, DiscountAmount: 5, LocationUID: miscUID},
		},
	}

	order, err := c.BuildSalesOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("BuildSalesOrder() error = %v", err)
	}

	if order.OrderType != entity.OrderTypeItem {
		t.Errorf("OrderType = %q", order.OrderType)
	}
	if order.Customer.UID != customerUID {
		t.Errorf("Customer.UID = %q", order.Customer.UID)
	}
	if order.Date != "2025-08-09T00:00:00" {
		t.Errorf("Date = %q", order.Date)
	}
	if order.IsTaxInclusive {
		t.Error("IsTaxInclusive should be false")
	}
	if order.PromisedDate != "2025-08-15T00:00:00" {
		t.Errorf("PromisedDate = %q", order.PromisedDate)
	}
	if order.CustomerPurchaseOrderNumber != "PO-42" || order.JournalMemo != "Workflow order" {
		t.Errorf("header fields = %+v", order)
	}
	if order.Freight != 12.5 || order.FreightTaxCode == nil || order.FreightTaxCode.UID != freUID {
		t.Errorf("freight = %v %+v", order.Freight, order.FreightTaxCode)
	}

	if len(order.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(order.Lines))
	}
	line := order.Lines[0]
	if line.Type != entity.LineTypeTransaction || line.Item.UID != widgetUID {
		t.Errorf("line = %+v", line)
	}
	if line.ShipQuantity != 2 || line.UnitPrice != 10 {
		t.Errorf("qty/price = %v/%v", line.ShipQuantity, line.UnitPrice)
	}
	if line.DiscountPercent != 25 {
		t.Errorf("DiscountPercent = %v, want 25", line.DiscountPercent)
	}
	if line.TaxCode == nil || line.TaxCode.UID != gstUID {
		t.Errorf("TaxCode = %+v, want item selling tax code", line.TaxCode)
	}
	if line.Location == nil || line.Location.UID != miscUID {
		t.Errorf("Location = %+v", line.Location)
	}
	if line.Description != "" {
		t.Errorf("Description = %q, want empty", line.Description)
	}
}

func TestBuildSalesOrder_Defaults(t *testing.T) {
	c, _ := newTestCore("")

	req := &entity.SalesOrderRequest{
		CustomerDisplayID: "CUS000123",
		Lines:             []entity.SalesOrderLine{{ItemUID: widgetUID, UnitPrice: 3}},
	}

	order, err := c.BuildSalesOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("BuildSalesOrder() error = %v", err)
	}
	if order.Customer.UID != customerUID {
		t.Errorf("customer not resolved by display id: %q", order.Customer.UID)
	}
	if !order.IsTaxInclusive {
		t.Error("IsTaxInclusive should default to true")
	}
	if order.Date == "" {
		t.Error("Date should default to now")
	}
	if order.FreightTaxCode != nil {
		t.Error("FreightTaxCode should be omitted")
	}
	if order.Lines[0].ShipQuantity != 1 {
		t.Errorf("ShipQuantity = %v, want 1", order.Lines[0].ShipQuantity)
	}
	if order.Lines[0].TaxCode != nil || order.Lines[0].Location != nil {
		t.Errorf("optional refs should be omitted: %+v", order.Lines[0])
	}
}

func TestBuildSalesOrder_SkuFallback(t *testing.T) {
	tests := []struct {
		name           string
		serviceDefault string
		orderDefault   string
		line           entity.SalesOrderLine
		wantUID        string
		wantDesc       string
		wantErr        error
	}{
		{
			name:    "line sku resolves",
			line:    entity.SalesOrderLine{Sku: "WIDGET", Qty: 1},
			wantUID: widgetUID,
		},
		{
			name:         "order default used when line sku missing in myob",
			orderDefault: "MISC",
			line:         entity.SalesOrderLine{Sku: "NOPE-1", Qty: 1},
			wantUID:      miscUID,
			wantDesc:     "NOPE-1",
		},
		{
			name:           "service default used last",
			orderDefault:   "ALSO-MISSING",
			serviceDefault: "MISC",
			line:           entity.SalesOrderLine{Sku: "NOPE-2", Qty: 1},
			wantUID:        miscUID,
			wantDesc:       "NOPE-2",
		},
		{
			name:           "description override kept on fallback",
			serviceDefault: "MISC",
			line:           entity.SalesOrderLine{Sku: "NOPE-3", Qty: 1, Description: "Custom part"},
			wantUID:        miscUID,
			wantDesc:       "Custom part",
		},
		{
			name:           "empty line sku goes to default",
			serviceDefault: "MISC",
			line:           entity.SalesOrderLine{Qty: 1},
			wantUID:        miscUID,
		},
		{
			name:    "nothing resolves",
			line:    entity.SalesOrderLine{Sku: "NOPE-4", Qty: 1},
			wantErr: entity.ErrSkuUnresolved,
		},
		{
			name:           "ambiguous sku does not fall back",
			serviceDefault: "MISC",
			line:           entity.SalesOrderLine{Sku: "TWIN", Qty: 1},
			wantErr:        entity.ErrAmbiguous,
		},
		{
			name:           "inactive item does not fall back",
			serviceDefault: "MISC",
			line:           entity.SalesOrderLine{Sku: "OLD", Qty: 1},
			wantErr:        entity.ErrInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCore(tt.serviceDefault)
			req := &entity.SalesOrderRequest{
				CustomerUID: customerUID,
				DefaultSku:  tt.orderDefault,
				Lines:       []entity.SalesOrderLine{tt.line},
			}

			order, err := c.BuildSalesOrder(context.Background(), req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildSalesOrder() error = %v", err)
			}
			if got := order.Lines[0].Item.UID; got != tt.wantUID {
				t.Errorf("Item.UID = %q, want %q", got, tt.wantUID)
			}
			if got := order.Lines[0].Description; got != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got, tt.wantDesc)
			}
		})
	}
}

func TestBuildSalesOrder_RepeatedSkuLookedUpOnce(t *testing.T) {
	c, myob := newTestCore("")

	req := &entity.SalesOrderRequest{
		CustomerUID: customerUID,
		Lines: []entity.SalesOrderLine{
			{Sku: "WIDGET", Qty: 1},
			{Sku: "widget", Qty: 2},
			{Sku: "WIDGET", Qty: 3},
		},
	}

	if _, err := c.BuildSalesOrder(context.Background(), req); err != nil {
		t.Fatalf("BuildSalesOrder() error = %v", err)
	}
	total := 0
	for _, n := range myob.itemCalls {
		total += n
	}
	if total != 1 {
		t.Errorf("myob item lookups = %d, want 1", total)
	}
}

func TestResolveItem_Sources(t *testing.T) {
	c, myob := newTestCore("")
	repo := &fakeRepo{items: map[string]*entity.ItemRef{
		"MAPPED": {Sku: "MAPPED", ItemUID: miscUID},
	}}
	cache := &fakeCache{items: map[string]*entity.ItemRef{
		"CACHED": {Sku: "CACHED", ItemUID: widgetUID},
	}}
	c.SetRepository(repo)
	c.SetSkuCache(cache)

	ref, err := c.ResolveItem(context.Background(), "CACHED")
	if err != nil || ref.Source != entity.SkuSourceCache || ref.ItemUID != widgetUID {
		t.Errorf("cached: ref = %+v, err = %v", ref, err)
	}

	ref, err = c.ResolveItem(context.Background(), "mapped")
	if err != nil || ref.Source != entity.SkuSourceStore || ref.ItemUID != miscUID {
		t.Errorf("mapped: ref = %+v, err = %v", ref, err)
	}
	if _, ok := cache.items["MAPPED"]; !ok {
		t.Error("mapped sku should be written to the cache")
	}

	ref, err = c.ResolveItem(context.Background(), " WIDGET ")
	if err != nil || ref.Source != entity.SkuSourceMyob || ref.ItemUID != widgetUID {
		t.Errorf("myob: ref = %+v, err = %v", ref, err)
	}
	if ref.TaxCodeUID != gstUID {
		t.Errorf("TaxCodeUID = %q, want %q", ref.TaxCodeUID, gstUID)
	}
	if len(repo.saved) != 1 || repo.saved[0].Sku != "WIDGET" {
		t.Errorf("saved = %+v", repo.saved)
	}
	if myob.itemCalls["WIDGET"] != 1 {
		t.Errorf("myob calls = %v", myob.itemCalls)
	}

	if _, err = c.ResolveItem(context.Background(), "  "); err == nil {
		t.Error("expected error for empty sku")
	}
}

func TestForgetItem(t *testing.T) {
	c, myob := newTestCore("")
	repo := &fakeRepo{items: map[string]*entity.ItemRef{
		"WIDGET": {Sku: "WIDGET", ItemUID: miscUID},
	}}
	cache := &fakeCache{items: map[string]*entity.ItemRef{
		"WIDGET": {Sku: "WIDGET", ItemUID: miscUID},
	}}
	c.SetRepository(repo)
	c.SetSkuCache(cache)

	if err := c.ForgetItem(context.Background(), "widget"); err != nil {
		t.Fatalf("ForgetItem() error = %v", err)
	}
	if len(repo.items) != 0 || len(cache.items) != 0 {
		t.Fatalf("mapping not removed: repo %v, cache %v", repo.items, cache.items)
	}

	ref, err := c.ResolveItem(context.Background(), "WIDGET")
	if err != nil {
		t.Fatalf("ResolveItem() error = %v", err)
	}
	if ref.Source != entity.SkuSourceMyob || ref.ItemUID != widgetUID || myob.itemCalls["WIDGET"] != 1 {
		t.Errorf("ref = %+v, calls = %v", ref, myob.itemCalls)
	}
}

func TestCreateSalesOrder_RecordsAttempts(t *testing.T) {
	c, myob := newTestCore("")
	mongo := &fakeMongo{versions: make(map[string][]entity.Version)}
	c.SetMongoRepository(mongo)

	req := &entity.SalesOrderRequest{
		Reference:   "wf-1",
		CustomerUID: customerUID,
		Lines:       []entity.SalesOrderLine{{Sku: "WIDGET", Qty: 1, UnitPrice: 5}},
	}

	res, err := c.CreateSalesOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateSalesOrder() error = %v", err)
	}
	if res.UID == "" || res.StatusCode != 201 || !strings.HasSuffix(res.Location, res.UID) {
		t.Errorf("result = %+v", res)
	}

	myob.createErr = errors.New("myob down")
	if _, err = c.CreateSalesOrder(context.Background(), req); err == nil {
		t.Fatal("expected error")
	}

	versions := mongo.versions["wf-1"]
	if len(versions) != 2 {
		t.Fatalf("versions = %d, want 2", len(versions))
	}
	if versions[0].Status != entity.OrderStatusCreated || versions[0].MyobUID != res.UID {
		t.Errorf("first version = %+v", versions[0])
	}
	if versions[1].Status != entity.OrderStatusFailed || versions[1].Error == "" {
		t.Errorf("second version = %+v", versions[1])
	}

	order, err := c.OrderLog("wf-1")
	if err != nil || len(order.Versions) != 2 {
		t.Errorf("OrderLog() = %+v, %v", order, err)
	}
	if _, err = c.OrderLog("missing"); !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("OrderLog(missing) error = %v", err)
	}
}

func TestCreateSalesOrders_ContinueOnFail(t *testing.T) {
	reqs := func() []entity.SalesOrderRequest {
		return []entity.SalesOrderRequest{
			{Reference: "a", CustomerUID: customerUID, Lines: []entity.SalesOrderLine{{Sku: "WIDGET", Qty: 1}}},
			{Reference: "b", CustomerUID: customerUID, Lines: []entity.SalesOrderLine{{Sku: "NOPE", Qty: 1}}},
			{Reference: "c", CustomerUID: customerUID, Lines: []entity.SalesOrderLine{{Sku: "MISC", Qty: 1}}},
		}
	}

	c, myob := newTestCore("")
	results, err := c.CreateSalesOrders(context.Background(), reqs(), true)
	if err != nil {
		t.Fatalf("CreateSalesOrders() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].UID == "" || results[1].Error == "" || results[2].UID == "" {
		t.Errorf("results = %+v", results)
	}
	if len(myob.created) != 2 {
		t.Errorf("created = %d, want 2", len(myob.created))
	}

	c, myob = newTestCore("")
	results, err = c.CreateSalesOrders(context.Background(), reqs(), false)
	if err == nil {
		t.Fatal("expected error without continue_on_fail")
	}
	if len(results) != 2 || len(myob.created) != 1 {
		t.Fatalf("results = %+v, created = %d", results, len(myob.created))
	}
	if results[0].UID == "" || results[1].Reference != "b" || results[1].Error == "" {
		t.Errorf("partial results = %+v", results)
	}
}

func TestCreateSalesOrders_GeneratedReferenceReachesLog(t *testing.T) {
	for _, continueOnFail := range []bool{true, false} {
		c, myob := newTestCore("")
		mongo := &fakeMongo{versions: make(map[string][]entity.Version)}
		c.SetMongoRepository(mongo)
		myob.createErr = errors.New("myob down")

		reqs := []entity.SalesOrderRequest{
			{CustomerUID: customerUID, Lines: []entity.SalesOrderLine{{Sku: "WIDGET", Qty: 1}}},
		}
		results, err := c.CreateSalesOrders(context.Background(), reqs, continueOnFail)
		if continueOnFail != (err == nil) {
			t.Fatalf("continueOnFail=%v: error = %v", continueOnFail, err)
		}
		if len(results) != 1 || results[0].Reference == "" || results[0].Error == "" {
			t.Fatalf("continueOnFail=%v: results = %+v", continueOnFail, results)
		}
		if err != nil && !strings.Contains(err.Error(), results[0].Reference) {
			t.Errorf("error %q does not name reference %q", err, results[0].Reference)
		}

		order, err := c.OrderLog(results[0].Reference)
		if err != nil {
			t.Fatalf("OrderLog(%q) error = %v", results[0].Reference, err)
		}
		if len(order.Versions) != 1 || order.Versions[0].Status != entity.OrderStatusFailed {
			t.Errorf("versions = %+v", order.Versions)
		}
	}
}

func TestShipToAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		country string
		want    string
	}{
		{"no country", "1 Main St\nSydney", "", "1 Main St\nSydney"},
		{"country name normalized", "1 Main St\nSydney", "australia", "1 Main St\nSydney\nAustralia"},
		{"country already last line", "1 Main St\nAustralia", "Australia", "1 Main St\nAustralia"},
		{"unknown country kept", "1 Main St", "Atlantis", "1 Main St\nAtlantis"},
		{"country only", "", "Australia", "Australia"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shipToAddress(tt.address, tt.country); got != tt.want {
				t.Errorf("shipToAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMyobDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"2025-08-09", "2025-08-09T00:00:00", false},
		{"2025-08-09T10:11:12", "2025-08-09T10:11:12", false},
		{"2025-08-09T10:11:12Z", "2025-08-09T10:11:12", false},
		{"2025-08-09 10:11:12", "2025-08-09T10:11:12", false},
		{"09/08/2025", "", true},
	}

	for _, tt := range tests {
		got, err := myobDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("myobDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("myobDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
