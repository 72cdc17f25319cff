package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"myobclient/entity"
	"myobclient/internal/lib/clock"
	"myobclient/internal/lib/sl"
	"myobclient/internal/metrics"

	"github.com/biter777/countries"
	"github.com/google/uuid"
)

var dateLayouts = []string{
	clock.Layout(),
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// myobDate normalizes a workflow date into MYOB's format; empty stays empty.
func myobDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return clock.Format(t), nil
		}
	}
	return "", fmt.Errorf("%w: %q", entity.ErrInvalidDate, value)
}

// shipToAddress appends the country's English name as the last address line.
func shipToAddress(address, country string) string {
	address = strings.TrimSpace(address)
	country = strings.TrimSpace(country)
	if country == "" {
		return address
	}

	name := country
	if code := countries.ByName(country); code != countries.Unknown {
		name = code.String()
	}

	if address == "" {
		return name
	}
	lines := strings.Split(address, "\n")
	if strings.EqualFold(strings.TrimSpace(lines[len(lines)-1]), name) {
		return address
	}
	return address + "\n" + name
}

// taxCodes memoizes tax code lookups for one order.
type taxCodes struct {
	myob Myob
	seen map[string]string
}

func (t *taxCodes) uid(ctx context.Context, code string) (string, error) {
	key := strings.ToUpper(code)
	if uid, ok := t.seen[key]; ok {
		return uid, nil
	}
	tc, err := t.myob.FindTaxCode(ctx, code)
	if err != nil {
		return "", err
	}
	t.seen[key] = tc.UID
	return tc.UID, nil
}

// BuildSalesOrder resolves customer, SKUs and tax codes and maps the request into the
// MYOB Item layout payload.
func (c *Core) BuildSalesOrder(ctx context.Context, req *entity.SalesOrderRequest) (*entity.MyobSalesOrder, error) {
	if c.myob == nil {
		return nil, fmt.Errorf("myob service not set")
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("sales order has no lines")
	}
	req.Normalize()

	customerUID := req.CustomerUID
	if customerUID == "" {
		if req.CustomerDisplayID == "" {
			return nil, fmt.Errorf("customer_uid or customer_display_id is required")
		}
		customer, err := c.myob.FindCustomerByDisplayID(ctx, req.CustomerDisplayID)
		if err != nil {
			return nil, fmt.Errorf("resolve customer: %w", err)
		}
		customerUID = customer.UID
	}

	date, err := myobDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	if date == "" {
		date = clock.Now()
	}
	promised, err := myobDate(req.PromisedDate)
	if err != nil {
		return nil, fmt.Errorf("promised_date: %w", err)
	}

	taxes := &taxCodes{myob: c.myob, seen: make(map[string]string)}

	order := &entity.MyobSalesOrder{
		OrderType:                   entity.OrderTypeItem,
		Customer:                    entity.UIDRef{UID: customerUID},
		Date:                        date,
		IsTaxInclusive:              req.TaxInclusive(),
		JournalMemo:                 req.JournalMemo,
		CustomerPurchaseOrderNumber: req.CustomerPO,
		PromisedDate:                promised,
		ShipToAddress:               shipToAddress(req.ShipToAddress, req.ShipToCountry),
		Comment:                     req.Comment,
		Freight:                     req.Freight,
	}

	freightTax := req.FreightTaxCodeUID
	if freightTax == "" && req.FreightTaxCode != "" {
		if freightTax, err = taxes.uid(ctx, req.FreightTaxCode); err != nil {
			return nil, fmt.Errorf("freight tax code: %w", err)
		}
	}
	order.FreightTaxCode = entity.NewUIDRef(freightTax)

	resolver := c.newSkuResolver()
	for i := range req.Lines {
		line := &req.Lines[i]

		ref, fallback, err := resolver.resolveLine(ctx, line, req.DefaultSku)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		out := entity.MyobOrderLine{
			Type:         entity.LineTypeTransaction,
			Item:         entity.UIDRef{UID: ref.ItemUID},
			ShipQuantity: line.Qty,
			UnitPrice:    line.UnitPrice,
			Description:  line.Description,
		}
		// keep the entered SKU visible on a generic fallback item
		if fallback && out.Description == "" && line.Sku != "" {
			out.Description = line.Sku
		}

		percent, ok := discountPercent(line.Qty, line.UnitPrice, line.DiscountPercent, line.DiscountAmount)
		if !ok {
			c.log.With(
				slog.Int("line", i+1),
				slog.Float64("discount_amount", line.DiscountAmount),
			).Warn("discount amount dropped, line total is zero")
		}
		out.DiscountPercent = percent

		taxUID := line.TaxCodeUID
		if taxUID == "" && line.TaxCode != "" {
			if taxUID, err = taxes.uid(ctx, line.TaxCode); err != nil {
				return nil, fmt.Errorf("line %d tax code: %w", i+1, err)
			}
		}
		if taxUID == "" {
			taxUID = ref.TaxCodeUID
		}
		out.TaxCode = entity.NewUIDRef(taxUID)
		out.Location = entity.NewUIDRef(line.LocationUID)

		order.Lines = append(order.Lines, out)
	}

	return order, nil
}

// CreateSalesOrder builds and posts one order and records the attempt. A missing
// reference is generated and stored back on req so failures can be looked up.
func (c *Core) CreateSalesOrder(ctx context.Context, req *entity.SalesOrderRequest) (*entity.SalesOrderResult, error) {
	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}
	reference := req.Reference
	log := c.log.With(slog.String("reference", reference))

	result := &entity.SalesOrderResult{Reference: reference}

	order, err := c.BuildSalesOrder(ctx, req)
	if err != nil {
		c.recordAttempt(reference, req, "", err)
		metrics.SalesOrder(entity.OrderStatusFailed)
		log.With(sl.Err(err)).Warn("build sales order")
		return nil, err
	}

	uid, resp, err := c.myob.CreateSalesOrder(ctx, order)
	if err != nil {
		c.recordAttempt(reference, order, "", err)
		metrics.SalesOrder(entity.OrderStatusFailed)
		log.With(sl.Err(err)).Error("create sales order")
		return nil, err
	}

	result.UID = uid
	result.Location = resp.Location()
	result.StatusCode = resp.StatusCode
	result.Synthetic = resp.Synthetic

	c.recordAttempt(reference, order, uid, nil)
	metrics.SalesOrder(entity.OrderStatusCreated)

	log.With(
		slog.String("uid", uid),
		slog.String("customer_uid", order.Customer.UID),
		slog.Int("lines", len(order.Lines)),
	).Info("sales order created")

	return result, nil
}

// CreateSalesOrders processes a batch in order. A failed item yields an error entry.
// With continueOnFail the batch goes on; otherwise it stops and the results so far,
// the failed entry included, are returned with the error.
func (c *Core) CreateSalesOrders(ctx context.Context, reqs []entity.SalesOrderRequest, continueOnFail bool) ([]entity.SalesOrderResult, error) {
	results := make([]entity.SalesOrderResult, 0, len(reqs))
	for i := range reqs {
		res, err := c.CreateSalesOrder(ctx, &reqs[i])
		if err != nil {
			results = append(results, entity.SalesOrderResult{
				Reference: reqs[i].Reference,
				Error:     err.Error(),
			})
			if !continueOnFail {
				return results, fmt.Errorf("order %d (%s): %w", i+1, reqs[i].Reference, err)
			}
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

// OrderLog returns every recorded attempt for a reference.
func (c *Core) OrderLog(reference string) (*entity.MongoOrder, error) {
	if c.mongoRepo == nil {
		return nil, fmt.Errorf("order log is disabled")
	}
	order, err := c.mongoRepo.GetOrder(reference)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %q: %w", reference, entity.ErrNotFound)
	}
	return order, nil
}

func (c *Core) recordAttempt(reference string, payload interface{}, uid string, err error) {
	if c.mongoRepo == nil {
		return
	}

	data, mErr := json.Marshal(payload)
	if mErr != nil {
		c.log.With(sl.Err(mErr)).Warn("marshal order payload")
		return
	}

	version := entity.Version{
		CreationDate: time.Now(),
		Payload:      string(data),
		Status:       entity.OrderStatusCreated,
		MyobUID:      uid,
	}
	if err != nil {
		version.Status = entity.OrderStatusFailed
		version.Error = err.Error()
	}

	if sErr := c.mongoRepo.SaveOrderVersion(reference, version); sErr != nil {
		c.log.With(slog.String("reference", reference), sl.Err(sErr)).Warn("save order version")
	}
}
