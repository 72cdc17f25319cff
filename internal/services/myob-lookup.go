package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"myobclient/entity"
)

const (
	resourceItem      = "/Inventory/Item"
	resourceCustomer  = "/Contact/Customer"
	resourceTaxCode   = "/GeneralLedger/TaxCode"
	resourceSaleOrder = "/Sale/Order/Item"
)

// odataString quotes v as an OData string literal.
func odataString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func filterEq(field, value string) url.Values {
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("%s eq %s", field, odataString(value)))
	return q
}

func single[T any](page entity.MyobPage[T], what, key string) (*T, error) {
	switch len(page.Items) {
	case 0:
		return nil, fmt.Errorf("%s %q: %w", what, key, entity.ErrNotFound)
	case 1:
		return &page.Items[0], nil
	default:
		return nil, fmt.Errorf("%s %q: %d items: %w", what, key, len(page.Items), entity.ErrAmbiguous)
	}
}

// FindItemBySku looks an inventory item up by its item number.
func (s *MyobService) FindItemBySku(ctx context.Context, sku string) (*entity.MyobItem, error) {
	if sku == "" {
		return nil, fmt.Errorf("sku is empty")
	}

	var page entity.MyobPage[entity.MyobItem]
	if err := s.Get(ctx, resourceItem, filterEq("Number", sku), &page); err != nil {
		return nil, fmt.Errorf("find item %q: %w", sku, err)
	}

	item, err := single(page, "item", sku)
	if err != nil {
		return nil, err
	}

	s.log.With(
		slog.String("sku", sku),
		slog.String("uid", item.UID),
	).Debug("item found")
	return item, nil
}

func (s *MyobService) FindCustomerByDisplayID(ctx context.Context, displayID string) (*entity.MyobCustomer, error) {
	if displayID == "" {
		return nil, fmt.Errorf("customer display id is empty")
	}

	var page entity.MyobPage[entity.MyobCustomer]
	if err := s.Get(ctx, resourceCustomer, filterEq("DisplayID", displayID), &page); err != nil {
		return nil, fmt.Errorf("find customer %q: %w", displayID, err)
	}
	return single(page, "customer", displayID)
}

func (s *MyobService) FindTaxCode(ctx context.Context, code string) (*entity.MyobTaxCode, error) {
	if code == "" {
		return nil, fmt.Errorf("tax code is empty")
	}

	var page entity.MyobPage[entity.MyobTaxCode]
	if err := s.Get(ctx, resourceTaxCode, filterEq("Code", code), &page); err != nil {
		return nil, fmt.Errorf("find tax code %q: %w", code, err)
	}
	return single(page, "tax code", code)
}

// CreateSalesOrder posts an Item layout order and returns the new order UID, taken
// from the Location header, alongside the raw response.
func (s *MyobService) CreateSalesOrder(ctx context.Context, order *entity.MyobSalesOrder) (string, *entity.MyobResponse, error) {
	resp, err := s.Post(ctx, resourceSaleOrder, order)
	if err != nil {
		return "", nil, fmt.Errorf("create sales order: %w", err)
	}

	uid := UIDFromLocation(resp.Location())
	s.log.With(
		slog.Int("status", resp.StatusCode),
		slog.String("uid", uid),
		slog.Bool("synthetic", resp.Synthetic),
	).Debug("sales order created")

	return uid, resp, nil
}

// UIDFromLocation returns the last path segment of a MYOB resource URI.
func UIDFromLocation(location string) string {
	if location == "" {
		return ""
	}
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	base := path.Base(strings.TrimRight(u.Path, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return base
}
