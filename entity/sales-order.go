package entity

import (
	"net/http"
	"strings"

	"myobclient/internal/lib/validate"
)

// SalesOrderRequest carries the fields a workflow supplies for one sales order.
type SalesOrderRequest struct {
	Reference         string           `json:"reference,omitempty"`
	CustomerUID       string           `json:"customer_uid" validate:"required_without=CustomerDisplayID,myob_uid"`
	CustomerDisplayID string           `json:"customer_display_id"`
	Date              string           `json:"date"`
	IsTaxInclusive    *bool            `json:"is_tax_inclusive"`
	JournalMemo       string           `json:"journal_memo"`
	CustomerPO        string           `json:"customer_po"`
	PromisedDate      string           `json:"promised_date"`
	Freight           float64          `json:"freight" validate:"gte=0"`
	FreightTaxCodeUID string           `json:"freight_tax_code_uid" validate:"myob_uid"`
	FreightTaxCode    string           `json:"freight_tax_code"`
	ShipToAddress     string           `json:"ship_to_address"`
	ShipToCountry     string           `json:"ship_to_country"`
	Comment           string           `json:"comment"`
	DefaultSku        string           `json:"default_sku"`
	Lines             []SalesOrderLine `json:"lines" validate:"required,min=1,dive"`
}

type SalesOrderLine struct {
	ItemUID         string  `json:"item_uid" validate:"myob_uid"`
	Sku             string  `json:"sku"`
	Qty             float64 `json:"qty" validate:"gte=0"`
	UnitPrice       float64 `json:"unit_price" validate:"gte=0"`
	Description     string  `json:"description"`
	DiscountPercent float64 `json:"discount_percent" validate:"gte=0,lte=100"`
	DiscountAmount  float64 `json:"discount_amount" validate:"gte=0"`
	TaxCodeUID      string  `json:"tax_code_uid" validate:"myob_uid"`
	TaxCode         string  `json:"tax_code"`
	LocationUID     string  `json:"location_uid" validate:"myob_uid"`
}

func (s *SalesOrderRequest) Bind(_ *http.Request) error {
	s.Normalize()
	return validate.Struct(s)
}

// Normalize trims human-entered fields and applies defaults.
func (s *SalesOrderRequest) Normalize() {
	s.CustomerUID = strings.TrimSpace(s.CustomerUID)
	s.CustomerDisplayID = strings.TrimSpace(s.CustomerDisplayID)
	s.DefaultSku = strings.TrimSpace(s.DefaultSku)
	s.FreightTaxCode = strings.TrimSpace(s.FreightTaxCode)
	s.FreightTaxCodeUID = strings.TrimSpace(s.FreightTaxCodeUID)
	for i := range s.Lines {
		l := &s.Lines[i]
		l.ItemUID = strings.TrimSpace(l.ItemUID)
		l.Sku = strings.TrimSpace(l.Sku)
		l.TaxCode = strings.TrimSpace(l.TaxCode)
		l.TaxCodeUID = strings.TrimSpace(l.TaxCodeUID)
		l.LocationUID = strings.TrimSpace(l.LocationUID)
		if l.Qty == 0 {
			l.Qty = 1
		}
	}
}

// TaxInclusive defaults to true when the workflow did not say.
func (s *SalesOrderRequest) TaxInclusive() bool {
	if s.IsTaxInclusive == nil {
		return true
	}
	return *s.IsTaxInclusive
}

// SalesOrderResult describes one created order, or the error for one batch item.
type SalesOrderResult struct {
	Reference  string `json:"reference,omitempty"`
	UID        string `json:"uid,omitempty"`
	Location   string `json:"location,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Synthetic  bool   `json:"synthetic,omitempty"`
	Error      string `json:"error,omitempty"`
}
