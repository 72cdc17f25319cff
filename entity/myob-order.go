package entity

const (
	OrderTypeItem       = "Item"
	LineTypeTransaction = "Transaction"
)

// MyobSalesOrder is the Item layout payload for POST /Sale/Order/Item.
type MyobSalesOrder struct {
	OrderType                   string          `json:"OrderType"`
	Customer                    UIDRef          `json:"Customer"`
	Date                        string          `json:"Date"`
	IsTaxInclusive              bool            `json:"IsTaxInclusive"`
	JournalMemo                 string          `json:"JournalMemo,omitempty"`
	CustomerPurchaseOrderNumber string          `json:"CustomerPurchaseOrderNumber,omitempty"`
	PromisedDate                string          `json:"PromisedDate,omitempty"`
	ShipToAddress               string          `json:"ShipToAddress,omitempty"`
	Comment                     string          `json:"Comment,omitempty"`
	Freight                     float64         `json:"Freight,omitempty"`
	FreightTaxCode              *UIDRef         `json:"FreightTaxCode,omitempty"`
	Lines                       []MyobOrderLine `json:"Lines"`
}

type MyobOrderLine struct {
	Type            string  `json:"Type"`
	Item            UIDRef  `json:"Item"`
	ShipQuantity    float64 `json:"ShipQuantity"`
	UnitPrice       float64 `json:"UnitPrice"`
	Description     string  `json:"Description,omitempty"`
	DiscountPercent float64 `json:"DiscountPercent,omitempty"`
	TaxCode         *UIDRef `json:"TaxCode,omitempty"`
	Location        *UIDRef `json:"Location,omitempty"`
}

type UIDRef struct {
	UID string `json:"UID"`
}

// NewUIDRef returns nil for an empty uid so optional references are omitted.
func NewUIDRef(uid string) *UIDRef {
	if uid == "" {
		return nil
	}
	return &UIDRef{UID: uid}
}
