package entity

import "time"

const (
	SkuSourceLine  = "line"
	SkuSourceCache = "cache"
	SkuSourceStore = "store"
	SkuSourceMyob  = "myob"
)

// ItemRef is a SKU resolved to a MYOB inventory item.
type ItemRef struct {
	Sku        string    `json:"sku" bson:"sku"`
	ItemUID    string    `json:"item_uid" bson:"item_uid"`
	Name       string    `json:"name,omitempty" bson:"name,omitempty"`
	TaxCodeUID string    `json:"tax_code_uid,omitempty" bson:"tax_code_uid,omitempty"`
	Source     string    `json:"source,omitempty" bson:"-"`
	UpdatedAt  time.Time `json:"updated_at,omitempty" bson:"updated_at"`
}
