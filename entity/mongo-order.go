package entity

import "time"

const (
	OrderStatusCreated = "created"
	OrderStatusFailed  = "failed"
)

// MongoOrder keeps every attempt made for one order reference.
type MongoOrder struct {
	CreationDate time.Time `json:"creation_date" bson:"creation_date"`
	Reference    string    `json:"reference" bson:"reference"`
	Versions     []Version `json:"versions" bson:"versions"`
}

type Version struct {
	ID           string    `json:"id" bson:"id"`
	CreationDate time.Time `json:"creation_date" bson:"creation_date"`
	Payload      string    `json:"payload" bson:"payload"`
	Status       string    `json:"status" bson:"status"`
	MyobUID      string    `json:"myob_uid,omitempty" bson:"myob_uid,omitempty"`
	Error        string    `json:"error,omitempty" bson:"error,omitempty"`
}
