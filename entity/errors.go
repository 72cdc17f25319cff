package entity

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAmbiguous     = errors.New("more than one match")
	ErrInactive      = errors.New("item is inactive or not sold")
	ErrSkuUnresolved = errors.New("sku not resolved")
	ErrInvalidDate   = errors.New("unsupported date format")
)
