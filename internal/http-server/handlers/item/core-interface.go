package item

import (
	"context"

	"myobclient/entity"
)

type Core interface {
	ResolveItem(ctx context.Context, sku string) (*entity.ItemRef, error)
	ForgetItem(ctx context.Context, sku string) error
}
