package salesorder

import (
	"context"

	"myobclient/entity"
)

type Core interface {
	CreateSalesOrders(ctx context.Context, reqs []entity.SalesOrderRequest, continueOnFail bool) ([]entity.SalesOrderResult, error)
	OrderLog(reference string) (*entity.MongoOrder, error)
}
