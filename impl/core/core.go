package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"myobclient/entity"
	"myobclient/internal/config"
	"myobclient/internal/lib/sl"
)

type Myob interface {
	FindItemBySku(ctx context.Context, sku string) (*entity.MyobItem, error)
	FindCustomerByDisplayID(ctx context.Context, displayID string) (*entity.MyobCustomer, error)
	FindTaxCode(ctx context.Context, code string) (*entity.MyobTaxCode, error)
	CreateSalesOrder(ctx context.Context, order *entity.MyobSalesOrder) (string, *entity.MyobResponse, error)
}

// SkuRepository is the persistent SKU map.
type SkuRepository interface {
	GetItemBySku(sku string) (*entity.ItemRef, error)
	SaveItem(ref *entity.ItemRef) error
	DeleteSku(sku string) error
}

type SkuCache interface {
	Get(ctx context.Context, sku string) (*entity.ItemRef, error)
	Set(ctx context.Context, ref *entity.ItemRef) error
	Delete(ctx context.Context, sku string) error
}

type MongoRepository interface {
	SaveOrderVersion(reference string, version entity.Version) error
	GetOrder(reference string) (*entity.MongoOrder, error)
	DeleteExpired() (int64, error)
}

type Core struct {
	myob       Myob
	repo       SkuRepository
	cache      SkuCache
	mongoRepo  MongoRepository
	defaultSku string
	authKey    string
	keys       map[string]string
	keysMu     sync.RWMutex
	log        *slog.Logger
	stopCh     chan struct{}
	stopOnce   sync.Once
}

func New(log *slog.Logger, conf *config.Config) *Core {
	return &Core{
		log:        log.With(sl.Module("core")),
		defaultSku: conf.Myob.DefaultSku,
		authKey:    conf.Listen.ApiKey,
		keys:       make(map[string]string),
		stopCh:     make(chan struct{}),
	}
}

func (c *Core) SetMyob(myob Myob) {
	c.myob = myob
}

func (c *Core) SetRepository(repo SkuRepository) {
	c.repo = repo
}

func (c *Core) SetSkuCache(cache SkuCache) {
	c.cache = cache
}

func (c *Core) SetMongoRepository(mongoRepo MongoRepository) {
	c.mongoRepo = mongoRepo
}

func (c *Core) Start() {
	if c.myob == nil {
		c.log.Error("myob service not set")
		return
	}

	if c.repo == nil {
		c.log.Warn("sku repository not set, sku map disabled")
	}

	// MongoDB cleanup runs every 12 hours
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()

		c.cleanupExpiredMongoOrders()

		for {
			select {
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.cleanupExpiredMongoOrders()
			}
		}
	}()
}

func (c *Core) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

// cleanupExpiredMongoOrders removes old order records from MongoDB.
func (c *Core) cleanupExpiredMongoOrders() {
	if c.mongoRepo == nil {
		return
	}

	_, err := c.mongoRepo.DeleteExpired()
	if err != nil {
		c.log.With(sl.Err(err)).Warn("failed to cleanup expired mongo orders")
	}
}
