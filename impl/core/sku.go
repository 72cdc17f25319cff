package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"myobclient/entity"
	"myobclient/internal/lib/sl"
	"myobclient/internal/metrics"
)

// ResolveItem turns one SKU into a MYOB item reference.
// Lookup order: cache, SKU map, MYOB inventory.
func (c *Core) ResolveItem(ctx context.Context, sku string) (*entity.ItemRef, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, fmt.Errorf("sku is empty")
	}

	log := c.log.With(slog.String("sku", sku))

	if c.cache != nil {
		ref, err := c.cache.Get(ctx, sku)
		if err != nil {
			log.With(sl.Err(err)).Warn("sku cache read failed")
		} else if ref != nil {
			ref.Source = entity.SkuSourceCache
			metrics.SkuResolved(ref.Source)
			return ref, nil
		}
	}

	if c.repo != nil {
		ref, err := c.repo.GetItemBySku(sku)
		if err != nil {
			log.With(sl.Err(err)).Warn("sku map read failed")
		} else if ref != nil {
			ref.Sku = sku
			ref.Source = entity.SkuSourceStore
			c.cacheItem(ctx, ref)
			metrics.SkuResolved(ref.Source)
			return ref, nil
		}
	}

	if c.myob == nil {
		return nil, fmt.Errorf("myob service not set")
	}

	item, err := c.myob.FindItemBySku(ctx, sku)
	if err != nil {
		return nil, err
	}
	if !item.IsActive || !item.IsSold {
		return nil, fmt.Errorf("item %q: %w", sku, entity.ErrInactive)
	}

	ref := &entity.ItemRef{
		Sku:       sku,
		ItemUID:   item.UID,
		Name:      item.Name,
		Source:    entity.SkuSourceMyob,
		UpdatedAt: time.Now(),
	}
	if item.SellingDetails.TaxCode != nil {
		ref.TaxCodeUID = item.SellingDetails.TaxCode.UID
	}

	if c.repo != nil {
		if err = c.repo.SaveItem(ref); err != nil {
			log.With(sl.Err(err)).Warn("sku map write failed")
		}
	}
	c.cacheItem(ctx, ref)
	metrics.SkuResolved(ref.Source)

	log.With(slog.String("item_uid", ref.ItemUID)).Debug("sku resolved via myob")
	return ref, nil
}

// ForgetItem drops a SKU from the cache and the SKU map so the next lookup asks MYOB.
func (c *Core) ForgetItem(ctx context.Context, sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return fmt.Errorf("sku is empty")
	}
	if c.cache != nil {
		if err := c.cache.Delete(ctx, sku); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	if c.repo != nil {
		if err := c.repo.DeleteSku(sku); err != nil {
			return fmt.Errorf("sku map: %w", err)
		}
	}
	c.log.With(slog.String("sku", sku)).Info("sku mapping removed")
	return nil
}

func (c *Core) cacheItem(ctx context.Context, ref *entity.ItemRef) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, ref); err != nil {
		c.log.With(slog.String("sku", ref.Sku), sl.Err(err)).Warn("sku cache write failed")
	}
}

// skuResolver memoizes resolutions for the lines of one order.
type skuResolver struct {
	core *Core
	seen map[string]*entity.ItemRef
}

func (c *Core) newSkuResolver() *skuResolver {
	return &skuResolver{core: c, seen: make(map[string]*entity.ItemRef)}
}

func (r *skuResolver) resolve(ctx context.Context, sku string) (*entity.ItemRef, error) {
	key := strings.ToUpper(sku)
	if ref, ok := r.seen[key]; ok {
		return ref, nil
	}
	ref, err := r.core.ResolveItem(ctx, sku)
	if err != nil {
		return nil, err
	}
	r.seen[key] = ref
	return ref, nil
}

// skuCandidates lists the SKUs to try for a line, in fallback order, without repeats.
func skuCandidates(lineSku, orderDefault, serviceDefault string) []string {
	var out []string
	for _, sku := range []string{lineSku, orderDefault, serviceDefault} {
		sku = strings.TrimSpace(sku)
		if sku == "" {
			continue
		}
		dup := false
		for _, o := range out {
			if strings.EqualFold(o, sku) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, sku)
		}
	}
	return out
}

// resolveLine returns the item for one order line. An explicit item UID wins; otherwise
// the line SKU, the order default and the service default are tried in turn. Only a
// missing item moves on to the next candidate.
func (r *skuResolver) resolveLine(ctx context.Context, line *entity.SalesOrderLine, orderDefault string) (*entity.ItemRef, bool, error) {
	if line.ItemUID != "" {
		metrics.SkuResolved(entity.SkuSourceLine)
		return &entity.ItemRef{Sku: line.Sku, ItemUID: line.ItemUID, Source: entity.SkuSourceLine}, false, nil
	}

	candidates := skuCandidates(line.Sku, orderDefault, r.core.defaultSku)
	if len(candidates) == 0 {
		return nil, false, fmt.Errorf("no sku or item uid: %w", entity.ErrSkuUnresolved)
	}

	for i, sku := range candidates {
		ref, err := r.resolve(ctx, sku)
		if err == nil {
			fallback := i > 0 || line.Sku == ""
			if fallback {
				r.core.log.With(
					slog.String("sku", line.Sku),
					slog.String("fallback_sku", sku),
				).Warn("using fallback sku")
			}
			return ref, fallback, nil
		}
		if !errors.Is(err, entity.ErrNotFound) {
			return nil, false, err
		}
		r.core.log.With(slog.String("sku", sku)).Debug("sku not found, trying next")
	}

	return nil, false, fmt.Errorf("sku %q: %w", line.Sku, entity.ErrSkuUnresolved)
}
