package catalog

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/singleflight"

	"optioncatalog/internal/models"
	"optioncatalog/logger"
)

// ContractTier stores instrument metadata and serves it from a process
// cache. The cache is filled on first use and refreshed only by Reload;
// writes do not invalidate it.
type ContractTier struct {
	*Tier[models.Contract]

	mu     sync.RWMutex
	cache  map[models.InstrumentID]models.Contract
	loaded bool
	group  singleflight.Group
}

func newContractTier(cfg tierConfig) *ContractTier {
	s := rowSchema(TierContracts,
		func(c models.Contract) models.InstrumentID { return c.Instrument },
		func(c models.Contract) int64 { return c.TsInit },
		contractToRow, rowToContract)
	return &ContractTier{Tier: newTier(s, cfg)}
}

// Put writes a single contract. Rewriting metadata already present at the
// same ts_init requires SkipDisjointCheck(true).
func (t *ContractTier) Put(ctx context.Context, c models.Contract, opts ...WriteOption) error {
	res, err := t.Write(ctx, c.Instrument, []models.Contract{c}, append([]WriteOption{Strict(true)}, opts...)...)
	if err != nil {
		return err
	}
	if res.Written == 0 {
		return fmt.Errorf("contract %s: nothing written", c.Instrument)
	}
	return nil
}

// Latest reads the newest stored metadata for inst, bypassing the cache.
func (t *ContractTier) Latest(ctx context.Context, inst models.InstrumentID) (models.Contract, error) {
	recs, err := t.all(ctx, inst.String())
	if err != nil {
		return models.Contract{}, err
	}
	c, ok := recs[inst]
	if !ok {
		return models.Contract{}, fmt.Errorf("contract %s: %w", inst, ErrNotFound)
	}
	return c, nil
}

// GetCached returns the cached metadata for inst, loading the whole tier
// once on first use.
func (t *ContractTier) GetCached(ctx context.Context, inst models.InstrumentID) (models.Contract, error) {
	t.mu.RLock()
	loaded := t.loaded
	t.mu.RUnlock()
	if !loaded {
		_, err, _ := t.group.Do("load", func() (any, error) {
			t.mu.RLock()
			done := t.loaded
			t.mu.RUnlock()
			if done {
				return nil, nil
			}
			// Shared by every waiter, so one caller giving up must not fail the rest.
			return nil, t.Reload(context.WithoutCancel(ctx))
		})
		if err != nil {
			return models.Contract{}, err
		}
	}

	t.mu.RLock()
	c, ok := t.cache[inst]
	t.mu.RUnlock()
	t.metrics.CacheLookup(ok)
	if !ok {
		return models.Contract{}, fmt.Errorf("contract %s: %w", inst, ErrNotFound)
	}
	return c, nil
}

// Reload rebuilds the cache from storage. Readers keep the previous
// snapshot until the new one is swapped in.
func (t *ContractTier) Reload(ctx context.Context) error {
	fresh, err := t.all(ctx, "*")
	if err != nil {
		return fmt.Errorf("reload contracts: %w", err)
	}
	t.mu.Lock()
	t.cache, t.loaded = fresh, true
	t.mu.Unlock()
	t.metrics.CacheReload()
	t.log.WithComponent("catalog."+TierContracts).
		WithFields(logger.Fields{"instruments": len(fresh)}).
		Debug("contract cache reloaded")
	return nil
}

// Snapshot returns a copy of the cache contents.
func (t *ContractTier) Snapshot() map[models.InstrumentID]models.Contract {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[models.InstrumentID]models.Contract, len(t.cache))
	for k, v := range t.cache {
		out[k] = v
	}
	return out
}

// all keeps the last record per instrument in merge order, which is the
// newest ts_init and, on ties, the newest partition.
func (t *ContractTier) all(ctx context.Context, pattern string) (map[models.InstrumentID]models.Contract, error) {
	cur, err := t.Query(ctx, pattern, math.MinInt64, math.MaxInt64)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	out := make(map[models.InstrumentID]models.Contract)
	for cur.Next() {
		c := cur.Record()
		out[c.Instrument] = c
	}
	return out, cur.Err()
}
