package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-research-be/internal/entity"
)

// ResultCache memoizes section retrievals in Redis so re-running a research
// job against an unchanged corpus skips the vector search. A nil cache
// disables memoization; all methods are nil-safe.
type ResultCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewResultCache(rdb *redis.Client, ttl time.Duration) *ResultCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ResultCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func (c *ResultCache) Get(ctx context.Context, query string, filters entity.SearchFilters, topKPapers, topKChunks int) ([]entity.EvidenceFragment, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.key(query, filters, topKPapers, topKChunks)).Bytes()
	if err != nil {
		return nil, false
	}
	var fragments []entity.EvidenceFragment
	if err := json.Unmarshal(raw, &fragments); err != nil {
		return nil, false
	}
	return fragments, true
}

func (c *ResultCache) Put(ctx context.Context, query string, filters entity.SearchFilters, topKPapers, topKChunks int, fragments []entity.EvidenceFragment) {
	if c == nil || len(fragments) == 0 {
		return
	}
	raw, err := json.Marshal(fragments)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, c.key(query, filters, topKPapers, topKChunks), raw, c.ttl)
}

func (c *ResultCache) key(query string, filters entity.SearchFilters, topKPapers, topKChunks int) string {
	payload, _ := json.Marshal(struct {
		Query      string               `json:"q"`
		Filters    entity.SearchFilters `json:"f"`
		TopKPapers int                  `json:"kp"`
		TopKChunks int                  `json:"kc"`
	}{query, filters, topKPapers, topKChunks})

	sum := sha256.Sum256(payload)
	return "retrieval:" + hex.EncodeToString(sum[:16])
}
