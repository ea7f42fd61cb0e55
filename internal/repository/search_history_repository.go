package repository

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// 搜索历史：每个客户端保留最近 5 条，最新在前，重复项上浮
const (
	maxSearchHistory    = 5
	searchHistoryPrefix = "search:history:"
	searchHistoryExpiry = 30 * 24 * time.Hour
)

type SearchHistoryRepository struct {
	rdb *redis.Client
}

func NewSearchHistoryRepository(rdb *redis.Client) *SearchHistoryRepository {
	return &SearchHistoryRepository{rdb: rdb}
}

func (r *SearchHistoryRepository) Load(ctx context.Context, clientID string) ([]string, error) {
	return r.rdb.LRange(ctx, searchHistoryPrefix+clientID, 0, maxSearchHistory-1).Result()
}

func (r *SearchHistoryRepository) Save(ctx context.Context, clientID, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	key := searchHistoryPrefix + clientID
	pipe := r.rdb.TxPipeline()
	pipe.LRem(ctx, key, 0, term)
	pipe.LPush(ctx, key, term)
	pipe.LTrim(ctx, key, 0, maxSearchHistory-1)
	pipe.Expire(ctx, key, searchHistoryExpiry)
	_, err := pipe.Exec(ctx)
	return err
}
