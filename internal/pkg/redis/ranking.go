package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RankedEntry 排行缓存中的一条记录
type RankedEntry struct {
	Member string
	Score  float64
}

// RankingStore 基于 Redis ZSET 的排行缓存
type RankingStore struct {
	key string
}

func NewRankingStore(key string) *RankingStore {
	return &RankingStore{key: key}
}

// ReplaceAll 在一个事务管道里删除并整体重建排行集合
func (s *RankingStore) ReplaceAll(ctx context.Context, entries []RankedEntry) error {
	pipe := Rdb.TxPipeline()
	pipe.Del(ctx, s.key)
	if len(entries) > 0 {
		members := make([]redis.Z, 0, len(entries))
		for _, e := range entries {
			members = append(members, redis.Z{Score: e.Score, Member: e.Member})
		}
		pipe.ZAdd(ctx, s.key, members...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Top 读取排行前 n 名，分数从高到低
func (s *RankingStore) Top(ctx context.Context, n int64) ([]RankedEntry, error) {
	values, err := Rdb.ZRevRangeWithScores(ctx, s.key, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]RankedEntry, 0, len(values))
	for _, z := range values {
		member, _ := z.Member.(string)
		entries = append(entries, RankedEntry{Member: member, Score: z.Score})
	}
	return entries, nil
}
