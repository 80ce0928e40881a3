package redis_store

import (
	"context"
	"errors"
	"time"

	"calistenia/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	usedRoutineTTL  = 14 * 24 * time.Hour
	routineRowsKey  = "routine:rows"
	routineRowsTTL  = 10 * time.Minute
	usedRoutineBase = "routine:used:"
)

func usedRoutineKey(week string) string {
	return usedRoutineBase + week
}

// MarkRoutineUsed records a posted routine title for the given ISO week.
// The key outlives the week by a few days and then expires on its own.
func MarkRoutineUsed(ctx context.Context, client redis.UniversalClient, week, title string) error {
	key := usedRoutineKey(week)
	if err := client.SAdd(ctx, key, title).Err(); err != nil {
		return err
	}
	return client.Expire(ctx, key, usedRoutineTTL).Err()
}

func UsedRoutineTitles(ctx context.Context, client redis.UniversalClient, week string) (map[string]bool, error) {
	titles, err := client.SMembers(ctx, usedRoutineKey(week)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	used := make(map[string]bool, len(titles))
	for _, t := range titles {
		used[t] = true
	}
	return used, nil
}

// ClearUsedRoutines resets the weekly set, used when every row has been
// posted before the week is over.
func ClearUsedRoutines(ctx context.Context, client redis.UniversalClient, week string) error {
	return client.Del(ctx, usedRoutineKey(week)).Err()
}

// CacheRoutineRows keeps the fetched sheet rows for a short while so a
// retried job does not hammer the external source.
func CacheRoutineRows(ctx context.Context, client redis.UniversalClient, rows []models.RoutineRow) error {
	payload, err := msgpack.Marshal(rows)
	if err != nil {
		return err
	}
	return client.Set(ctx, routineRowsKey, payload, routineRowsTTL).Err()
}

// CachedRoutineRows returns nil with no error on a cache miss.
func CachedRoutineRows(ctx context.Context, client redis.UniversalClient) ([]models.RoutineRow, error) {
	payload, err := client.Get(ctx, routineRowsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rows []models.RoutineRow
	if err := msgpack.Unmarshal(payload, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
