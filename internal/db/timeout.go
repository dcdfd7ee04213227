package db

import (
	"context"
	"time"
)

// WithCallTimeout wraps a Store so every call runs under a bounded per-call
// budget. Deadline overruns come back as domain.ErrTimeout via MapTimeout.
// Constructed once at the composition root; repositories stay unaware of
// timeout policy.
func WithCallTimeout(s Store, timeout time.Duration) Store {
	if timeout <= 0 {
		return s
	}
	return &timeoutStore{inner: s, timeout: timeout}
}

type timeoutStore struct {
	inner   Store
	timeout time.Duration
}

func (t *timeoutStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.timeout)
}

func (t *timeoutStore) Ping(ctx context.Context) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.Ping(ctx))
}

func (t *timeoutStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.HSet(ctx, key, fields))
}

func (t *timeoutStore) HSetMulti(ctx context.Context, items []HashSetItem) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.HSetMulti(ctx, items))
}

func (t *timeoutStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	m, err := t.inner.HGetAll(ctx, key)
	return m, MapTimeout(err)
}

func (t *timeoutStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	ms, err := t.inner.HGetAllMulti(ctx, keys)
	return ms, MapTimeout(err)
}

func (t *timeoutStore) HIncrBy(ctx context.Context, key, field string, val int64) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.HIncrBy(ctx, key, field, val))
}

func (t *timeoutStore) Del(ctx context.Context, key string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.Del(ctx, key))
}

func (t *timeoutStore) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	ok, err := t.inner.Exists(ctx, key)
	return ok, MapTimeout(err)
}

func (t *timeoutStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	b, err := t.inner.Get(ctx, key)
	return b, MapTimeout(err)
}

func (t *timeoutStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.Set(ctx, key, value))
}

func (t *timeoutStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.SetWithTTL(ctx, key, value, ttl))
}

func (t *timeoutStore) IncrBy(ctx context.Context, key string, val int64) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.IncrBy(ctx, key, val))
}

func (t *timeoutStore) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.Expire(ctx, key, ttl, nx))
}

func (t *timeoutStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.ZAdd(ctx, key, score, member))
}

func (t *timeoutStore) ZCount(ctx context.Context, key string, min, max float64) (int64, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	n, err := t.inner.ZCount(ctx, key, min, max)
	return n, MapTimeout(err)
}

func (t *timeoutStore) ZRangeByScoreRev(
	ctx context.Context, key string, min, max float64, limit int,
) ([]string, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	members, err := t.inner.ZRangeByScoreRev(ctx, key, min, max, limit)
	return members, MapTimeout(err)
}

func (t *timeoutStore) ZRemRangeByScore(ctx context.Context, key string, min, max float64) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.ZRemRangeByScore(ctx, key, min, max))
}

func (t *timeoutStore) LPush(ctx context.Context, key string, values ...string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.LPush(ctx, key, values...))
}

func (t *timeoutStore) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	values, err := t.inner.LRange(ctx, key, start, stop)
	return values, MapTimeout(err)
}

func (t *timeoutStore) LTrim(ctx context.Context, key string, start, stop int64) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.LTrim(ctx, key, start, stop))
}

func (t *timeoutStore) SAdd(ctx context.Context, key string, members ...string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.SAdd(ctx, key, members...))
}

func (t *timeoutStore) SMembers(ctx context.Context, key string) ([]string, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	members, err := t.inner.SMembers(ctx, key)
	return members, MapTimeout(err)
}

func (t *timeoutStore) CreateIndex(ctx context.Context, def *IndexDefinition) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.CreateIndex(ctx, def))
}

func (t *timeoutStore) DropIndex(ctx context.Context, name string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return MapTimeout(t.inner.DropIndex(ctx, name))
}

func (t *timeoutStore) IndexExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	ok, err := t.inner.IndexExists(ctx, name)
	return ok, MapTimeout(err)
}

func (t *timeoutStore) SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	sr, err := t.inner.SearchText(ctx, q)
	return sr, MapTimeout(err)
}

func (t *timeoutStore) SearchCount(ctx context.Context, q *TextQuery) (int, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	n, err := t.inner.SearchCount(ctx, q)
	return n, MapTimeout(err)
}

func (t *timeoutStore) Aggregate(ctx context.Context, q *AggregateQuery) ([]AggregateRow, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	rows, err := t.inner.Aggregate(ctx, q)
	return rows, MapTimeout(err)
}

func (t *timeoutStore) Close() { t.inner.Close() }

func (t *timeoutStore) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return t.inner.WaitForReady(ctx, timeout)
}
