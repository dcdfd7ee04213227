package redis

import (
	"context"
	"strconv"

	"github.com/lumenpress/discovery/internal/db"
)

// ZAdd adds a member with the given score.
func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	cmd := s.b().Zadd().Key(key).ScoreMember().ScoreMember(score, member).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZAdd, Err: err}
	}
	return nil
}

// ZCount counts members with scores in [min, max].
func (s *Store) ZCount(ctx context.Context, key string, min, max float64) (int64, error) {
	cmd := s.b().Zcount().Key(key).
		Min(formatScore(min)).Max(formatScore(max)).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpZCount, Err: err}
	}
	return n, nil
}

// ZRangeByScoreRev returns up to limit members with scores in [min, max],
// highest score first.
func (s *Store) ZRangeByScoreRev(ctx context.Context, key string, min, max float64, limit int) ([]string, error) {
	cmd := s.b().Zrevrangebyscore().Key(key).
		Max(formatScore(max)).Min(formatScore(min)).
		Limit(0, int64(limit)).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpZRange, Err: err}
	}
	return members, nil
}

// ZRemRangeByScore removes members with scores in [min, max].
func (s *Store) ZRemRangeByScore(ctx context.Context, key string, min, max float64) error {
	cmd := s.b().Zremrangebyscore().Key(key).
		Min(formatScore(min)).Max(formatScore(max)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpZRemRange, Err: err}
	}
	return nil
}

// LPush prepends values to a list.
func (s *Store) LPush(ctx context.Context, key string, values ...string) error {
	cmd := s.b().Lpush().Key(key).Element(values...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpLPush, Err: err}
	}
	return nil
}

// LRange returns list elements in [start, stop].
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	cmd := s.b().Lrange().Key(key).Start(start).Stop(stop).Build()
	values, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	return values, nil
}

// LTrim trims a list to [start, stop].
func (s *Store) LTrim(ctx context.Context, key string, start, stop int64) error {
	cmd := s.b().Ltrim().Key(key).Start(start).Stop(stop).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpLTrim, Err: err}
	}
	return nil
}

// SAdd adds members to a set.
func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	cmd := s.b().Sadd().Key(key).Member(members...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSAdd, Err: err}
	}
	return nil
}

// SMembers returns all members of a set.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	cmd := s.b().Smembers().Key(key).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpSMembers, Err: err}
	}
	return members, nil
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
