package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenpress/discovery/internal/domain"
)

// Sentinel errors for database operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
)

// Op constants map to Redis command names for error context.
const (
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpAggregate   = "FT.AGGREGATE"
	OpDel         = "DEL"
	OpHGetAll     = "HGETALL"
	OpHSet        = "HSET"
	OpExists      = "EXISTS"
	OpScan        = "SCAN"
	OpGet         = "GET"
	OpSet         = "SET"
	OpIncrBy      = "INCRBY"
	OpExpire      = "EXPIRE"
	OpZAdd        = "ZADD"
	OpZCount      = "ZCOUNT"
	OpZRange      = "ZRANGE"
	OpZRemRange   = "ZREMRANGEBYSCORE"
	OpLPush       = "LPUSH"
	OpLRange      = "LRANGE"
	OpLTrim       = "LTRIM"
	OpSAdd        = "SADD"
	OpSMembers    = "SMEMBERS"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// MapTimeout converts a context deadline failure into the retryable
// domain.ErrTimeout. Every store call runs under a bounded per-call budget;
// exceeding it must surface as a typed timeout, never a silent empty result.
func MapTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}
