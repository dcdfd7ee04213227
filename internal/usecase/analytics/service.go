package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domanalytics "github.com/lumenpress/discovery/internal/domain/analytics"
	"github.com/lumenpress/discovery/internal/metrics"
)

const appendTimeout = 2 * time.Second

// Service records search analytics off the request path. Records flow
// through a bounded channel to a single worker; when the channel is full
// the record is dropped and counted, never blocking a search response.
type Service struct {
	repo        Recorder
	log         *zap.Logger
	clickWindow time.Duration
	now         func() time.Time

	records chan domanalytics.QueryRecord
	done    chan struct{}
	once    sync.Once
}

// New creates an analytics service with the given dispatch buffer size.
func New(repo Recorder, log *zap.Logger, buffer int, clickWindow time.Duration) *Service {
	return &Service{
		repo:        repo,
		log:         log,
		clickWindow: clickWindow,
		now:         time.Now,
		records:     make(chan domanalytics.QueryRecord, buffer),
		done:        make(chan struct{}),
	}
}

// Record buffers one query record for asynchronous persistence. Fills in
// the id and timestamp; drops the record when the buffer is full.
func (s *Service) Record(rec domanalytics.QueryRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if rec.ClickedPos == 0 {
		rec.ClickedPos = -1
	}

	select {
	case s.records <- rec:
	default:
		metrics.AnalyticsDroppedTotal.Inc()
		s.log.Warn("analytics buffer full, dropping record", zap.String("query", rec.Query))
	}
}

// RecordClick attaches a click to the most recent matching record. Failures
// are logged and swallowed; click reporting must never surface errors to
// the caller.
func (s *Service) RecordClick(ctx context.Context, click *domanalytics.Click) {
	attached, err := s.repo.AttachClick(ctx, click, s.clickWindow, s.now())
	if err != nil {
		s.log.Warn("click attach failed", zap.String("query", click.Query), zap.Error(err))
		return
	}
	if !attached {
		s.log.Debug("click without matching record", zap.String("query", click.Query))
	}
}

// Run drains the record buffer until the context is cancelled, then flushes
// whatever is still queued. Start in exactly one goroutine.
func (s *Service) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case rec := <-s.records:
			s.persist(rec)
		case <-ctx.Done():
			for {
				select {
				case rec := <-s.records:
					s.persist(rec)
				default:
					return
				}
			}
		}
	}
}

// Close waits for the worker to finish its final flush.
func (s *Service) Close() {
	s.once.Do(func() { <-s.done })
}

func (s *Service) persist(rec domanalytics.QueryRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()
	if err := s.repo.Append(ctx, &rec); err != nil {
		s.log.Warn("analytics append failed", zap.String("id", rec.ID), zap.Error(err))
	}
}
