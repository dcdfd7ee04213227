package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	domanalytics "github.com/lumenpress/discovery/internal/domain/analytics"
)

type mockRecorder struct {
	mu       sync.Mutex
	appended []domanalytics.QueryRecord
	attachOK bool
	err      error

	lastClick *domanalytics.Click
}

func (m *mockRecorder) Append(_ context.Context, rec *domanalytics.QueryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.appended = append(m.appended, *rec)
	return nil
}

func (m *mockRecorder) AttachClick(
	_ context.Context, click *domanalytics.Click, _ time.Duration, _ time.Time,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastClick = click
	return m.attachOK, m.err
}

func (m *mockRecorder) records() []domanalytics.QueryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domanalytics.QueryRecord, len(m.appended))
	copy(out, m.appended)
	return out
}

func TestRecordPersistsAsync(t *testing.T) {
	repo := &mockRecorder{}
	svc := New(repo, zap.NewNop(), 8, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Run(ctx)

	svc.Record(domanalytics.QueryRecord{Query: "golang", ResultCount: 3})
	cancel()
	svc.Close()

	recs := repo.records()
	if len(recs) != 1 {
		t.Fatalf("appended = %d records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.ID == "" {
		t.Error("record id not assigned")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("record timestamp not assigned")
	}
	if rec.ClickedPos != -1 {
		t.Errorf("ClickedPos = %d, want -1 before any click", rec.ClickedPos)
	}
}

func TestRecordDropsWhenBufferFull(t *testing.T) {
	// No worker running: the buffer fills and the overflow must drop
	// without blocking.
	svc := New(&mockRecorder{}, zap.NewNop(), 1, time.Minute)

	finished := make(chan struct{})
	go func() {
		svc.Record(domanalytics.QueryRecord{Query: "one"})
		svc.Record(domanalytics.QueryRecord{Query: "two"})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full buffer")
	}
}

func TestRunFlushesOnShutdown(t *testing.T) {
	repo := &mockRecorder{}
	svc := New(repo, zap.NewNop(), 8, time.Minute)

	for i := 0; i < 5; i++ {
		svc.Record(domanalytics.QueryRecord{Query: "q"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go svc.Run(ctx)
	svc.Close()

	if got := len(repo.records()); got != 5 {
		t.Errorf("flushed = %d records, want 5", got)
	}
}

func TestRecordClickSwallowsErrors(t *testing.T) {
	repo := &mockRecorder{err: errors.New("store down")}
	svc := New(repo, zap.NewNop(), 1, time.Minute)

	click := &domanalytics.Click{Query: "golang", ResultID: "item-1", Position: 2}
	svc.RecordClick(context.Background(), click)

	if repo.lastClick == nil || repo.lastClick.ResultID != "item-1" {
		t.Errorf("click = %+v, want forwarded to the repo", repo.lastClick)
	}
}
