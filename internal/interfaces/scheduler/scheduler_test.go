package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"budgetbully/internal/domain/aggregation"
	"budgetbully/internal/domain/item"
)

type MockJob struct {
	ExecuteFunc func(ctx context.Context) error
	itemID      string
}

func (m *MockJob) Execute(ctx context.Context) error {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx)
	}
	return nil
}

func (m *MockJob) ItemID() string      { return m.itemID }
func (m *MockJob) Description() string { return "mock job " + m.itemID }

type MockSyncer struct {
	UpdateTransactionsFunc func(ctx context.Context, itemID string) (*aggregation.SyncResult, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockSyncer) UpdateTransactions(ctx context.Context, itemID string) (*aggregation.SyncResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, itemID)
	m.mu.Unlock()
	if m.UpdateTransactionsFunc != nil {
		return m.UpdateTransactionsFunc(ctx, itemID)
	}
	return &aggregation.SyncResult{ItemID: itemID}, nil
}

func (m *MockSyncer) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type MockItemLister struct {
	ListSyncableFunc func(ctx context.Context) ([]*item.Item, error)
}

func (m *MockItemLister) ListSyncable(ctx context.Context) ([]*item.Item, error) {
	return m.ListSyncableFunc(ctx)
}

func TestParseScheduleTime(t *testing.T) {
	tests := []struct {
		input   string
		want    ScheduleTime
		wantErr bool
	}{
		{input: "06:00", want: ScheduleTime{Hour: 6, Minute: 0}},
		{input: "23:59", want: ScheduleTime{Hour: 23, Minute: 59}},
		{input: "0:05", want: ScheduleTime{Hour: 0, Minute: 5}},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseScheduleTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewScheduler_Validation(t *testing.T) {
	pool := NewWorkerPool(1, 0, 0, 1)

	if _, err := NewScheduler(pool, SchedulerConfig{}); err == nil {
		t.Error("expected error without schedule times")
	}
	if _, err := NewScheduler(pool, SchedulerConfig{ScheduleTimes: []string{"bad"}}); err == nil {
		t.Error("expected error for invalid schedule time")
	}
	if _, err := NewScheduler(nil, SchedulerConfig{ScheduleTimes: []string{"06:00"}}); err == nil {
		t.Error("expected error without worker pool")
	}
}

func TestScheduler_ShouldRun(t *testing.T) {
	s, err := NewScheduler(NewWorkerPool(1, 0, 0, 1), SchedulerConfig{ScheduleTimes: []string{"06:00", "18:30"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at := func(h, m int) time.Time { return time.Date(2026, 6, 18, h, m, 10, 0, time.UTC) }

	if !s.shouldRun(at(6, 0)) {
		t.Error("expected run at 06:00")
	}
	if s.shouldRun(at(6, 0)) {
		t.Error("expected no second run in the same minute")
	}
	if s.shouldRun(at(6, 1)) {
		t.Error("expected no run at 06:01")
	}
	if !s.shouldRun(at(18, 30)) {
		t.Error("expected run at 18:30")
	}
	if !s.shouldRun(at(6, 0).AddDate(0, 0, 1)) {
		t.Error("expected run at 06:00 the next day")
	}
}

func TestScheduler_GetNextScheduledTime(t *testing.T) {
	s, err := NewScheduler(NewWorkerPool(1, 0, 0, 1), SchedulerConfig{ScheduleTimes: []string{"18:30", "06:00"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before first", time.Date(2026, 6, 18, 5, 0, 0, 0, time.UTC), time.Date(2026, 6, 18, 6, 0, 0, 0, time.UTC)},
		{"between", time.Date(2026, 6, 18, 12, 0, 0, 0, time.UTC), time.Date(2026, 6, 18, 18, 30, 0, 0, time.UTC)},
		{"after last", time.Date(2026, 6, 18, 20, 0, 0, 0, time.UTC), time.Date(2026, 6, 19, 6, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.GetNextScheduledTime(tt.now); !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSyncableItemsProvider(t *testing.T) {
	syncer := &MockSyncer{}

	t.Run("one job per item", func(t *testing.T) {
		lister := &MockItemLister{
			ListSyncableFunc: func(ctx context.Context) ([]*item.Item, error) {
				return []*item.Item{{ID: "item-1"}, {ID: "item-2"}}, nil
			},
		}
		jobs, err := SyncableItemsProvider(lister, syncer)(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(jobs) != 2 || jobs[0].ItemID() != "item-1" || jobs[1].ItemID() != "item-2" {
			t.Errorf("unexpected jobs: %v", jobs)
		}
	})

	t.Run("lister error", func(t *testing.T) {
		lister := &MockItemLister{
			ListSyncableFunc: func(ctx context.Context) ([]*item.Item, error) {
				return nil, errors.New("db down")
			},
		}
		if _, err := SyncableItemsProvider(lister, syncer)(context.Background()); err == nil {
			t.Error("expected error")
		}
	})
}

func TestScheduler_RunOnStartup(t *testing.T) {
	syncer := &MockSyncer{}
	pool := NewWorkerPool(2, 0, time.Second, 10)
	lister := &MockItemLister{
		ListSyncableFunc: func(ctx context.Context) ([]*item.Item, error) {
			return []*item.Item{{ID: "item-1"}, {ID: "item-2"}}, nil
		},
	}

	s, err := NewScheduler(pool, SchedulerConfig{
		ScheduleTimes: []string{"03:00"},
		RunOnStartup:  true,
		JobProvider:   SyncableItemsProvider(lister, syncer),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pool.Start()
	s.Start()

	deadline := time.After(2 * time.Second)
	for len(syncer.called()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected 2 syncs, got %v", syncer.called())
		case <-time.After(10 * time.Millisecond):
		}
	}

	s.Shutdown(time.Second)
}

func TestWorkerPool_ProcessesJobs(t *testing.T) {
	pool := NewWorkerPool(3, 0, time.Second, 10)
	pool.Start()

	var count atomic.Int32
	for i := 0; i < 5; i++ {
		job := &MockJob{itemID: "item", ExecuteFunc: func(ctx context.Context) error {
			count.Add(1)
			return nil
		}}
		if err := pool.Submit(job); err != nil {
			t.Fatalf("unexpected submit error: %v", err)
		}
	}

	pool.Shutdown()

	if got := count.Load(); got != 5 {
		t.Errorf("expected 5 jobs executed, got %d", got)
	}
}

func TestWorkerPool_QueueFull(t *testing.T) {
	// Not started, so nothing drains the queue.
	pool := NewWorkerPool(1, 0, time.Second, 1)

	if err := pool.Submit(&MockJob{itemID: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := pool.Submit(&MockJob{itemID: "b"})
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestWorkerPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewWorkerPool(1, 0, time.Second, 1)
	pool.Start()
	pool.Shutdown()

	if err := pool.Submit(&MockJob{itemID: "a"}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestWorkerPool_JobTimeout(t *testing.T) {
	pool := NewWorkerPool(1, 0, 20*time.Millisecond, 1)
	pool.Start()

	done := make(chan error, 1)
	job := &MockJob{itemID: "slow", ExecuteFunc: func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	}}
	if err := pool.Submit(job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("job was not cancelled by its timeout")
	}

	pool.Shutdown()
}

func TestItemSyncJob_Execute(t *testing.T) {
	tests := []struct {
		name    string
		result  *aggregation.SyncResult
		err     error
		wantErr bool
	}{
		{name: "success", result: &aggregation.SyncResult{ItemID: "item-1"}},
		{name: "partial errors do not fail the job", result: &aggregation.SyncResult{ItemID: "item-1", Errors: []string{"upsert tx-1"}}},
		{name: "sync error", err: aggregation.ErrUpstreamFailure, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &MockSyncer{
				UpdateTransactionsFunc: func(ctx context.Context, itemID string) (*aggregation.SyncResult, error) {
					return tt.result, tt.err
				},
			}
			job := NewItemSyncJob("item-1", syncer)

			err := job.Execute(context.Background())
			if tt.wantErr {
				if !errors.Is(err, tt.err) {
					t.Errorf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSyncQueue_QueueSync(t *testing.T) {
	syncer := &MockSyncer{}
	pool := NewWorkerPool(1, 0, time.Second, 1)
	q := NewSyncQueue(pool, syncer)

	if q.QueueSync("") {
		t.Error("empty item id should not be queued")
	}
	if !q.QueueSync("item-1") {
		t.Error("expected first job to be queued")
	}
	if q.QueueSync("item-2") {
		t.Error("expected second job to be dropped on a full queue")
	}

	pool.Start()
	pool.Shutdown()

	if got := syncer.called(); len(got) != 1 || got[0] != "item-1" {
		t.Errorf("unexpected syncs: %v", got)
	}
}
