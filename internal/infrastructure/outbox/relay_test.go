package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gamevault/walletd/internal/application/ports"
	"github.com/gamevault/walletd/internal/domain/events"
)

// ============================================
// Mocks
// ============================================

type mockOutboxRepo struct {
	entries        []ports.OutboxEntry
	findErr        error
	markErr        error
	published      []string
	cleanupCalls   int
	cleanupDeleted int64
}

func (m *mockOutboxRepo) Save(ctx context.Context, event events.DomainEvent) error {
	return nil
}

func (m *mockOutboxRepo) FindUnpublished(ctx context.Context, limit int) ([]ports.OutboxEntry, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if limit < len(m.entries) {
		return m.entries[:limit], nil
	}
	return m.entries, nil
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, eventID string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.published = append(m.published, eventID)
	return nil
}

func (m *mockOutboxRepo) CleanupPublished(ctx context.Context, olderThan time.Duration) (int64, error) {
	m.cleanupCalls++
	return m.cleanupDeleted, nil
}

// passthroughUOW выполняет fn без транзакции, считая вызовы.
type passthroughUOW struct {
	calls int
}

func (u *passthroughUOW) Execute(ctx context.Context, fn func(context.Context) error) error {
	u.calls++
	return fn(ctx)
}

func (u *passthroughUOW) ExecuteWithRetry(ctx context.Context, fn func(context.Context) error) error {
	return u.Execute(ctx, fn)
}

type mockSink struct {
	delivered []ports.OutboxEntry
	failOn    string // EventID, на котором доставка падает
}

func (s *mockSink) Deliver(ctx context.Context, entry ports.OutboxEntry) error {
	if s.failOn != "" && entry.EventID == s.failOn {
		return errors.New("delivery failed")
	}
	s.delivered = append(s.delivered, entry)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func entry(id string) ports.OutboxEntry {
	return ports.OutboxEntry{
		EventID:     id,
		EventType:   "transfer.committed",
		AggregateID: "agg-" + id,
		Payload:     []byte(`{}`),
	}
}

// ============================================
// Tests
// ============================================

func TestRelay_DrainDeliversAndMarks(t *testing.T) {
	repo := &mockOutboxRepo{entries: []ports.OutboxEntry{entry("e1"), entry("e2")}}
	uow := &passthroughUOW{}
	sink := &mockSink{}

	relay := NewRelay(repo, uow, sink, testLogger(), DefaultConfig())

	if err := relay.drainOnce(context.Background()); err != nil {
		t.Fatalf("drainOnce() error = %v", err)
	}

	if len(sink.delivered) != 2 {
		t.Fatalf("delivered = %d, want 2", len(sink.delivered))
	}
	if len(repo.published) != 2 || repo.published[0] != "e1" || repo.published[1] != "e2" {
		t.Errorf("published = %v, want [e1 e2]", repo.published)
	}
	// вся пачка в одной транзакции
	if uow.calls != 1 {
		t.Errorf("uow calls = %d, want 1", uow.calls)
	}
}

func TestRelay_DeliveryFailureKeepsEventPending(t *testing.T) {
	repo := &mockOutboxRepo{entries: []ports.OutboxEntry{entry("e1"), entry("e2"), entry("e3")}}
	sink := &mockSink{failOn: "e2"}

	relay := NewRelay(repo, &passthroughUOW{}, sink, testLogger(), DefaultConfig())

	err := relay.drainOnce(context.Background())
	if err == nil {
		t.Fatal("drainOnce() expected error")
	}

	// e1 доставлено и помечено, e2 и e3 остаются PENDING
	if len(repo.published) != 1 || repo.published[0] != "e1" {
		t.Errorf("published = %v, want [e1]", repo.published)
	}
	if len(sink.delivered) != 1 {
		t.Errorf("delivered = %d, want 1", len(sink.delivered))
	}
}

func TestRelay_MarkFailureAborts(t *testing.T) {
	repo := &mockOutboxRepo{
		entries: []ports.OutboxEntry{entry("e1")},
		markErr: errors.New("update failed"),
	}

	relay := NewRelay(repo, &passthroughUOW{}, &mockSink{}, testLogger(), DefaultConfig())

	if err := relay.drainOnce(context.Background()); err == nil {
		t.Fatal("drainOnce() expected error")
	}
}

func TestRelay_EmptyBatch(t *testing.T) {
	repo := &mockOutboxRepo{}
	sink := &mockSink{}

	relay := NewRelay(repo, &passthroughUOW{}, sink, testLogger(), DefaultConfig())

	if err := relay.drainOnce(context.Background()); err != nil {
		t.Fatalf("drainOnce() error = %v", err)
	}
	if len(sink.delivered) != 0 {
		t.Errorf("delivered = %d, want 0", len(sink.delivered))
	}
}

func TestRelay_BatchSizeLimitsFetch(t *testing.T) {
	repo := &mockOutboxRepo{entries: []ports.OutboxEntry{entry("e1"), entry("e2"), entry("e3")}}
	sink := &mockSink{}

	relay := NewRelay(repo, &passthroughUOW{}, sink, testLogger(), Config{BatchSize: 2})

	if err := relay.drainOnce(context.Background()); err != nil {
		t.Fatalf("drainOnce() error = %v", err)
	}
	if len(sink.delivered) != 2 {
		t.Errorf("delivered = %d, want 2 (batch size)", len(sink.delivered))
	}
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	repo := &mockOutboxRepo{entries: []ports.OutboxEntry{entry("e1")}}
	sink := &mockSink{}

	relay := NewRelay(repo, &passthroughUOW{}, sink, testLogger(), Config{
		Interval:  10 * time.Millisecond,
		BatchSize: 10,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	// ждём хотя бы один тик
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after context cancellation")
	}

	if len(sink.delivered) == 0 {
		t.Error("relay must have drained at least once before cancellation")
	}
}
