package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"indigo/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "indigo-test.db")
	db, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInitDBIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "twice.db")
	first, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("first InitDB failed: %v", err)
	}
	first.Close()

	second, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}
	second.Close()
}

func TestDeliveryInsertAndQueries(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().UTC().Truncate(time.Second)

	deliveries := []domain.Delivery{
		{DeliveryID: "d-1", EventType: "issue.created", EntityName: "Login broken", Outcome: domain.OutcomeProcessed, ReceivedAt: base},
		{DeliveryID: "d-2", EventType: "issue_comment.created", Outcome: domain.OutcomeProcessed, ReceivedAt: base.Add(time.Minute)},
		{DeliveryID: "d-3", EventType: "module.created", Outcome: domain.OutcomeUnhandled, ReceivedAt: base.Add(2 * time.Minute)},
		{DeliveryID: "d-4", Outcome: domain.OutcomeRejected, Error: "invalid signature", ReceivedAt: base.Add(3 * time.Minute)},
	}
	for _, d := range deliveries {
		if err := InsertDelivery(db, d); err != nil {
			t.Fatalf("InsertDelivery(%s) failed: %v", d.DeliveryID, err)
		}
	}

	exists, err := DeliveryExists(db, "d-2", "")
	if err != nil {
		t.Fatalf("DeliveryExists failed: %v", err)
	}
	if !exists {
		t.Fatal("expected d-2 to exist")
	}
	exists, err = DeliveryExists(db, "missing", "")
	if err != nil {
		t.Fatalf("DeliveryExists failed: %v", err)
	}
	if exists {
		t.Fatal("did not expect a missing delivery to exist")
	}

	exists, err = DeliveryExists(db, "d-4", domain.OutcomeProcessed)
	if err != nil {
		t.Fatalf("DeliveryExists failed: %v", err)
	}
	if exists {
		t.Fatal("a rejected delivery should not match the processed outcome")
	}

	recent, err := GetRecentDeliveries(db, 2)
	if err != nil {
		t.Fatalf("GetRecentDeliveries failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent deliveries, got %d", len(recent))
	}
	if recent[0].DeliveryID != "d-4" || recent[1].DeliveryID != "d-3" {
		t.Fatalf("unexpected order: %s, %s", recent[0].DeliveryID, recent[1].DeliveryID)
	}
	if recent[0].Outcome != domain.OutcomeRejected || recent[0].Error != "invalid signature" {
		t.Fatalf("unexpected rejected delivery: %+v", recent[0])
	}

	counts, err := CountDeliveriesByOutcome(db, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountDeliveriesByOutcome failed: %v", err)
	}
	byOutcome := make(map[domain.Outcome]int, len(counts))
	for _, c := range counts {
		byOutcome[c.Outcome] = c.Count
	}
	if byOutcome[domain.OutcomeProcessed] != 2 {
		t.Fatalf("expected 2 processed, got %d", byOutcome[domain.OutcomeProcessed])
	}
	if byOutcome[domain.OutcomeUnhandled] != 1 || byOutcome[domain.OutcomeRejected] != 1 {
		t.Fatalf("unexpected outcome counts: %+v", byOutcome)
	}
}

func TestPruneDeliveriesBefore(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	old := domain.Delivery{DeliveryID: "old", Outcome: domain.OutcomeProcessed, ReceivedAt: now.AddDate(0, 0, -40)}
	fresh := domain.Delivery{DeliveryID: "fresh", Outcome: domain.OutcomeProcessed, ReceivedAt: now}
	for _, d := range []domain.Delivery{old, fresh} {
		if err := InsertDelivery(db, d); err != nil {
			t.Fatalf("InsertDelivery failed: %v", err)
		}
	}

	removed, err := PruneDeliveriesBefore(db, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("PruneDeliveriesBefore failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned row, got %d", removed)
	}

	remaining, err := GetRecentDeliveries(db, 10)
	if err != nil {
		t.Fatalf("GetRecentDeliveries failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].DeliveryID != "fresh" {
		t.Fatalf("unexpected remaining deliveries: %+v", remaining)
	}
}

func TestJournalRecordDelivery(t *testing.T) {
	db := newTestDB(t)
	journal := NewJournal(db)

	if err := journal.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if err := journal.RecordDelivery(domain.Delivery{
		DeliveryID: "j-1",
		EventType:  "cycle.created",
		Outcome:    domain.OutcomeProcessed,
		ReceivedAt: time.Now(),
	}); err != nil {
		t.Fatalf("RecordDelivery failed: %v", err)
	}

	exists, err := journal.DeliveryExists("j-1")
	if err != nil {
		t.Fatalf("DeliveryExists failed: %v", err)
	}
	if !exists {
		t.Fatal("expected journaled delivery to exist")
	}
	if err := journal.RecordDelivery(domain.Delivery{
		DeliveryID: "j-2",
		Outcome:    domain.OutcomeRejected,
		Error:      "invalid signature",
		ReceivedAt: time.Now(),
	}); err != nil {
		t.Fatalf("RecordDelivery failed: %v", err)
	}
	exists, err = journal.DeliveryExists("j-2")
	if err != nil {
		t.Fatalf("DeliveryExists failed: %v", err)
	}
	if exists {
		t.Fatal("a rejected delivery should not count as seen")
	}
}
