package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/domain"
	"github.com/kopoVIBE/Stoc.kr-sub000/pkg/quant"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleOrder(id string) (domain.Order, domain.OrderOutcome) {
	order := domain.Order{
		ID:               id,
		Ticker:           "005930",
		Side:             domain.SideBuy,
		Kind:             domain.KindLimit,
		LimitPriceMicros: 71_000_000_000,
		Qty:              3,
		CreatedAt:        1_717_000_000_000,
	}
	outcome := domain.OrderOutcome{
		WillExecuteImmediately: true,
		ResolvedPriceMicros:    71_000_000_000,
	}
	return order, outcome
}

func TestJournalLifecycle(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	order, outcome := sampleOrder("cli-1")
	if err := j.RecordSubmitted(ctx, order, outcome); err != nil {
		t.Fatalf("RecordSubmitted: %v", err)
	}

	entry, err := j.Get(ctx, "cli-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Status != domain.StatusSubmitted || !entry.Immediate {
		t.Errorf("entry = %+v", entry)
	}
	if entry.PriceMicros != 71_000_000_000 || entry.Qty != 3 {
		t.Errorf("entry = %+v", entry)
	}

	if err := j.RecordAccepted(ctx, "cli-1", "srv-9", 1_717_000_000_500); err != nil {
		t.Fatalf("RecordAccepted: %v", err)
	}
	if err := j.RecordReconciled(ctx, "cli-1", 1_717_000_001_000); err != nil {
		t.Fatalf("RecordReconciled: %v", err)
	}

	entry, err = j.Get(ctx, "cli-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Status != domain.StatusReconciled {
		t.Errorf("status = %s", entry.Status)
	}
	if entry.ServerOrderID != "srv-9" {
		t.Errorf("server id = %q", entry.ServerOrderID)
	}
	if entry.UpdatedAt != 1_717_000_001_000 {
		t.Errorf("updated at = %d", entry.UpdatedAt)
	}
}

func TestJournalRejection(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	order, outcome := sampleOrder("cli-2")
	if err := j.RecordSubmitted(ctx, order, outcome); err != nil {
		t.Fatalf("RecordSubmitted: %v", err)
	}
	if err := j.RecordRejected(ctx, "cli-2", "insufficient balance", 1_717_000_000_200); err != nil {
		t.Fatalf("RecordRejected: %v", err)
	}

	entry, err := j.Get(ctx, "cli-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Status != domain.StatusRejected || entry.Reason != "insufficient balance" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestJournalUpdateMissingOrder(t *testing.T) {
	j := openTestJournal(t)
	if err := j.RecordAccepted(context.Background(), "nope", "srv-1", 1); err == nil {
		t.Error("accepted an order that was never submitted")
	}
}

func TestJournalListRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for i, id := range []string{"cli-a", "cli-b", "cli-c"} {
		order, outcome := sampleOrder(id)
		order.CreatedAt += quant.TimeStamp(i * 1000)
		if err := j.RecordSubmitted(ctx, order, outcome); err != nil {
			t.Fatalf("RecordSubmitted: %v", err)
		}
	}

	entries, err := j.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d", len(entries))
	}
	if entries[0].ClientOrderID != "cli-c" || entries[1].ClientOrderID != "cli-b" {
		t.Errorf("order = %s, %s", entries[0].ClientOrderID, entries[1].ClientOrderID)
	}
}

func TestJournalMetadata(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	if got, err := j.GetMetadata(ctx, "missing"); err != nil || got != "" {
		t.Errorf("missing key = %q, %v", got, err)
	}
	if err := j.UpsertMetadata(ctx, "favorites_rev", "7", 1); err != nil {
		t.Fatalf("UpsertMetadata: %v", err)
	}
	if err := j.UpsertMetadata(ctx, "favorites_rev", "8", 2); err != nil {
		t.Fatalf("UpsertMetadata: %v", err)
	}
	got, err := j.GetMetadata(ctx, "favorites_rev")
	if err != nil || got != "8" {
		t.Errorf("value = %q, %v", got, err)
	}
}
