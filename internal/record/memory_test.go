package record

import (
	"context"
	"errors"
	"testing"
	"time"
)

func sampleRecord(uuid string, endedAt time.Time) *MatchRecord {
	return &MatchRecord{
		MatchUUID: uuid,
		White:     "gpt-4o",
		Black:     "stockfish",
		WhiteKind: "llm",
		BlackKind: "engine",
		Result:    "0-1",
		Method:    "checkmate",
		MovesUCI:  []string{"f2f3", "e7e5", "g2g4", "d8h4"},
		MovesSAN:  []string{"f3", "e5", "g4", "Qh4#"},
		PlyCount:  4,
		StartedAt: endedAt.Add(-time.Minute),
		EndedAt:   endedAt,
		Duration:  time.Minute,
	}
}

func TestMemoryStoreInsertAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, sampleRecord("m-1", time.Now()))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == 0 {
		t.Fatal("zero id")
	}

	rec, err := store.Get(ctx, "m-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil || rec.ID != id || rec.Result != "0-1" {
		t.Fatalf("rec = %+v", rec)
	}

	missing, err := store.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing = %+v, err = %v", missing, err)
	}
}

func TestMemoryStoreRejectsDuplicates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Insert(ctx, sampleRecord("m-1", time.Now())); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := store.Insert(ctx, sampleRecord("m-1", time.Now())); !errors.Is(err, ErrDuplicateMatch) {
		t.Fatalf("duplicate insert err = %v", err)
	}
}

func TestMemoryStoreRecentOrdersByEnd(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	for i, uuid := range []string{"m-1", "m-2", "m-3"} {
		rec := sampleRecord(uuid, base.Add(time.Duration(i)*time.Hour))
		if _, err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("insert %s: %v", uuid, err)
		}
	}

	recs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 2 || recs[0].MatchUUID != "m-3" || recs[1].MatchUUID != "m-2" {
		t.Fatalf("recent = %v, %v", recs[0].MatchUUID, recs[1].MatchUUID)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if _, err := store.Insert(ctx, sampleRecord("m-1", time.Now())); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rec, _ := store.Get(ctx, "m-1")
	rec.MovesUCI[0] = "mutated"
	rec.Result = "1-0"

	again, _ := store.Get(ctx, "m-1")
	if again.MovesUCI[0] != "f2f3" || again.Result != "0-1" {
		t.Fatalf("stored record mutated: %+v", again)
	}
}

func TestMemoryStoreNilRecord(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Insert(context.Background(), nil); err == nil {
		t.Fatal("nil record accepted")
	}
}
