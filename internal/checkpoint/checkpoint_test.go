package checkpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStoreWithClient(rdb, time.Hour)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	st := &State{
		MatchID:   "m-1",
		White:     "gpt-4o",
		Black:     "stockfish",
		MovesUCI:  []string{"e2e4", "e7e5", "g1f3"},
		Qualities: []string{"best", "good", "best"},
	}
	if err := store.Save(ctx, st); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, game, err := store.Load(ctx, "m-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.White != "gpt-4o" || len(loaded.MovesUCI) != 3 {
		t.Fatalf("loaded = %+v", loaded)
	}
	if loaded.SavedAt.IsZero() {
		t.Fatal("saved_at not stamped")
	}
	if got := len(game.Moves()); got != 3 {
		t.Fatalf("replayed moves = %d", got)
	}
}

func TestLoadMissing(t *testing.T) {
	store, _ := testStore(t)
	if _, _, err := store.Load(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestSaveRejectsStaleWriter(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	ahead := &State{MatchID: "m-1", MovesUCI: []string{"e2e4", "e7e5"}}
	if err := store.Save(ctx, ahead); err != nil {
		t.Fatalf("save: %v", err)
	}

	behind := &State{MatchID: "m-1", MovesUCI: []string{"e2e4"}}
	if err := store.Save(ctx, behind); !errors.Is(err, ErrStale) {
		t.Fatalf("stale save err = %v", err)
	}

	loaded, _, err := store.Load(ctx, "m-1")
	if err != nil || len(loaded.MovesUCI) != 2 {
		t.Fatalf("loaded = %+v, err = %v", loaded, err)
	}
}

func TestLoadDeletesCorruptSnapshot(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	// e2e5 is not a legal opening move; the replay must fail.
	bad := &State{MatchID: "m-1", MovesUCI: []string{"e2e5"}}
	if err := store.Save(ctx, bad); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, _, err := store.Load(ctx, "m-1"); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err = %v", err)
	}
	if _, _, err := store.Load(ctx, "m-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("corrupt snapshot not deleted: %v", err)
	}
}

func TestReplayFromCustomFEN(t *testing.T) {
	st := &State{
		MatchID:  "m-1",
		StartFEN: "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
		MovesUCI: []string{"e1g1"},
	}
	game, err := Replay(st)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if got := len(game.Moves()); got != 1 {
		t.Fatalf("moves = %d", got)
	}
}

func TestSnapshotExpires(t *testing.T) {
	store, mr := testStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, &State{MatchID: "m-1", MovesUCI: []string{"e2e4"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Hour)
	if _, _, err := store.Load(ctx, "m-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired snapshot err = %v", err)
	}
}

func TestDeleteAndNilStore(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()
	if err := store.Save(ctx, &State{MatchID: "m-1", MovesUCI: nil}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "m-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := store.Load(ctx, "m-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}

	var off *Store
	if err := off.Save(ctx, &State{MatchID: "x"}); err != nil {
		t.Fatalf("nil store save: %v", err)
	}
	if _, _, err := off.Load(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("nil store load err = %v", err)
	}
	if err := off.Delete(ctx, "x"); err != nil {
		t.Fatalf("nil store delete: %v", err)
	}
	if err := off.Close(); err != nil {
		t.Fatalf("nil store close: %v", err)
	}
}
