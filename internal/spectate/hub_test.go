package spectate

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/park285/llm-chess-arena/pkg/arenadto"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers = %d, want %d", hub.SubscriberCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return ev
}

func TestHubBroadcastsMatchEvents(t *testing.T) {
	hub := NewHub()
	conn := dialTestHub(t, hub)
	waitForSubscribers(t, hub, 1)

	hub.MatchStarted(arenadto.MatchInfo{
		MatchID: "m-1", White: "gpt-4o", Black: "stockfish",
		WhiteKind: "llm", BlackKind: "engine", StartedAt: time.Now(),
	})
	ev := readEvent(t, conn)
	if ev.Type != EventMatchStarted {
		t.Fatalf("type = %q", ev.Type)
	}
	var info arenadto.MatchInfo
	if err := json.Unmarshal(ev.Data, &info); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if info.MatchID != "m-1" || info.White != "gpt-4o" {
		t.Fatalf("info = %+v", info)
	}

	hub.Move(arenadto.MoveEvent{MatchID: "m-1", Ply: 1, Color: "white", UCI: "e2e4", SAN: "e4"})
	ev = readEvent(t, conn)
	if ev.Type != EventMove {
		t.Fatalf("type = %q", ev.Type)
	}

	hub.MatchFinished(arenadto.ResultSummary{MatchID: "m-1", Outcome: "1-0", Method: "checkmate"})
	ev = readEvent(t, conn)
	if ev.Type != EventMatchFinished {
		t.Fatalf("type = %q", ev.Type)
	}
}

func TestHubMultipleSubscribers(t *testing.T) {
	hub := NewHub()
	a := dialTestHub(t, hub)
	b := dialTestHub(t, hub)
	waitForSubscribers(t, hub, 2)

	hub.Move(arenadto.MoveEvent{MatchID: "m-1", Ply: 1, UCI: "e2e4"})
	for _, conn := range []*websocket.Conn{a, b} {
		if ev := readEvent(t, conn); ev.Type != EventMove {
			t.Fatalf("type = %q", ev.Type)
		}
	}
}

func TestHubBroadcastWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	// Must not block or panic.
	hub.Move(arenadto.MoveEvent{MatchID: "m-1", Ply: 1, UCI: "e2e4"})
	if hub.SubscriberCount() != 0 {
		t.Fatalf("subscribers = %d", hub.SubscriberCount())
	}
}

func TestHubClosedRejectsSubscribers(t *testing.T) {
	hub := NewHub()
	hub.Close()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		// Handshake may already fail once the hub is closed.
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The server closes immediately; the next read must fail.
	readCtx, readCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer readCancel()
	if _, _, err := conn.Read(readCtx); err == nil {
		t.Fatal("read succeeded on closed hub")
	}
}
