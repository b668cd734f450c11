package main

import (
	"strings"
	"testing"
)

// clearArenaEnv keeps the run under test on in-memory subsystems only.
func clearArenaEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ARENA_REDIS_URL",
		"ARENA_POSTGRES_DSN",
		"ARENA_FEED_ADDR",
		"ARENA_PROMPT_DIR",
		"ARENA_SNAPSHOT_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestRunResumeWithoutCheckpointStore(t *testing.T) {
	clearArenaEnv(t)

	err := run(runOptions{white: "random:1", black: "random:2", resume: "some-match"})
	if err == nil {
		t.Fatal("resume without a checkpoint store accepted")
	}
	if !strings.Contains(err.Error(), "ARENA_REDIS_URL") {
		t.Fatalf("err = %v, want ARENA_REDIS_URL hint", err)
	}
}

func TestRunPlaysRandomMatch(t *testing.T) {
	clearArenaEnv(t)

	if err := run(runOptions{white: "random:1", black: "random:2", plies: 6}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunRejectsBadPlayerSpec(t *testing.T) {
	clearArenaEnv(t)

	if err := run(runOptions{white: "nope", black: "random"}); err == nil {
		t.Fatal("bad player spec accepted")
	}
}
