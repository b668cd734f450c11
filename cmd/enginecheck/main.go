// enginecheck verifies the UCI engine setup: it resolves the binary,
// runs a short search from the start position, and prints the
// candidate lines. Exits non-zero when the engine is unusable.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/park285/llm-chess-arena/internal/engine"
	"github.com/park285/llm-chess-arena/internal/engine/uci"
	"github.com/park285/llm-chess-arena/internal/obslog"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func main() {
	binaryFlag := flag.String("binary", "", "engine binary path (default: resolve from env and PATH)")
	depth := flag.Int("depth", 8, "search depth")
	multipv := flag.Int("multipv", 3, "candidate lines to request")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()

	binary, err := engine.FindBinary(*binaryFlag)
	if err != nil {
		log.Fatalf("engine binary: %v", err)
	}
	log.Printf("engine binary: %s", binary)

	options := uci.DefaultOptions()
	options.MultiPV = *multipv

	eng := engine.New(binary, options)
	defer eng.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started := time.Now()
	candidates, err := eng.Candidates(ctx, startFEN, nil, uci.Limits{Depth: *depth})
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}
	elapsed := time.Since(started)

	if len(candidates) == 0 {
		log.Fatal("engine returned no candidate lines")
	}
	for i, cand := range candidates {
		log.Printf("candidate %d: %s (cp %d, pv %v)", i+1, cand.Move, cand.EvalCP, cand.Principal)
	}
	log.Printf("search ok: depth %d, %d lines, %s", *depth, len(candidates), elapsed.Round(time.Millisecond))
}
