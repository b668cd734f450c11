package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/llm-chess-arena/internal/arena"
	"github.com/park285/llm-chess-arena/internal/checkpoint"
	appcfg "github.com/park285/llm-chess-arena/internal/config"
	"github.com/park285/llm-chess-arena/internal/matchbuilder"
	"github.com/park285/llm-chess-arena/internal/obslog"
	"github.com/park285/llm-chess-arena/internal/presenter"
	"github.com/park285/llm-chess-arena/internal/record"
	"github.com/park285/llm-chess-arena/internal/render"
	"github.com/park285/llm-chess-arena/pkg/arenadto"
)

// runOptions carries the parsed CLI flags. Everything that can fail
// after flag parsing goes through run so deferred cleanup (stores, the
// feed, players) executes on every exit path.
type runOptions struct {
	white    string
	black    string
	plies    int
	display  bool
	metrics  bool
	resume   string
	snapshot bool
}

func main() {
	white := flag.String("white", "random", "white player: llm:<model>, engine[:depth], random[:seed]")
	black := flag.String("black", "random", "black player: llm:<model>, engine[:depth], random[:seed]")
	plies := flag.Int("plies", -1, "ply cap before draw adjudication (-1 = config default, 0 = unlimited)")
	display := flag.Bool("display", true, "render the board after every move")
	withMetrics := flag.Bool("metrics", false, "grade every move with the engine")
	resume := flag.String("resume", "", "match id to resume from its checkpoint")
	snapshot := flag.Bool("snapshot", false, "write a PNG of the final position")
	flag.Parse()

	if err := run(runOptions{
		white:    *white,
		black:    *black,
		plies:    *plies,
		display:  *display,
		metrics:  *withMetrics,
		resume:   *resume,
		snapshot: *snapshot,
	}); err != nil {
		log.Fatal(err)
	}
}

func run(opts runOptions) error {
	cfg, err := appcfg.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		return fmt.Errorf("logger init error: %w", err)
	}
	defer obslog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := matchbuilder.Build(ctx, cfg, opts.white, opts.black, matchbuilder.Options{Metrics: opts.metrics})
	if err != nil {
		return fmt.Errorf("match init error: %w", err)
	}
	defer deps.Close()

	matchID := strings.TrimSpace(opts.resume)
	game := nchess.NewGame()
	var (
		movesSoFar []string
		qualities  []string
	)
	if matchID == "" {
		matchID = uuid.NewString()
	} else {
		if deps.Checkpoints == nil {
			return fmt.Errorf("-resume requires ARENA_REDIS_URL")
		}
		st, resumed, err := deps.Checkpoints.Load(ctx, matchID)
		if err != nil {
			return fmt.Errorf("resume %s: %w", matchID, err)
		}
		game = resumed
		movesSoFar = st.MovesUCI
		qualities = append(qualities, st.Qualities...)
		log.Printf("resuming match %s at ply %d", matchID, len(movesSoFar))
	}

	maxPlies := cfg.MaxPlies
	if opts.plies >= 0 {
		maxPlies = opts.plies
	}

	match, err := arena.NewMatch(matchID, deps.White, deps.Black, maxPlies)
	if err != nil {
		return fmt.Errorf("match setup error: %w", err)
	}
	match.Tracker = deps.Tracker

	info := arenadto.MatchInfo{
		MatchID:   matchID,
		White:     deps.White.Name(),
		Black:     deps.Black.Name(),
		WhiteKind: deps.WhiteSpec.Kind,
		BlackKind: deps.BlackSpec.Kind,
		StartedAt: time.Now(),
	}

	if deps.Feed != nil {
		deps.Feed.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := deps.Feed.Shutdown(shutdownCtx); err != nil {
				obslog.L().Warn("feed_shutdown_error", zap.Error(err))
			}
		}()
		deps.Hub.MatchStarted(info)
	}

	var board *render.ANSI
	if opts.display {
		board = render.NewANSI(os.Stdout, deps.White.Name(), deps.Black.Name())
	}

	allMoves := append([]string(nil), movesSoFar...)
	match.Observer = func(ev arena.MoveEvent) {
		allMoves = append(allMoves, ev.UCI)
		qualities = append(qualities, ev.Quality)

		if deps.Hub != nil {
			deps.Hub.Move(arenadto.MoveEvent{
				MatchID:  matchID,
				Ply:      ev.Ply,
				Color:    arena.ColorName(ev.Color),
				UCI:      ev.UCI,
				SAN:      ev.SAN,
				FENAfter: ev.FENAfter,
				Quality:  ev.Quality,
			})
		}
		if err := deps.Checkpoints.Save(ctx, &checkpoint.State{
			MatchID:   matchID,
			White:     info.White,
			Black:     info.Black,
			MovesUCI:  allMoves,
			Qualities: qualities,
		}); err != nil {
			obslog.L().Warn("checkpoint_save_error", zap.String("match_id", matchID), zap.Error(err))
		}
		if board != nil {
			board.ClearScreen()
			if err := board.Frame(game, qualities); err != nil {
				obslog.L().Warn("render_error", zap.Error(err))
			}
		}
	}

	started := time.Now()
	res, err := match.RunFrom(ctx, game, movesSoFar)
	if err != nil {
		// Checkpoints are saved per move; an interrupted or failed match
		// can resume with -resume.
		return fmt.Errorf("match %s aborted: %w", matchID, err)
	}

	if board != nil {
		board.ClearScreen()
		if err := board.Frame(game, qualities); err != nil {
			obslog.L().Warn("render_error", zap.Error(err))
		}
	}

	summary := arenadto.ResultSummary{
		MatchID:  matchID,
		Outcome:  res.Outcome.String(),
		Method:   strings.ToLower(res.Method.String()),
		Reason:   res.Reason,
		FinalFEN: res.FinalFEN,
		PlyCount: res.PlyCount,
		Duration: time.Since(started),
		Metrics:  res.Metrics,
	}
	if deps.Hub != nil {
		deps.Hub.MatchFinished(summary)
	}

	fmt.Println(presenter.NewFormatter().Report(info, summary, res.MovesSAN))

	if opts.snapshot {
		if err := writeSnapshot(cfg.SnapshotDir, matchID, game); err != nil {
			obslog.L().Warn("snapshot_error", zap.Error(err))
		}
	}

	storeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rec := buildRecord(matchID, info, summary, res, game.String())
	if _, err := deps.Store.Insert(storeCtx, rec); err != nil && !errors.Is(err, record.ErrDuplicateMatch) {
		obslog.L().Error("record_insert_error", zap.String("match_id", matchID), zap.Error(err))
	}
	if err := deps.Checkpoints.Delete(storeCtx, matchID); err != nil {
		obslog.L().Warn("checkpoint_delete_error", zap.String("match_id", matchID), zap.Error(err))
	}
	return nil
}

func buildRecord(matchID string, info arenadto.MatchInfo, summary arenadto.ResultSummary, res *arena.Result, pgn string) *record.MatchRecord {
	rec := &record.MatchRecord{
		MatchUUID: matchID,
		White:     info.White,
		Black:     info.Black,
		WhiteKind: info.WhiteKind,
		BlackKind: info.BlackKind,
		Result:    summary.Outcome,
		Method:    summary.Method,
		Reason:    summary.Reason,
		MovesUCI:  res.MovesUCI,
		MovesSAN:  res.MovesSAN,
		PGN:       pgn,
		FinalFEN:  res.FinalFEN,
		PlyCount:  res.PlyCount,
		StartedAt: info.StartedAt,
		EndedAt:   info.StartedAt.Add(summary.Duration),
		Duration:  summary.Duration,
	}
	if m, ok := res.Metrics["white"]; ok {
		rec.WhiteAvgCPLoss = m.AvgCPLoss
		rec.WhiteBlunders = m.QualityCounts["blunder"]
	}
	if m, ok := res.Metrics["black"]; ok {
		rec.BlackAvgCPLoss = m.AvgCPLoss
		rec.BlackBlunders = m.QualityCounts["blunder"]
	}
	return rec
}

func writeSnapshot(dir, matchID string, game *nchess.Game) error {
	opts := render.PNGOptions{}
	if moves := game.Moves(); len(moves) > 0 {
		last := moves[len(moves)-1]
		opts.Highlight = &render.MoveHighlight{From: last.S1(), To: last.S2()}
	}
	data, err := render.RenderPNG(game.CurrentPosition().Board(), opts)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, matchID+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Printf("final position written to %s", path)
	return nil
}
