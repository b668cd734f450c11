// Package matchbuilder turns CLI player specs and app config into a
// wired match: players, prompts, metrics, persistence, and the
// spectator feed.
package matchbuilder

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/llm-chess-arena/internal/arena"
	"github.com/park285/llm-chess-arena/internal/checkpoint"
	"github.com/park285/llm-chess-arena/internal/config"
	"github.com/park285/llm-chess-arena/internal/engine"
	"github.com/park285/llm-chess-arena/internal/engine/uci"
	"github.com/park285/llm-chess-arena/internal/llm"
	"github.com/park285/llm-chess-arena/internal/llmplayer"
	"github.com/park285/llm-chess-arena/internal/metrics"
	"github.com/park285/llm-chess-arena/internal/prompt"
	"github.com/park285/llm-chess-arena/internal/record"
	"github.com/park285/llm-chess-arena/internal/spectate"
)

// Player spec kinds.
const (
	KindLLM    = "llm"
	KindEngine = "engine"
	KindRandom = "random"
)

// PlayerSpec is a parsed player argument: "llm:<model>",
// "engine[:depth]", or "random[:seed]".
type PlayerSpec struct {
	Kind  string
	Model string
	Depth int
	Seed  int64
}

// ParsePlayerSpec parses one player argument.
func ParsePlayerSpec(s string) (PlayerSpec, error) {
	s = strings.TrimSpace(s)
	kind, rest, _ := strings.Cut(s, ":")
	switch strings.ToLower(kind) {
	case KindLLM:
		if strings.TrimSpace(rest) == "" {
			return PlayerSpec{}, fmt.Errorf("llm player needs a model, e.g. llm:openai/gpt-4o")
		}
		return PlayerSpec{Kind: KindLLM, Model: strings.TrimSpace(rest)}, nil
	case KindEngine:
		spec := PlayerSpec{Kind: KindEngine}
		if rest != "" {
			depth, err := strconv.Atoi(rest)
			if err != nil || depth <= 0 {
				return PlayerSpec{}, fmt.Errorf("bad engine depth %q", rest)
			}
			spec.Depth = depth
		}
		return spec, nil
	case KindRandom:
		spec := PlayerSpec{Kind: KindRandom}
		if rest != "" {
			seed, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				return PlayerSpec{}, fmt.Errorf("bad random seed %q", rest)
			}
			spec.Seed = seed
		}
		return spec, nil
	default:
		return PlayerSpec{}, fmt.Errorf("unknown player kind %q (want llm:<model>, engine[:depth], random[:seed])", kind)
	}
}

// DisplayName is the label used in reports and the spectator feed.
func (s PlayerSpec) DisplayName() string {
	switch s.Kind {
	case KindLLM:
		if _, model, found := strings.Cut(s.Model, "/"); found {
			return model
		}
		return s.Model
	case KindEngine:
		return "stockfish"
	default:
		return "random"
	}
}

// Deps bundles everything a match run needs. Players and the tracker
// are owned by the match; Close releases the shared infrastructure.
type Deps struct {
	White arena.Player
	Black arena.Player

	WhiteSpec PlayerSpec
	BlackSpec PlayerSpec

	Prompts     *prompt.Builder
	Tracker     *metrics.Tracker
	Store       record.Store
	Checkpoints *checkpoint.Store
	Hub         *spectate.Hub
	Feed        *spectate.Server

	closers []func() error
}

// Close releases stores and the feed. Players and the tracker close
// with the match itself.
func (d *Deps) Close() error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Options selects optional subsystems for a run.
type Options struct {
	// Metrics grades every move with the engine; needs a reachable
	// binary, otherwise the tracker comes up disabled.
	Metrics bool
}

// Build wires a full match from two player specs.
func Build(ctx context.Context, cfg *config.AppConfig, whiteArg, blackArg string, opts Options) (*Deps, error) {
	whiteSpec, err := ParsePlayerSpec(whiteArg)
	if err != nil {
		return nil, fmt.Errorf("matchbuilder: white: %w", err)
	}
	blackSpec, err := ParsePlayerSpec(blackArg)
	if err != nil {
		return nil, fmt.Errorf("matchbuilder: black: %w", err)
	}

	catalog, err := prompt.NewCatalog(cfg.PromptDir)
	if err != nil {
		return nil, fmt.Errorf("matchbuilder: prompt catalog: %w", err)
	}
	deps := &Deps{
		WhiteSpec: whiteSpec,
		BlackSpec: blackSpec,
		Prompts:   prompt.NewBuilder(catalog),
	}

	deps.White, err = buildPlayer(cfg, whiteSpec, nchess.White, deps.Prompts)
	if err != nil {
		return nil, fmt.Errorf("matchbuilder: white player: %w", err)
	}
	deps.Black, err = buildPlayer(cfg, blackSpec, nchess.Black, deps.Prompts)
	if err != nil {
		closePlayer(deps.White)
		return nil, fmt.Errorf("matchbuilder: black player: %w", err)
	}

	if opts.Metrics {
		deps.Tracker = metrics.FromEngineBinary(cfg.StockfishPath, cfg.MetricsDepth)
	} else {
		deps.Tracker = metrics.NewDisabledTracker()
	}

	if cfg.PostgresDSN != "" {
		store, err := record.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			deps.releaseOnBuildError()
			return nil, fmt.Errorf("matchbuilder: match store: %w", err)
		}
		deps.Store = store
	} else {
		deps.Store = record.NewMemoryStore()
	}
	deps.closers = append(deps.closers, deps.Store.Close)

	if cfg.RedisURL != "" {
		cps, err := checkpoint.NewStore(cfg.RedisURL, 24*time.Hour)
		if err != nil {
			deps.releaseOnBuildError()
			return nil, fmt.Errorf("matchbuilder: checkpoints: %w", err)
		}
		deps.Checkpoints = cps
		deps.closers = append(deps.closers, cps.Close)
	}

	if cfg.FeedAddr != "" {
		deps.Hub = spectate.NewHub()
		deps.Feed = spectate.NewServer(deps.Hub, cfg.FeedAddr)
	}

	return deps, nil
}

func buildPlayer(cfg *config.AppConfig, spec PlayerSpec, color nchess.Color, prompts *prompt.Builder) (arena.Player, error) {
	name := spec.DisplayName()
	switch spec.Kind {
	case KindLLM:
		conn, err := llm.New(llm.Config{
			Model:       spec.Model,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
			Timeout:     cfg.LLMTimeout,
			MaxRetries:  cfg.LLMMaxRetries,
			BaseURL:     cfg.LLMBaseURL,
			APIKey:      apiKeyFor(cfg, spec.Model),
		})
		if err != nil {
			return nil, err
		}
		return llmplayer.NewPlayer(name, color, conn, prompts,
			llmplayer.WithRetries(cfg.MoveRetries),
			llmplayer.WithVotes(cfg.Votes),
		)
	case KindEngine:
		binary, err := engine.FindBinary(cfg.StockfishPath)
		if err != nil {
			return nil, err
		}
		eng := engine.New(binary, uci.DefaultOptions())
		return engine.NewPlayer(name, color, eng, uci.Limits{Depth: spec.Depth})
	case KindRandom:
		return arena.NewRandomPlayer(name, color, spec.Seed), nil
	default:
		return nil, fmt.Errorf("unknown player kind %q", spec.Kind)
	}
}

func apiKeyFor(cfg *config.AppConfig, model string) string {
	switch {
	case strings.HasPrefix(model, "openai/"):
		return cfg.OpenAIKey
	case strings.HasPrefix(model, "anthropic/"):
		return cfg.AnthropicKey
	case strings.HasPrefix(model, "gemini/"):
		return cfg.GeminiKey
	default:
		// Compat endpoints speak the OpenAI protocol.
		return cfg.OpenAIKey
	}
}

func closePlayer(p arena.Player) {
	if p != nil {
		_ = p.Close()
	}
}

// releaseOnBuildError unwinds a half-built Deps.
func (d *Deps) releaseOnBuildError() {
	closePlayer(d.White)
	closePlayer(d.Black)
	if d.Tracker != nil {
		_ = d.Tracker.Close()
	}
	_ = d.Close()
}
