// Package engine wraps a UCI chess engine behind a small facade: best
// move search, position analysis, and an arena player. The subprocess
// starts lazily on first use and has exactly one owner.
package engine

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/llm-chess-arena/internal/obslog"
)

const binaryEnvVar = "STOCKFISH_BINARY_PATH"

var commonBinaryPaths = []string{
	"/usr/local/bin/stockfish",
	"/usr/bin/stockfish",
	"/opt/homebrew/bin/stockfish",
}

// FindBinary locates the engine executable. Search order: explicit
// path, STOCKFISH_BINARY_PATH, PATH lookup, common install locations.
// An explicit path that exists but is not executable fails with a
// chmod hint; a bad env var only warns and the search continues.
// Resolution failure is meant to be fatal at configuration time, never
// mid-game.
func FindBinary(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		info, err := os.Stat(explicit)
		if err != nil {
			return "", fmt.Errorf("engine binary not found at %s", explicit)
		}
		if info.Mode()&0o111 == 0 {
			return "", fmt.Errorf("engine binary exists but is not executable at %s (try: chmod +x %s)", explicit, explicit)
		}
		return explicit, nil
	}

	if envPath := strings.TrimSpace(os.Getenv(binaryEnvVar)); envPath != "" {
		info, err := os.Stat(envPath)
		switch {
		case err != nil:
			obslog.L().Warn("engine_env_path_missing", zap.String("path", envPath))
		case info.Mode()&0o111 == 0:
			obslog.L().Warn("engine_env_path_not_executable", zap.String("path", envPath))
		default:
			return envPath, nil
		}
	}

	if path, err := exec.LookPath("stockfish"); err == nil {
		return path, nil
	}

	for _, path := range commonBinaryPaths {
		if info, err := os.Stat(path); err == nil && info.Mode()&0o111 != 0 {
			return path, nil
		}
	}

	return "", fmt.Errorf(
		"stockfish binary not found; set %s, pass an explicit path, or install it (apt install stockfish / brew install stockfish)",
		binaryEnvVar,
	)
}
