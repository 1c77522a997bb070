// Package cli implements the memstore CLI commands.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/config"
	"github.com/rcliao/memstore/internal/engine"
	"github.com/rcliao/memstore/internal/store"
)

var (
	storeDir string
	verbose  bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memstore",
	Short: "File-backed memory for AI agents",
	Long: "A tiny CLI for agent memory. Records live in a JSONL log under a store directory; " +
		"search ranks them by keyword, embedding similarity or both.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&storeDir, "dir", "d", "", "Store directory (default: $AGENT_MEMORY_DIR or ./"+config.DirName+")")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging on stderr")
}

func getStoreDir() string {
	if storeDir != "" {
		return storeDir
	}
	if env := os.Getenv("AGENT_MEMORY_DIR"); env != "" {
		return env
	}
	return config.DirName
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func openEngine() (*engine.Engine, error) {
	cfg := config.Load(getStoreDir())
	return engine.New(cfg, engine.WithLogger(newLogger()))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	if errors.Is(err, store.ErrNotInitialized) {
		fmt.Fprintln(os.Stderr, "hint: run `memstore init` or pass --dir")
	}
	os.Exit(1)
}

func printJSON(w io.Writer, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode output", err)
	}
	fmt.Fprintln(w, string(b))
}

// splitList parses a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseMeta parses "k=v,k2=v2". A pair without "=" maps the key to "".
func parseMeta(s string) map[string]string {
	meta := map[string]string{}
	for _, pair := range splitList(s) {
		k, v, _ := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		meta[k] = strings.TrimSpace(v)
	}
	return meta
}
