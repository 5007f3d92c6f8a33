// Command toolstate manages the tool-state database and serves its
// maintenance operations over MCP stdio.
//
// Usage:
//
//	toolstate -config toolstate.yaml            # run with config file
//	toolstate -db state.db -history json-formatter  # list entries and exit
//	toolstate -db state.db -recents             # list recent tools and exit
//	toolstate -db state.db -favorites           # list pinned tools and exit
//	toolstate -db state.db -toggle-favorite json-formatter
//	toolstate -db state.db -clear all           # wipe history and exit
//	toolstate -db state.db -stats               # show counts and exit
//	toolstate -db state.db -mcp                 # serve MCP on stdio
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/AutelysZ/toolstate/toolstate"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	configPath := flag.String("config", "", "path to toolstate.yaml config file")
	dbPath := flag.String("db", "", "path to SQLite database")
	historyTool := flag.String("history", "", "list a tool's history entries and exit")
	limit := flag.Int("limit", 0, "max history entries (0 = all)")
	listRecents := flag.Bool("recents", false, "list recent tools and exit")
	listFavorites := flag.Bool("favorites", false, "list pinned tools and exit")
	toggleFavorite := flag.String("toggle-favorite", "", "toggle a tool's pinned state and exit")
	clearScope := flag.String("clear", "", `clear history: "tool" (with -tool) or "all"`)
	clearTool := flag.String("tool", "", "tool id for -clear tool")
	showStats := flag.Bool("stats", false, "show stats and exit")
	serveMCP := flag.Bool("mcp", false, "serve MCP on stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := cliOptions{
		historyTool:    *historyTool,
		limit:          *limit,
		listRecents:    *listRecents,
		listFavorites:  *listFavorites,
		toggleFavorite: *toggleFavorite,
		clearScope:     *clearScope,
		clearTool:      *clearTool,
		showStats:      *showStats,
		serveMCP:       *serveMCP,
	}
	if err := run(ctx, logger, *configPath, *dbPath, opts); err != nil {
		logger.Error("toolstate: fatal", "error", err)
		os.Exit(1)
	}
}

type cliOptions struct {
	historyTool    string
	limit          int
	listRecents    bool
	listFavorites  bool
	toggleFavorite string
	clearScope     string
	clearTool      string
	showStats      bool
	serveMCP       bool
}

func run(ctx context.Context, logger *slog.Logger, configPath, dbPath string, opts cliOptions) error {
	cfg, err := resolveConfig(configPath, dbPath)
	if err != nil {
		return err
	}

	eng, err := toolstate.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer eng.Close()

	switch {
	case opts.historyTool != "":
		entries, err := eng.History().List(ctx, opts.historyTool, opts.limit)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		return emit(entries)

	case opts.listRecents:
		recents, err := eng.Recents().List(ctx)
		if err != nil {
			return fmt.Errorf("recents: %w", err)
		}
		return emit(recents)

	case opts.listFavorites:
		favs, err := eng.Favorites().List(ctx)
		if err != nil {
			return fmt.Errorf("favorites: %w", err)
		}
		return emit(favs)

	case opts.toggleFavorite != "":
		pinned, err := eng.Favorites().Toggle(ctx, opts.toggleFavorite)
		if err != nil {
			return fmt.Errorf("toggle favorite: %w", err)
		}
		return emit(map[string]any{"tool_id": opts.toggleFavorite, "pinned": pinned})

	case opts.clearScope != "":
		if err := eng.History().Clear(ctx, toolstate.Scope(opts.clearScope), opts.clearTool); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		return emit(map[string]string{"status": "cleared", "scope": opts.clearScope})

	case opts.showStats:
		stats, err := eng.Stats(ctx)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		return emit(stats)

	case opts.serveMCP:
		srv := mcp.NewServer(&mcp.Implementation{
			Name:    "toolstate",
			Version: "1.0.0",
		}, nil)
		eng.RegisterMCP(srv)
		logger.Info("toolstate: serving MCP on stdio", "db", cfg.DBPath)
		return srv.Run(ctx, &mcp.StdioTransport{})
	}

	fmt.Fprintln(os.Stderr, "usage: toolstate -config <file> | -db <path> [-history <tool>] [-recents] [-favorites] [-toggle-favorite <tool>] [-clear tool|all] [-stats] [-mcp]")
	return nil
}

func emit(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func resolveConfig(configPath, dbPath string) (*toolstate.Config, error) {
	if configPath != "" {
		return toolstate.LoadConfigFile(configPath)
	}

	cfg := &toolstate.Config{}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	if cfg.DBPath == "" {
		fmt.Fprintln(os.Stderr, "usage: toolstate -config <file> | -db <path>")
		os.Exit(1)
	}
	return cfg, nil
}
