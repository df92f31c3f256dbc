package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mandalnilabja/roboadmin/internal/config"
	"github.com/mandalnilabja/roboadmin/internal/version"
)

func setupLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q (must be text or json)", format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

func printStartupBanner(cfg *config.Config) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "Roboadmin %s - Roboadvising Back Office\n", version.Version)
	fmt.Fprintln(os.Stderr, "════════════════════════════════════════════════")
	fmt.Fprintf(os.Stderr, "Admin UI:   http://localhost%s/admin\n", cfg.ServerPort)
	fmt.Fprintf(os.Stderr, "Backend:    %s\n", cfg.BackendURL)
	if cfg.PersistSessions {
		fmt.Fprintf(os.Stderr, "Sessions:   %s\n", config.DBPath())
	} else {
		fmt.Fprintln(os.Stderr, "Sessions:   in memory")
	}
	fmt.Fprintln(os.Stderr, "════════════════════════════════════════════════")
	fmt.Fprintf(os.Stderr, "\n")
}
