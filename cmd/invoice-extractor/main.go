package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/invoice-extractor/internal/preview"
	"github.com/zombor/invoice-extractor/internal/remote"
	"github.com/zombor/invoice-extractor/internal/web"
	"github.com/zombor/invoice-extractor/internal/workspace"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// .env values become environment variables picked up by the flag parser
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	fs := ff.NewFlagSet("invoice-extractor")
	var (
		port         = fs.IntLong("port", 3000, "HTTP server port")
		backendURL   = fs.StringLong("backend-url", "http://localhost:8000", "Extraction backend base URL")
		timeout      = fs.DurationLong("backend-timeout", 2*time.Minute, "Timeout for backend requests (0 for none)")
		previewDir   = fs.StringLong("preview-dir", filepath.Join(os.TempDir(), "invoice-extractor-previews"), "Directory for rendered previews")
		previewSize  = fs.IntLong("preview-size", preview.DefaultMaxDimension, "Maximum preview width and height in pixels")
		sessionIdle  = fs.DurationLong("session-idle", 30*time.Minute, "Close sessions idle for this long (0 to keep them)")
		reapInterval = fs.DurationLong("reap-interval", time.Minute, "How often idle sessions are checked (0 disables reaping)")
		_            = fs.StringLong("config", "", "Config file (flag per line)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_EXTRACTOR"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.Info("Initializing preview storage...", "dir", *previewDir)
	storage, err := preview.NewLocalStorage(*previewDir)
	if err != nil {
		slog.Error("Failed to initialize preview storage", "error", err)
		os.Exit(1)
	}
	previews := preview.NewStore(storage, *previewSize)

	client := remote.NewClient(*backendURL, *timeout)
	manager := workspace.NewManager(client, client, previews, *sessionIdle)
	server := web.NewServer(manager, previews)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		manager.Run(ctx, *reapInterval)
		close(done)
	}()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "backend", *backendURL, "version", version)
	if err := server.Start(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		stop()
		<-done
		os.Exit(1)
	}

	<-done
	slog.Info("Shutting down...")
}
