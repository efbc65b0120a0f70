// Command formfill is the profile-driven form autofill daemon.
//
// Usage:
//
//	formfill -url https://jobs.example.com/apply   # one-shot fill
//	formfill -snapshot form.html                   # dry-run over a saved page
//	formfill -serve                                # HTTP control API
//	formfill -mcp                                  # MCP tools over stdio
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/formfill/browser"
	"github.com/hazyhaar/formfill/fill"
	"github.com/hazyhaar/formfill/service"
	"github.com/hazyhaar/formfill/store"
)

func main() {
	configPath := flag.String("config", "", "path to formfill.yaml config file")
	singleURL := flag.String("url", "", "fill a single URL and exit")
	snapshot := flag.String("snapshot", "", "dry-run a fill pass over a saved HTML file")
	sourceURL := flag.String("source-url", "", "source URL of the snapshot, for per-domain rules")
	serve := flag.Bool("serve", false, "run the HTTP control API")
	mcpStdio := flag.Bool("mcp", false, "serve MCP tools over stdio")
	dryRun := flag.Bool("dry-run", false, "compute the fill without writing")
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

	if err := run(ctx, logger, options{
		configPath: *configPath,
		singleURL:  *singleURL,
		snapshot:   *snapshot,
		sourceURL:  *sourceURL,
		serve:      *serve,
		mcpStdio:   *mcpStdio,
		dryRun:     *dryRun,
	}); err != nil {
		logger.Error("formfill: fatal", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	singleURL  string
	snapshot   string
	sourceURL  string
	serve      bool
	mcpStdio   bool
	dryRun     bool
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	cfg := service.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := service.LoadConfigFile(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	engineOpts := []fill.Option{fill.WithLogger(logger)}
	if cfg.Weights != nil {
		engineOpts = append(engineOpts, fill.WithWeights(*cfg.Weights))
	}

	needsBrowser := opts.singleURL != "" || opts.serve || opts.mcpStdio
	var mgr *browser.Manager
	if needsBrowser {
		mgr = browser.NewManager(browser.Config{
			RemoteURL:       cfg.Browser.Remote,
			Headful:         cfg.Browser.Headful,
			Stealth:         cfg.Browser.StealthEnabled(),
			NavigateTimeout: cfg.Browser.NavigateTimeout,
			Logger:          logger,
		})
		if err := mgr.Start(ctx); err != nil {
			return err
		}
		defer mgr.Close()
	}

	svc := service.New(st, mgr,
		service.WithLogger(logger),
		service.WithEngine(fill.NewEngine(engineOpts...)))

	switch {
	case opts.snapshot != "":
		return runSnapshot(ctx, svc, opts.snapshot, opts.sourceURL)
	case opts.singleURL != "":
		return runSingle(ctx, svc, opts.singleURL, opts.dryRun)
	case opts.mcpStdio:
		return runMCP(ctx, svc)
	case opts.serve:
		return runServe(ctx, logger, svc, cfg.Listen)
	}

	fmt.Fprintln(os.Stderr, "usage: formfill -url <url> | -snapshot <file> | -serve | -mcp")
	os.Exit(1)
	return nil
}

func runSingle(ctx context.Context, svc *service.Service, url string, dryRun bool) error {
	sum, err := svc.RunURL(ctx, url, service.Overrides{DryRun: &dryRun})
	if err != nil {
		return err
	}
	return printJSON(sum)
}

func runSnapshot(ctx context.Context, svc *service.Service, path, sourceURL string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	sum, err := svc.RunSnapshot(ctx, f, sourceURL)
	if err != nil {
		return err
	}
	return printJSON(sum)
}

func runMCP(ctx context.Context, svc *service.Service) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "formfill", Version: "1.0.0"}, nil)
	svc.RegisterMCP(srv)
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func runServe(ctx context.Context, logger *slog.Logger, svc *service.Service, addr string) error {
	httpSrv := &http.Server{Addr: addr, Handler: svc.Router()}

	go func() {
		<-ctx.Done()
		httpSrv.Shutdown(context.Background())
	}()

	logger.Info("formfill: listening", "addr", addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
