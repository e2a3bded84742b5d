package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/kisandost/kisan-chat/internal/config"
	"github.com/kisandost/kisan-chat/internal/metrics"
	"github.com/kisandost/kisan-chat/internal/storage"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const usage = `usage: kisan-chat <command> [flags]

commands:
  tui        open the chat screens (default)
  contacts   print the conversation list
  login      store the logged-in user on this device
  ask        ask the farming assistant a question
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code, err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "kisan-chat: %v\n", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, args []string, out io.Writer) (int, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return exitConfig, err
	}

	command := "tui"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	logger, closeLog, err := newLogger(cfg.Log, command == "tui")
	if err != nil {
		return exitConfig, err
	}
	defer closeLog()

	if cfg.Metrics.Enabled() {
		go serveMetrics(ctx, cfg.Metrics.Addr, logger)
	}

	switch command {
	case "tui":
		return runTUI(ctx, cfg, logger)
	case "contacts":
		return runContacts(ctx, cfg, logger, out)
	case "login":
		return runLogin(ctx, cfg, logger, args, out)
	case "ask":
		return runAsk(ctx, cfg, logger, args, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return exitOK, nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return exitConfig, fmt.Errorf("unknown command %q", command)
	}
}

// newLogger writes to the log file while the terminal UI owns the screen and
// to stderr otherwise.
func newLogger(cfg config.LogConfig, toFile bool) (zerolog.Logger, func(), error) {
	level := cfg.ZerologLevel()
	if !toFile || cfg.File == "" {
		w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		return zerolog.New(w).Level(level).With().Timestamp().Logger(), func() {}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("open log file: %w", err)
	}
	logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return logger, func() { _ = f.Close() }, nil
}

func openStore(cfg *config.Config, logger zerolog.Logger) (*storage.BadgerStore, error) {
	if err := os.MkdirAll(cfg.Store.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return storage.OpenBadger(cfg.Store.Path, logger)
}

func serveMetrics(ctx context.Context, addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", addr).Msg("metrics listening")
	if err := runServer(ctx, srv); err != nil {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
