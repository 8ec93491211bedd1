package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rpggio/flagbot/internal/config"
	"github.com/rpggio/flagbot/internal/discord"
	"github.com/rpggio/flagbot/internal/domain/activity"
	"github.com/rpggio/flagbot/internal/domain/flag"
	"github.com/rpggio/flagbot/internal/domain/issuance"
	"github.com/rpggio/flagbot/internal/filestore"
	"github.com/rpggio/flagbot/internal/flaggen"
	"github.com/rpggio/flagbot/internal/mcp"
	"github.com/rpggio/flagbot/internal/messages"
	"github.com/rpggio/flagbot/internal/platform"
	"github.com/rpggio/flagbot/internal/sqlite"
	"github.com/rpggio/flagbot/internal/telemetry"
	"github.com/rpggio/flagbot/internal/transport"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logWriter := io.Writer(os.Stdout)
	if logPath := os.Getenv("FLAGBOT_LOG_PATH"); logPath != "" {
		fileWriter, err := openRotatingLog(logPath, maxLogSizeBytes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer fileWriter.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	store := filestore.Open(cfg.Store.Path, logger)
	activityRepo := sqlite.NewActivityRepository(db)

	flagSvc := flag.NewService(store, logger)
	activitySvc := activity.NewService(activityRepo, logger)

	var mcpHandler http.Handler
	if cfg.MCP.Enabled {
		mcpHandler = mcp.NewHTTPHandler(mcp.NewServer(mcp.Config{
			Services: mcp.Services{Flags: flagSvc, Activity: activitySvc},
			Logger:   logger,
		}))
	}

	var auth func(http.Handler) http.Handler
	if cfg.Server.APIToken != "" {
		auth = transport.AuthMiddleware(transport.StaticToken(cfg.Server.APIToken))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr: addr,
		Handler: transport.NewServer(flagSvc, activitySvc, transport.Options{
			Auth:   auth,
			MCP:    mcpHandler,
			Logger: logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "addr", addr, "auth", auth != nil, "mcp", cfg.MCP.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.IssuanceEnabled() {
		issuer, catalog, err := newIssuer(cfg, store, activitySvc, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return discord.Run(gctx, cfg.Discord.Token, issuer, catalog, discord.Options{
				RoleID:           cfg.Discord.RoleID,
				WelcomeChannelID: cfg.Discord.WelcomeChannelID,
				CTFChannelID:     cfg.Discord.CTFChannelID,
			}, logger)
		})
	} else {
		logger.Info("discord token not set, serving the read API only")
	}

	return g.Wait()
}

func newIssuer(cfg config.Config, store *filestore.FlagStore, activities *activity.Service, logger *slog.Logger) (*issuance.Service, *messages.Catalog, error) {
	tokens, err := flaggen.Load(cfg.Flag.Prefix, cfg.Flag.NamesPath, cfg.Flag.AdjectivesPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("load word lists: %w", err)
	}
	catalog, err := messages.Load(cfg.Messages.Locale)
	if err != nil {
		return nil, nil, fmt.Errorf("load messages: %w", err)
	}
	client := platform.NewClient(cfg.Platform.BaseURL, cfg.Platform.APIKey, nil)
	svc := issuance.NewService(client, client, tokens, store, activities, issuance.Options{
		ChallengeID: cfg.Platform.ChallengeID,
		CallTimeout: cfg.Platform.Timeout,
	}, logger)
	return svc, catalog, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
