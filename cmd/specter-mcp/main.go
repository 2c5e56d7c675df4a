package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/specterhq/specter-mcp/pkg/credentials"
	"github.com/specterhq/specter-mcp/pkg/platform"
	"github.com/specterhq/specter-mcp/pkg/server"
	"github.com/specterhq/specter-mcp/pkg/storage"
	"github.com/specterhq/specter-mcp/pkg/tools"
	"github.com/specterhq/specter-mcp/pkg/tools/auth"
	"github.com/specterhq/specter-mcp/pkg/tools/discover"
	"github.com/specterhq/specter-mcp/pkg/tools/history"
	"github.com/specterhq/specter-mcp/pkg/tools/projects"
	"github.com/specterhq/specter-mcp/pkg/tools/runcmd"
	"github.com/specterhq/specter-mcp/pkg/tools/scans"
	"github.com/specterhq/specter-mcp/pkg/tools/targets"
	"github.com/specterhq/specter-mcp/pkg/tools/templates"
	"github.com/specterhq/specter-mcp/pkg/tools/traffic"
)

const (
	ServerName      = "specter-mcp"
	ServiceName     = "Specter Security Platform MCP Server"
	ShutdownTimeout = 10 * time.Second
)

//go:embed VERSION
var Version string

func main() {
	var (
		debug        bool
		bindAddr     string
		dbPath       string
		binaryName   string
		printVersion bool
	)
	flag.BoolVar(&debug, "debug", false, "debug mode")
	flag.StringVar(&bindAddr, "bind", "localhost:8990", "bind address (host:port)")
	flag.StringVar(&dbPath, "db", "build/specter-mcp.db", "SQLite database file path")
	flag.StringVar(&binaryName, "binary", platform.DefaultBinary, "name or path of the platform CLI binary")
	flag.BoolVar(&printVersion, "version", false, "print version and exit")
	flag.Parse()
	// Sanitize version
	version := strings.TrimSpace(Version)
	// Check if the version flag is set
	if printVersion {
		fmt.Printf("%s Version: %s\n", ServiceName, version)
		os.Exit(0)
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger.Debug().Msg("debug mode enabled")
	}

	client := platform.NewClient(logger, binaryName)
	if !client.IsInstalled() {
		logger.Fatal().Msgf("platform CLI %q not found; install it and make sure it is on PATH", binaryName)
	}

	// Load a persisted credential if one exists. Verification is best
	// effort; an unreachable API must not block startup.
	credStore := credentials.NewStore(logger)
	if token := credStore.Load(); token != "" {
		client.SetToken(token)
		if client.VerifyCredential(signalCtx) {
			logger.Info().Msg("persisted credential loaded and verified")
		} else {
			logger.Warn().Msg("persisted credential could not be verified; tools will prompt for authentication if it is invalid")
		}
	} else {
		logger.Info().Msg("no persisted credential; run the authenticate tool to create one")
	}

	impl := &mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}

	// Initialize storage
	storeCfg := storage.Config{
		DatabasePath: dbPath,
		Debug:        debug,
	}
	store, err := storage.NewSQLiteStorage(storeCfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to initialize storage: %v", err)
	}
	logger.Info().Msgf("Database initialized at %s", dbPath)

	srv := server.NewServer(impl, store)

	// Create tool instances.
	toolList := []tools.Tool{
		auth.New(logger, client, credStore),
		targets.New(logger, client),
		scans.New(logger, client),
		templates.New(logger, client),
		projects.New(logger, client),
		traffic.New(logger, client),
		discover.New(logger, client),
		runcmd.New(logger, client),
		history.New(logger),
	}

	// Register all tools
	for _, tool := range toolList {
		if err := tool.Register(srv); err != nil {
			logger.Fatal().Msgf("Failed to register tool: %v", err)
		}
	}
	// Create HTTP handler for MCP server
	// Stateless mode avoids "session not found" errors after server restart
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return &srv.Server
	}, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})

	http.Handle("/mcp", handler)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"service": ServiceName,
			"version": version,
			"endpoints": map[string]string{
				"mcp": "/mcp",
			},
		})
	})

	logger.Info().Msgf("%s starting on address %s", ServiceName, bindAddr)
	logger.Info().Msgf("MCP endpoint available at: http://%s/mcp", bindAddr)

	go func() {
		//nolint:gosec
		if err := http.ListenAndServe(bindAddr, nil); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Msgf("%s failed to start: %v", ServerName, err)
		}
	}()
	<-signalCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	// Shutdown MCP server
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Msgf("%s shutdown error: %v", ServiceName, err)
	} else {
		logger.Info().Msgf("%s shutdown complete", ServiceName)
	}
}
