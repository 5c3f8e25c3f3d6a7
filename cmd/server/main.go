// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"

	httpapi "github.com/osa030/loungeclock/internal/api/http"
	"github.com/osa030/loungeclock/internal/app/filter"
	"github.com/osa030/loungeclock/internal/app/format"
	"github.com/osa030/loungeclock/internal/app/session"
	"github.com/osa030/loungeclock/internal/domain/tier"
	"github.com/osa030/loungeclock/internal/infra/config"
	"github.com/osa030/loungeclock/internal/infra/logger"
	"github.com/osa030/loungeclock/internal/infra/storage"
)

var (
	app        = kingpin.New("lounge-server", "Gaming lounge session billing server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// print-prices command
	printPricesCmd = app.Command("print-prices", "Print the price chart and exit")

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available admission filters and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Handle list-filters command
	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
		File:   "",
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		zlog.Fatal().Msgf("Failed to build tier catalog: %v", err)
	}

	// Handle print-prices command
	if command == printPricesCmd.FullCommand() {
		printPrices(catalog)
		return
	}

	// Run server (defer ensures shutdown hook is called)
	if err := run(cfg, catalog); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config, catalog *tier.Catalog) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Build admission filters
	filters, err := buildFilters(cfg)
	if err != nil {
		return fmt.Errorf("invalid filter config: %w", err)
	}

	// Open storage
	store, err := storage.New(storage.Config{
		Type:     cfg.Storage.Type,
		Settings: cfg.Storage.Settings,
	})
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			zlog.Error().Msgf("Failed to close storage: %v", err)
		}
	}()

	// Create session manager
	sessionMgr, err := session.NewManager(session.Config{
		Catalog:      catalog,
		Store:        store,
		TickInterval: cfg.TickInterval(),
		Location:     loc,
		Filters:      filters,
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}
	defer sessionMgr.Close()

	ctx := context.Background()
	if err := sessionMgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session manager: %w", err)
	}

	// Create HTTP router
	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(sessionMgr, httpapi.Options{
		AdminToken: cfg.Admin.Token,
		RateLimit:  rate.Limit(cfg.Server.RateLimit),
		RateBurst:  cfg.Server.RateBurst,
		CacheTTL:   time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})

	// Bind before running hooks so on_started sees a listening server
	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
	}
	addr := ln.Addr().String()

	// h2c keeps HTTP/2 clients working without TLS
	server := &http.Server{
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s lounge=%s", addr, cfg.Lounge.Name)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	hookEnv := []string{"LOUNGE_ADDR=" + addr, "LOUNGE_NAME=" + cfg.Lounge.Name}
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started", hookEnv)

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close the manager first: it ends event streams and flushes state
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}
	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped", hookEnv)
	return nil
}

// printPrices prints the price chart.
func printPrices(catalog *tier.Catalog) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIER\tNAME\t30 MIN\t1 HR\t1.5 HR\t2 HR\tEXTRA CONTROLLER\tMAX\tUNITS")
	for _, t := range catalog.All() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			t.ID,
			t.DisplayName,
			format.Currency(t.Prices.Min30),
			format.Currency(t.Prices.Min60),
			format.Currency(t.Prices.Min90),
			format.Currency(t.Prices.Min120),
			format.Currency(t.ExtraControllerCharge),
			t.MaxControllers,
			t.Units,
		)
	}
	_ = w.Flush()
	fmt.Println()
	fmt.Println("Play beyond 2 hours: the next 30 minutes are free, then each started 30 minutes costs the 30-minute rate.")
}

// executeHooks runs a list of shell commands with env appended to the
// process environment.
func executeHooks(hooks []string, stage string, env []string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Env = append(os.Environ(), env...)

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}

// printFilters prints available filters.
func printFilters() {
	registered := filter.GetRegistered()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available Filters:")
	for _, name := range names {
		f := registered[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// buildFilters builds the admission filter chain from the filters section.
func buildFilters(cfg *config.Config) (*filter.Chain, error) {
	settings := make(map[string]filter.Settings, len(cfg.Filters))
	for name, fc := range cfg.Filters {
		settings[name] = filter.Settings{Enabled: fc.Enabled, Settings: fc.Settings}
	}
	chain, err := filter.FromConfig(settings)
	if err != nil {
		return nil, err
	}
	for _, f := range chain.Filters() {
		zlog.Info().Msgf("Admission filter enabled: %s", f.Name())
	}
	return chain, nil
}
