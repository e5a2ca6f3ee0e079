// Command vector-race runs the Vector Race server.
//
// It supports these commands:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" – races a track in the terminal
//  4. "validate" – checks the track files in a directory
//
// Flags control host/port, config directory, debug logging, race limits,
// and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/vector-race/api"
	"github.com/wricardo/vector-race/console"
	"github.com/wricardo/vector-race/game/config"
	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/service"
	"github.com/wricardo/vector-race/game/session"
	"github.com/wricardo/vector-race/game/track"
	"github.com/wricardo/vector-race/transport/mcp"
	"github.com/wricardo/vector-race/transport/websocket"
	"github.com/wricardo/vector-race/validate"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Vector Race Server"
)

const (
	defaultRaceTTL  = 24 * time.Hour
	cleanupInterval = time.Hour
)

// serviceOptions are the settings shared by every command that races.
type serviceOptions struct {
	configDir   string
	moveTimeout time.Duration
	raceTTL     time.Duration
}

// services holds the wired application components.
type services struct {
	races   service.RaceService
	hub     *websocket.Hub
	configs *config.Manager
}

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config-dir",
			Value:   "configs",
			Usage:   "Directory containing track configurations",
			Sources: cli.EnvVars("CONFIG_DIR"),
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
}

func raceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    "move-timeout",
			Usage:   "How long a driver may think each turn (0 for no limit)",
			Sources: cli.EnvVars("MOVE_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:    "race-ttl",
			Value:   defaultRaceTTL,
			Usage:   "Forget races not looked at for this long",
			Sources: cli.EnvVars("RACE_TTL"),
		},
	}
}

func serverFlags() []cli.Flag {
	flags := append(configFlags(), raceFlags()...)
	return append(flags,
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.StringFlag{
			Name:    "port",
			Value:   "8080",
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	)
}

// newApp builds the command tree.
func newApp() *cli.Command {
	serve := &cli.Command{
		Name:   "serve",
		Usage:  "Run HTTP server with API, WebSocket, and MCP endpoint",
		Flags:  serverFlags(),
		Action: serveAction,
	}
	return &cli.Command{
		Name:    "vector-race",
		Usage:   AppName,
		Version: Version,
		Flags:   serverFlags(),
		Action:  serveAction,
		Commands: []*cli.Command{
			serve,
			{
				Name:   "mcp",
				Usage:  "Run MCP stdio server with internal HTTP server",
				Flags:  serverFlags(),
				Action: mcpAction,
			},
			{
				Name:      "play",
				Usage:     "Race a track in the terminal with the numeric keypad",
				ArgsUsage: "[track]",
				Flags:     configFlags(),
				Action:    playAction,
			},
			{
				Name:      "validate",
				Usage:     "Validate the track files in a directory",
				ArgsUsage: "[dir]",
				Flags:     configFlags(),
				Action:    validateAction,
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("%s v%s\n", AppName, Version)
					return nil
				},
			},
		},
	}
}

// main loads .env, then runs the selected command.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		// Only log if it's not a "file not found" error
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogging(cmd *cli.Command) {
	if cmd.Bool("debug") {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

func optionsFrom(cmd *cli.Command) serviceOptions {
	return serviceOptions{
		configDir:   cmd.String("config-dir"),
		moveTimeout: cmd.Duration("move-timeout"),
		raceTTL:     cmd.Duration("race-ttl"),
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	log.Printf("Starting %s v%s (mode: serve)", AppName, Version)

	svc, err := initializeServices(ctx, optionsFrom(cmd))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	addr := net.JoinHostPort(cmd.String("host"), cmd.String("port"))
	return runHTTPServer(svc, addr, ngrokOptions{
		enabled:   cmd.Bool("ngrok"),
		authToken: cmd.String("ngrok-auth"),
		domain:    cmd.String("ngrok-domain"),
	})
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	// stdout carries the MCP protocol
	log.SetOutput(os.Stderr)
	log.Printf("Starting %s v%s (mode: mcp)", AppName, Version)

	svc, err := initializeServices(ctx, optionsFrom(cmd))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	external := "http://" + net.JoinHostPort("localhost", cmd.String("port"))
	return runStdioMCPWithInternalServer(svc, external)
}

// mcpHandler serves MCP JSON-RPC messages over plain HTTP POST.
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

type ngrokOptions struct {
	enabled   bool
	authToken string
	domain    string
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(svc *services, addr string, ngrokOpts ngrokOptions) error {
	apiServer := api.NewServer(svc.races, svc.hub)

	// Create MCP client for /mcp endpoint
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	// Create main router that combines API and MCP
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Setup graceful shutdown context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?race=<race_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if ngrokOpts.enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, ngrokOpts, mainRouter)
		}()
	}

	var runErr error
	select {
	case sig := <-stop:
		log.Printf("Received signal: %v. Shutting down...", sig)
	case runErr = <-serveErr:
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return runErr
}

// runNgrok serves handler through an ngrok tunnel until ctx is done.
func runNgrok(ctx context.Context, opts ngrokOptions, handler http.Handler) {
	if opts.authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.domain))
		log.Printf("Using custom ngrok domain: %s", opts.domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?race=<race_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// initializeServices wires the track catalogue, race registry, spectator hub
// and race service. It also starts a background routine that forgets stale
// races until ctx is done.
func initializeServices(ctx context.Context, opts serviceOptions) (*services, error) {
	configManager, err := config.NewManager(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	raceManager := session.NewManager()

	hub := websocket.NewHub()
	go hub.Run()

	serviceOpts := []service.Option{service.WithBroadcaster(hub)}
	if opts.moveTimeout > 0 {
		serviceOpts = append(serviceOpts, service.WithMoveTimeout(opts.moveTimeout))
	}
	raceService := service.NewRaceService(raceManager, configManager, serviceOpts...)

	ttl := opts.raceTTL
	if ttl <= 0 {
		ttl = defaultRaceTTL
	}
	go raceCleanupRoutine(ctx, raceManager, cleanupInterval, ttl)

	return &services{races: raceService, hub: hub, configs: configManager}, nil
}

// raceCleanupRoutine periodically removes races that have not been accessed
// within the provided retention window.
func raceCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredRaces(maxAge); removed > 0 {
				log.Printf("Cleaned up %d expired races", removed)
			}
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at externalURL; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(svc *services, externalURL string) error {
	var baseURL string

	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		httpServer := &http.Server{Handler: api.NewServer(svc.races, svc.hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)

	if baseURL == externalURL {
		log.Println("MCP stdio server ready (using external HTTP server)")
	} else {
		log.Println("MCP stdio server ready (using internal HTTP server)")
	}

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func playAction(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	configManager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}
	trackID := cmd.Args().First()
	if trackID == "" {
		trackID = config.DefaultTrackID
	}
	trackConfig, err := configManager.LoadConfig(trackID)
	if err != nil {
		return fmt.Errorf("failed to load track %s: %w", trackID, err)
	}
	t, starts, err := trackConfig.Build()
	if err != nil {
		return fmt.Errorf("failed to build track %s: %w", trackID, err)
	}
	if len(starts) == 0 {
		return fmt.Errorf("track %s has no start positions", trackID)
	}

	msg, err := playOnScreen(ctx, t, starts[0])
	if msg != "" {
		fmt.Println(msg)
	}
	if errors.Is(err, console.ErrCancelled) {
		return nil
	}
	return err
}

// playOnScreen runs the console game on the terminal and restores the
// terminal before returning.
func playOnScreen(ctx context.Context, t *track.Track, start geom.Position) (string, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return "", fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return "", fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	keys := console.Keys(ctx, screen)

	msg, err := console.NewGame(screen, keys).Play(ctx, t, start)
	if err == nil {
		// Keep the result on screen until a key is pressed.
		<-keys
	}
	return msg, err
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		dir = cmd.String("config-dir")
	}

	results, err := validate.Dir(ctx, dir)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No track files found in %s\n", dir)
		return nil
	}
	if !validate.Report(os.Stdout, results) {
		return cli.Exit("", 1)
	}
	return nil
}
