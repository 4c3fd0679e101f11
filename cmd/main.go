// Package main is the entry point for the AmiQT talent gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/sjson"
	"golang.org/x/term"

	"github.com/amiqt/talent-gateway/internal/cache"
	"github.com/amiqt/talent-gateway/internal/chat"
	"github.com/amiqt/talent-gateway/internal/config"
	"github.com/amiqt/talent-gateway/internal/contextmgr"
	"github.com/amiqt/talent-gateway/internal/history"
	"github.com/amiqt/talent-gateway/internal/monitoring"
	"github.com/amiqt/talent-gateway/internal/search"
	"github.com/amiqt/talent-gateway/internal/server"
	"github.com/amiqt/talent-gateway/internal/session"
	"github.com/amiqt/talent-gateway/internal/upstream"
)

// Version is stamped by the release build; "dev" otherwise.
var Version = "dev"

// ANSI color codes
const (
	amiqtBlue = "\033[38;2;30;90;180m"
	bold      = "\033[1m"
	reset     = "\033[0m"
)

const banner = `
  █████╗ ███╗   ███╗██╗ ██████╗ ████████╗
 ██╔══██╗████╗ ████║██║██╔═══██╗╚══██╔══╝
 ███████║██╔████╔██║██║██║   ██║   ██║
 ██╔══██║██║╚██╔╝██║██║██║▄▄ ██║   ██║
 ██║  ██║██║ ╚═╝ ██║██║╚██████╔╝   ██║
 ╚═╝  ╚═╝╚═╝     ╚═╝╚═╝ ╚══▀▀═╝    ╚═╝   talent gateway
`

func printBanner() {
	fmt.Print(amiqtBlue + bold + banner + reset + "\n")
}

// loadEnvFiles loads .env from standard locations
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	// Try loading from ~/.config/talent-gateway/.env first
	configEnv := filepath.Join(homeDir, ".config", "talent-gateway", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Also load local .env (can override)
	_ = godotenv.Load()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve", "start":
			runServer(os.Args[2:])
			return
		case "version", "-v", "--version":
			fmt.Printf("talent-gateway %s\n", Version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Default: serve
	runServer(os.Args[1:])
}

// resolveConfig resolves the config file to use.
// Checks: user flag -> filesystem locations.
// Returns raw bytes and source description.
func resolveConfig(userConfig string) ([]byte, string, error) {
	if userConfig != "" {
		data, err := os.ReadFile(userConfig)
		if err != nil {
			return nil, "", fmt.Errorf("config file not found: %s", userConfig)
		}
		return data, userConfig, nil
	}

	homeDir, _ := os.UserHomeDir()

	searchPaths := []string{}
	if homeDir != "" {
		searchPaths = append(searchPaths,
			filepath.Join(homeDir, ".config", "talent-gateway", "config.yaml"),
		)
	}
	searchPaths = append(searchPaths,
		"configs/config.yaml",
		"config.yaml",
	)

	for _, path := range searchPaths {
		if data, err := os.ReadFile(path); err == nil {
			return data, path, nil
		}
	}

	return nil, "", fmt.Errorf("no config file found. Specify --config path")
}

// runServer starts the gateway HTTP server.
func runServer(args []string) {
	loadEnvFiles()

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	noBanner := fs.Bool("no-banner", false, "suppress startup banner")
	_ = fs.Parse(args) // ExitOnError handles errors

	if !*noBanner {
		printBanner()
	}

	configData, configSource, err := resolveConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadFromBytes(configData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg, *debug)

	log.Info().
		Str("version", Version).
		Str("config", configSource).
		Msg("talent gateway starting")

	metrics := monitoring.NewMetricsCollector()

	qc := cache.New(cfg.Cache.ToCache())
	defer qc.Close()

	sessions := session.NewStore(session.Config{IdleTTL: cfg.Context.SessionIdleTTL})
	defer sessions.Close()

	summarizer := contextmgr.NewSummarizer(cfg.Context.ToSummarizer())
	tokens := contextmgr.NewTokenCounter()

	var transcripts *history.Store
	if cfg.History.Enabled {
		transcripts, err = history.Open(cfg.History.Path)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.History.Path).Msg("failed to open history store")
		}
		defer transcripts.Close()
		log.Info().Str("path", cfg.History.Path).Msg("chat history enabled")
	}

	if cfg.Upstreams.SearchURL == "" || cfg.Upstreams.ChatURL == "" {
		log.Fatal().Msg("upstreams.search_url and upstreams.chat_url are required to serve")
	}

	searchClient := upstream.New(cfg.Upstreams.SearchURL, cfg.Upstreams.APIKey, cfg.Upstreams.Timeout)
	compute := func(ctx context.Context, query string) (string, error) {
		payload, err := sjson.SetBytes([]byte(`{}`), "query", query)
		if err != nil {
			return "", err
		}
		return searchClient.Do(ctx, payload)
	}
	searchSvc := search.New(qc, compute, metrics)

	chatClient := upstream.New(cfg.Upstreams.ChatURL, cfg.Upstreams.APIKey, cfg.Upstreams.Timeout)
	chatSvc := chat.New(chat.Deps{
		Sessions:    sessions,
		Transcripts: transcripts,
		Summarizer:  summarizer,
		Cache:       qc,
		Tokens:      tokens,
		Respond:     chatClient.Do,
		Metrics:     metrics,
	})

	srv := server.New(cfg.Server, searchSvc, chatSvc, metrics)

	log.Info().
		Int("port", cfg.Server.Port).
		Int("cache_max_entries", cfg.Cache.MaxEntries).
		Dur("cache_ttl", cfg.Cache.TTL).
		Int("context_window", cfg.Context.WindowSize).
		Msg("configuration loaded")

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	if err := srv.Start(); err != nil {
		if err.Error() != "http: Server closed" {
			log.Fatal().Err(err).Msg("server error")
		}
	}

	log.Info().Msg("talent gateway stopped")
}

// setupLogging configures the global logger. The config decides level and
// format; an unset format picks console on a TTY and json otherwise, and
// --debug overrides the level.
func setupLogging(cfg *config.Config, debug bool) {
	lc := cfg.Monitoring.Log
	if lc.Format == "" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			lc.Format = "console"
		} else {
			lc.Format = "json"
		}
	}
	if debug {
		lc.Level = "debug"
	}
	monitoring.Global(lc)
}

// printHelp prints usage information
func printHelp() {
	printBanner()
	fmt.Println("Talent Gateway - cached search and conversational backend for AmiQT")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  talent-gateway [command] [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve        Start the gateway server (default)")
	fmt.Println("  version      Print version information")
	fmt.Println("  help         Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config FILE    Path to config file (default: configs/config.yaml)")
	fmt.Println("  --debug          Enable debug logging")
	fmt.Println("  --no-banner      Suppress startup banner")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  talent-gateway serve")
	fmt.Println("  talent-gateway serve --config configs/config.yaml --debug")
}
