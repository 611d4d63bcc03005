package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rmoran/apptrack/internal/api"
	"github.com/rmoran/apptrack/internal/config"
	"github.com/rmoran/apptrack/internal/db"
	"github.com/rmoran/apptrack/internal/gmail"
	"github.com/rmoran/apptrack/internal/services"
	"github.com/rmoran/apptrack/internal/storage"
	"github.com/rmoran/apptrack/internal/version"
	"github.com/rmoran/apptrack/pkg/auth"
)

func main() {
	configPathFlag := flag.String("config", "", "Path to JSON configuration file (default: ~/.config/apptrack/config.json)")
	addrFlag := flag.String("addr", "", "Listen address (overrides config)")
	versionFlag := flag.Bool("version", false, "Show version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.GetVersionString())
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s                        # Run with default configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config custom.json   # Use custom configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --version              # Show version information\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  APPTRACK_CONFIG       Override default config file path\n")
		fmt.Fprintf(os.Stderr, "  APPTRACK_ADDR         Override listen address\n")
		fmt.Fprintf(os.Stderr, "  APPTRACK_DB_PATH      Override database path\n")
		fmt.Fprintf(os.Stderr, "  APPTRACK_S3_BUCKET    Resume storage bucket\n\n")
		fmt.Fprintf(os.Stderr, "For all other settings, edit the config file.\n")
	}

	flag.Parse()

	if *versionFlag {
		fmt.Println(version.GetDetailedVersionString())
		return
	}

	// Load .env before config so env overrides see it. A missing file is
	// fine.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(getConfigPath(*configPathFlag))
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}

	if cfg.LogFile != "" {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			log.Fatalf("Could not open log file %s: %v", cfg.LogFile, err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Fatalf("Could not open database: %v", err)
	}
	defer store.Close()

	if cfg.Storage.Bucket == "" {
		log.Fatal("Resume storage bucket is required. Set storage.bucket in the config file or APPTRACK_S3_BUCKET.")
	}
	blobs, err := storage.NewS3Store(ctx, cfg.Storage.Region, cfg.Storage.Bucket, cfg.Storage.Endpoint)
	if err != nil {
		log.Fatalf("Could not initialize blob storage: %v", err)
	}

	// Gmail import is optional: without OAuth credentials the rest of the
	// service still works and the Gmail endpoints report not-configured.
	var flow *auth.Flow
	if _, err := os.Stat(cfg.Gmail.Credentials); err == nil {
		flow, err = auth.NewFlow(cfg.Gmail.Credentials, cfg.Gmail.RedirectURL, auth.GmailReadonlyScope)
		if err != nil {
			log.Fatalf("Could not load Gmail credentials: %v", err)
		}
	} else {
		log.Printf("Warning: Gmail credentials not found at %s, Gmail import disabled", cfg.Gmail.Credentials)
	}

	patterns, err := loadPatterns(cfg.Gmail.PatternsFile)
	if err != nil {
		log.Fatalf("Could not load extraction patterns: %v", err)
	}

	scanner := services.NewGmailScanner(store, flow, cfg.Gmail.Query, cfg.Gmail.MaxResults, patterns)
	syncService := services.NewSyncService(scanner, scanner)
	syncService.SetLogger(log.Default())

	server := api.New(api.Deps{
		Auth:          services.NewAuthService(store),
		Stores:        services.NewStoreManager(services.NewApplicationRepository(store)),
		Sync:          syncService,
		Resumes:       services.NewResumeService(store, blobs),
		Gmail:         scanner,
		Flow:          flow,
		Logger:        log.Default(),
		SecureCookies: cfg.Server.SecureCookies,
		SessionTTL:    cfg.GetSessionTTL(),
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("%s listening on %s", version.GetVersionString(), cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}
}

// getConfigPath returns the config file path using the following priority:
// 1. CLI flag
// 2. Environment variable APPTRACK_CONFIG
// 3. Default path ~/.config/apptrack/config.json
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envPath := os.Getenv("APPTRACK_CONFIG"); envPath != "" {
		return expandPath(envPath)
	}
	return config.DefaultConfigPath()
}

// loadPatterns loads the extraction pattern file when configured and falls
// back to the builtins otherwise.
func loadPatterns(path string) (*gmail.Patterns, error) {
	if path == "" {
		return gmail.DefaultPatterns(), nil
	}
	return gmail.LoadPatterns(expandPath(path))
}

func openLogFile(path string) (*os.File, error) {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
