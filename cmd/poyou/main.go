// Package main is the Po-You CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/po-you/poyou/internal/classify"
	"github.com/po-you/poyou/internal/config"
	"github.com/po-you/poyou/internal/models"
	"github.com/po-you/poyou/internal/search"
	"github.com/po-you/poyou/internal/server"
	"github.com/po-you/poyou/internal/store"
	"github.com/po-you/poyou/internal/watcher"
	"github.com/po-you/poyou/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/poyou/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. When neither file exists, configuration comes from environment
// variables and defaults alone.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			cfg, envErr := config.FromEnv()
			if envErr != nil {
				return nil, "", envErr
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "add":
		runAdd()
	case "list":
		runList()
	case "delete":
		runDelete()
	case "predict":
		runPredict()
	case "train":
		runTrain()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("poyou version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Store      store.Store
	Engine     *search.Engine
	Classifier *classify.Service
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	st, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	engine := search.NewEngine(st, cfg.Search.MinSimilarity, logger)
	classifier := classify.NewService(cfg.Classifier.ArtifactDir, logger)
	return &Components{Store: st, Engine: engine, Classifier: classifier}, nil
}

func openStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return store.NewSQLiteStore(cfg.Storage.DatabasePath, cfg.Storage.AssetDir, logger)
	case config.BackendDisk:
		return store.NewDiskStore(cfg.Storage.DataDir, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func setup(configPath string) (*config.Config, *zap.Logger, *Components) {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	if resolvedPath != "" {
		logger.Debug("config loaded", zap.String("config_path", resolvedPath))
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("backend", cfg.Storage.Backend),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if ds, ok := components.Store.(*store.DiskStore); ok && cfg.Watch.EnabledOrDefault() {
		// External edits to the poster directory invalidate the index.
		watchOpts := []watcher.Option{
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS) * time.Millisecond),
		}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		w := watcher.New(ds.Root(), components.Engine.Invalidate, watchOpts...)
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(
		components.Engine,
		components.Store,
		components.Classifier,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	title := fs.String("title", "", "poster title (required)")
	description := fs.String("description", "", "poster description")
	category := fs.String("category", "", "category (predicted when empty)")
	subcategories := fs.String("subcategories", "", "comma-separated subcategories")
	hosts := fs.String("hosts", "", "comma-separated hosting organizations")
	start := fs.String("start", "", "period start (YYYY-MM-DD)")
	end := fs.String("end", "", "period end (YYYY-MM-DD)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: poyou add [flags] <image-file>")
		os.Exit(1)
	}
	imagePath := fs.Arg(0)
	image, err := os.ReadFile(imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	input := &models.PosterInput{
		Title:         *title,
		Description:   *description,
		Category:      models.Category(*category),
		Subcategories: splitCSV(*subcategories),
		Hosts:         splitCSV(*hosts),
		Period:        models.Period{Start: *start, End: *end},
	}
	if !input.Category.Valid() {
		input.Category = components.Classifier.PredictCategory(input)
	}

	poster, err := components.Store.Create(context.Background(), input, image, filepath.Ext(imagePath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Add failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Poster added: %s (%s)\n", poster.ID, poster.Category)
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	keyword := fs.String("keyword", "", "filter by keyword")
	tag := fs.String("tag", "", "filter by tag")
	order := fs.String("order", "new", "sort order: new or title")
	_ = fs.Parse(os.Args[2:])

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	posters, err := components.Store.List(context.Background(), &models.ListQuery{
		Keyword: *keyword,
		Tag:     *tag,
		Order:   models.Order(*order),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
		os.Exit(1)
	}
	now := time.Now()
	for _, p := range posters {
		fmt.Printf("%s  %-12s %-11s %s\n",
			p.ID, p.Category, p.Period.Status(now), utils.Truncate(p.Title, 60))
	}
	fmt.Printf("%d poster(s)\n", len(posters))
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: poyou delete [flags] <poster-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	if err := components.Store.Delete(context.Background(), id); err != nil {
		fmt.Fprintf(os.Stderr, "Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Poster deleted: %s\n", id)
}

func runPredict() {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	title := fs.String("title", "", "poster title")
	description := fs.String("description", "", "poster description")
	_ = fs.Parse(os.Args[2:])

	if *title == "" && fs.NArg() > 0 {
		*title = strings.TrimSpace(strings.Join(fs.Args(), " "))
	}

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	category := components.Classifier.PredictCategory(&models.PosterInput{
		Title:       *title,
		Description: *description,
	})
	fmt.Println(category)
}

func runTrain() {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outDir := fs.String("out", "", "artifact output directory (default: configured artifact dir)")
	epochs := fs.Int("epochs", 0, "training epochs (default from training config)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	samples, err := classify.CollectSamples(context.Background(), components.Store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to collect training samples: %v\n", err)
		os.Exit(1)
	}

	dir := *outDir
	if dir == "" {
		dir = cfg.Classifier.ArtifactDir
	}
	trainCfg := classify.DefaultTrainConfig()
	if *epochs > 0 {
		trainCfg.Epochs = *epochs
	}
	if err := classify.Train(samples, dir, trainCfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Training failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Trained on %d poster(s); artifacts written to %s\n", len(samples), dir)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/status")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	cfg, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	count, err := components.Store.Count(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("posters:          %d\n", count)
	fmt.Printf("storage_backend:  %s\n", cfg.Storage.Backend)
	fmt.Printf("model_available:  %t\n", components.Classifier.Available())
	if diskBytes, err := store.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.AssetDir, cfg.Storage.DataDir); err == nil {
		fmt.Printf("disk_usage_bytes: %d\n", diskBytes)
	}
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printUsage() {
	fmt.Println(`poyou - poster archive with search, status, and category prediction

Usage:
  poyou server [flags]            Start the HTTP server
  poyou add [flags] <image>       Add a poster with its image
  poyou list [flags]              List posters
  poyou delete [flags] <id>       Delete a poster
  poyou predict [flags] [text]    Predict a poster's category
  poyou train [flags]             Train the category classifier from stored posters
  poyou status [flags]            Show store and index status
  poyou version                   Show version
  poyou help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/poyou/config.yaml)
  --debug            Enable debug logging

Add Flags:
  --title string           Poster title (required)
  --description string     Poster description
  --category string        Category; predicted from the text fields when empty
  --subcategories string   Comma-separated subcategories
  --hosts string           Comma-separated hosting organizations
  --start string           Period start (YYYY-MM-DD)
  --end string             Period end (YYYY-MM-DD)

List Flags:
  --keyword string   Filter by keyword (title, description, tags)
  --tag string       Filter by tag
  --order string     Sort order: new or title (default: new)

Train Flags:
  --out string       Artifact output directory (default: configured artifact dir)
  --epochs int       Training epochs

Status Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.

Examples:
  poyou server
  poyou add --title "AI Hackathon" --subcategories AI,Contest poster.png
  poyou list --keyword hackathon --order title
  poyou predict "AI hackathon with prizes"
  poyou train
  poyou status --server ""`)
}
