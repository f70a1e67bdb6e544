package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/sage/internal/types"
	"github.com/xhad/sage/pkg/chunker"
	cfgPkg "github.com/xhad/sage/pkg/config"
	"github.com/xhad/sage/pkg/fetcher"
	"github.com/xhad/sage/pkg/index"
	"github.com/xhad/sage/pkg/kb"
	"github.com/xhad/sage/pkg/llm"
	"github.com/xhad/sage/pkg/router"
	"github.com/xhad/sage/pkg/search"
	"github.com/xhad/sage/pkg/websearch"
	"github.com/xhad/sage/server"
	"go.uber.org/zap"
)

type flags struct {
	ConfigPath string
	Serve      bool
	IngestPath string
	Source     string
	Query      string
}

func main() {
	f := parseFlags()

	if err := run(f); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() flags {
	var f flags

	flag.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	flag.BoolVar(&f.Serve, "serve", false, "Run the HTTP server")
	flag.StringVar(&f.IngestPath, "ingest", "", "Path to a text file to ingest into the knowledge base")
	flag.StringVar(&f.Source, "source", "", "Source label for ingested text")
	flag.StringVar(&f.Query, "q", "", "Run a single query and exit")
	flag.Parse()

	return f
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(f flags) error {
	// .env is optional; real env always wins inside LoadConfig.
	_ = godotenv.Load()

	cfg, err := cfgPkg.LoadConfig(f.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %s: %s", e.Field, e.Message)
		}
		return fmt.Errorf("invalid configuration")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	kbService, searchService, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}

	if f.IngestPath != "" {
		if err := ingestFile(kbService, f.IngestPath, f.Source); err != nil {
			return err
		}
		if !f.Serve && f.Query == "" {
			return nil
		}
	}

	if f.Serve {
		return serve(cfg, kbService, searchService, logger)
	}

	if f.Query != "" {
		return oneShot(searchService, f.Query)
	}

	return chatLoop(kbService, searchService)
}

func buildServices(cfg *cfgPkg.Config, logger *zap.Logger) (*kb.Service, *search.Service, error) {
	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	manager := index.NewManager(func(provider string) (types.EmbeddingProvider, error) {
		return llm.NewEmbedderWithConfig(llm.EmbedderConfig{
			Provider: provider,
			Model:    cfg.Embedding.Model,
			BaseURL:  cfg.Embedding.BaseURL,
			APIKey:   cfg.Embedding.APIKey,
		})
	})

	ch := chunker.NewWithConfig(chunker.ChunkerConfig{
		ChunkSize:    cfg.KB.ChunkSize,
		ChunkOverlap: cfg.KB.ChunkOverlap,
	})

	kbService := kb.NewService(kb.ServiceConfig{
		Provider:    cfg.Embedding.Provider,
		Temperature: cfg.LLM.Temperature,
	}, ch, manager, chatEngine)

	searcher, err := websearch.NewWithConfig(websearch.Config{
		APIKey:     cfg.Search.TavilyAPIKey,
		MaxResults: cfg.Search.MaxResults,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize web search: %v", err)
	}

	pages := fetcher.NewWithConfig(fetcher.FetcherConfig{
		Timeout:   time.Duration(cfg.Search.FetchTimeout) * time.Second,
		RateLimit: cfg.Search.RateLimit,
	})

	rt := router.New()
	if len(cfg.Search.RouterPatterns) > 0 {
		rt, err = router.NewWithPatterns(cfg.Search.RouterPatterns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to compile router patterns: %v", err)
		}
	}

	pipeline := search.NewPipeline(search.PipelineConfig{
		TopResults:  cfg.Search.TopResults,
		Temperature: cfg.LLM.Temperature,
	}, searcher, pages, chatEngine, logger)

	searchService := search.NewService(rt, pipeline, search.NewValidator(chatEngine), logger)

	return kbService, searchService, nil
}

func serve(cfg *cfgPkg.Config, kbService *kb.Service, searchService *search.Service, logger *zap.Logger) error {
	srv := server.NewServer(server.Config{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		AllowedOrigin: cfg.Server.AllowedOrigin,
	}, kbService, searchService, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	color.Cyan("Listening on %s:%d", cfg.Server.Host, cfg.Server.Port)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

func ingestFile(kbService *kb.Service, path, source string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %v", path, err)
	}
	if source == "" {
		source = path
	}

	spinner := getSpinner(" Ingesting " + path + "...")
	result, err := kbService.Ingest(context.Background(), string(data), source)
	spinner.Finish()
	fmt.Print("\r")

	if err != nil {
		return fmt.Errorf("failed to ingest %s: %v", path, err)
	}

	color.Green("✓ Ingested %s into %d chunks\n", result.Source, result.ChunksCount)
	return nil
}

func oneShot(searchService *search.Service, query string) error {
	spinner := getSpinner(" Searching...")
	answer, err := searchService.Run(context.Background(), query)
	spinner.Finish()
	fmt.Print("\r")

	if err != nil {
		return err
	}

	fmt.Println(answer.Answer)
	for _, src := range answer.Sources {
		color.Blue("  %s", src)
	}
	return nil
}

func chatLoop(kbService *kb.Service, searchService *search.Service) error {
	color.Cyan("\nAsk anything; prefix with 'kb:' to query ingested text (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if strings.ToLower(query) == "exit" {
			break
		}
		if query == "" {
			continue
		}

		if rest, ok := strings.CutPrefix(query, "kb:"); ok {
			spinner := getSpinner(" Searching knowledge base...")
			answer, err := kbService.Ask(context.Background(), strings.TrimSpace(rest), 0)
			spinner.Finish()
			fmt.Print("\r")

			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}

			assistantPrompt("Assistant: %s\n", answer.Answer)
			for _, src := range answer.Sources {
				color.Blue("  %s #%d", src.Source, src.ChunkID)
			}
			fmt.Printf("  confidence: %.2f\n", answer.Confidence)
			continue
		}

		spinner := getSpinner(" Thinking...")
		answer, err := searchService.Run(context.Background(), query)
		spinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}

		assistantPrompt("Assistant: %s\n", answer.Answer)
		for _, src := range answer.Sources {
			color.Blue("  %s", src)
		}
	}

	return nil
}
