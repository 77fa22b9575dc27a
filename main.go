// Command bulochat ingests a business's Naver blog and answers customer
// questions grounded in its posts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bulochat/bulochat/internal/adapters/driven/embedding/openai"
	llmopenai "github.com/bulochat/bulochat/internal/adapters/driven/llm/openai"
	"github.com/bulochat/bulochat/internal/adapters/driven/storage/sqlite"
	"github.com/bulochat/bulochat/internal/adapters/driven/vectorindex/bruteforce"
	"github.com/bulochat/bulochat/internal/adapters/driving/cli"
	"github.com/bulochat/bulochat/internal/chunker"
	"github.com/bulochat/bulochat/internal/config"
	"github.com/bulochat/bulochat/internal/connectors/naverblog"
	"github.com/bulochat/bulochat/internal/core/ports/driven"
	"github.com/bulochat/bulochat/internal/core/services"
	"github.com/bulochat/bulochat/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	fetcher := naverblog.New(naverblog.WithRequestRate(cfg.Fetch.RequestsPerSecond))
	defer fetcher.Close()

	// Without an API key the pipelines degrade to their unavailable
	// errors instead of failing at startup; onboard and setup-db still
	// work.
	var (
		embedder driven.EmbeddingService
		llm      driven.LLMService
		index    driven.VectorIndex
	)
	if cfg.OpenAI.APIKey != "" {
		embedder, err = openai.NewEmbeddingService(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.EmbeddingModel,
		})
		if err != nil {
			return fmt.Errorf("embedding service: %w", err)
		}
		defer embedder.Close()

		llm, err = llmopenai.NewLLMService(llmopenai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.ChatModel,
		})
		if err != nil {
			return fmt.Errorf("llm service: %w", err)
		}
		defer llm.Close()

		// The index dimension is pinned to the embedding model for the
		// lifetime of the deployment.
		index = bruteforce.New(embedder.Dimensions())
		defer index.Close()
	} else {
		logger.Warn("OPENAI_API_KEY not set: crawl and chat are disabled")
	}

	splitter := chunker.New(
		chunker.WithChunkSize(cfg.Ingest.ChunkSize),
		chunker.WithOverlap(cfg.Ingest.ChunkOverlap),
	)

	ingest := services.NewIngestService(store, fetcher, embedder, index, splitter)
	chat := services.NewChatService(store, embedder, index, llm,
		services.WithTopK(cfg.Chat.TopK))

	if index != nil {
		if err := ingest.RebuildIndex(ctx); err != nil {
			return fmt.Errorf("rebuild vector index: %w", err)
		}
	}

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Ingest:   ingest,
		Chat:     chat,
		Store:    store,
		Resetter: store,
	})

	return cli.Execute(ctx)
}
