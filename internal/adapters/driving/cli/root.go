// Package cli implements the docchat command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	embollama "github.com/marrow-labs/docchat-cli/internal/adapters/driven/embedding/ollama"
	embopenai "github.com/marrow-labs/docchat-cli/internal/adapters/driven/embedding/openai"
	llmollama "github.com/marrow-labs/docchat-cli/internal/adapters/driven/llm/ollama"
	"github.com/marrow-labs/docchat-cli/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/marrow-labs/docchat-cli/internal/adapters/driven/vectorstore/chroma"
	"github.com/marrow-labs/docchat-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/marrow-labs/docchat-cli/internal/adapters/driven/vectorstore/sqlite"
	"github.com/marrow-labs/docchat-cli/internal/chunker"
	"github.com/marrow-labs/docchat-cli/internal/config"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driven"
	"github.com/marrow-labs/docchat-cli/internal/core/ports/driving"
	"github.com/marrow-labs/docchat-cli/internal/core/services"
	"github.com/marrow-labs/docchat-cli/internal/extractors"
	"github.com/marrow-labs/docchat-cli/internal/extractors/markdown"
	"github.com/marrow-labs/docchat-cli/internal/extractors/plaintext"
	"github.com/marrow-labs/docchat-cli/internal/loader"
	"github.com/marrow-labs/docchat-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose    bool
	configPath string

	cfg config.Config

	// Wired lazily by the commands that need them.
	registry    *extractors.Registry
	embedder    driven.EmbeddingService
	vectorStore driven.VectorStore
	llmService  driven.LLMService
	docLoader   *loader.Loader

	ingestor    driving.Ingestor
	retriever   driving.Retriever
	chatService driving.ChatService
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your local documents",
	Long: `docchat ingests local text and markdown files, embeds them into a
vector store and answers questions grounded in the retrieved content.

All processing can run fully locally against an Ollama daemon.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(verbose)
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.docchat/config.toml)")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeServices()
		os.Exit(1)
	}
	closeServices()
}

// chunkConfig builds the chunker configuration from config plus any flag
// overrides already applied to cfg.Chunking.
func chunkConfig() (chunker.Config, error) {
	cc := chunker.Config{
		Strategy:     chunker.Strategy(cfg.Chunking.Strategy),
		ChunkSize:    cfg.Chunking.ChunkSize,
		ChunkOverlap: cfg.Chunking.ChunkOverlap,
	}
	if cc.Strategy == chunker.StrategyToken {
		codec, err := tiktoken.New(cfg.Chunking.Encoding)
		if err != nil {
			return chunker.Config{}, fmt.Errorf("load tokenizer: %w", err)
		}
		cc.Codec = codec
	}
	if err := cc.Validate(); err != nil {
		return chunker.Config{}, err
	}
	return cc, nil
}

// wireEmbedder builds the embedding service from config.
func wireEmbedder() (driven.EmbeddingService, error) {
	if embedder != nil {
		return embedder, nil
	}
	switch cfg.Embedding.Provider {
	case "", "ollama":
		embedder = embollama.NewEmbeddingService(embollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "openai":
		svc, err := embopenai.NewEmbeddingService(embopenai.Config{
			APIKey:     cfg.Embedding.APIKey(),
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		embedder = svc
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
	return embedder, nil
}

// wireStore builds the vector store from config.
func wireStore() (driven.VectorStore, error) {
	if vectorStore != nil {
		return vectorStore, nil
	}
	switch cfg.Store.Backend {
	case "", "sqlite":
		store, err := sqlite.NewStore(cfg.Store.DataDir)
		if err != nil {
			return nil, err
		}
		vectorStore = store
	case "chroma":
		vectorStore = chroma.NewStore(chroma.Config{
			BaseURL:    cfg.Store.BaseURL,
			Collection: cfg.Store.Collection,
		})
	case "memory":
		vectorStore = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	return vectorStore, nil
}

// wireLLM builds the chat model client from config.
func wireLLM() driven.LLMService {
	if llmService == nil {
		llmService = llmollama.NewLLMService(llmollama.Config{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
	}
	return llmService
}

// wireIngestor builds the ingestion pipeline and its dependencies.
func wireIngestor() (driving.Ingestor, error) {
	if ingestor != nil {
		return ingestor, nil
	}
	cc, err := chunkConfig()
	if err != nil {
		return nil, err
	}
	emb, err := wireEmbedder()
	if err != nil {
		return nil, err
	}
	store, err := wireStore()
	if err != nil {
		return nil, err
	}
	registry = extractors.NewRegistry(plaintext.New(), markdown.New())
	docLoader = loader.New(loader.Config{
		Extensions:  cfg.Ingest.Extensions,
		MaxFileSize: cfg.Ingest.MaxFileSizeBytes,
	})
	ingestor = services.NewIngestionPipeline(registry, emb, store, services.PipelineConfig{
		Chunking:    cc,
		Concurrency: cfg.Ingest.Concurrency,
	})
	return ingestor, nil
}

// wireRetriever builds the retrieval service.
func wireRetriever() (driving.Retriever, error) {
	if retriever != nil {
		return retriever, nil
	}
	emb, err := wireEmbedder()
	if err != nil {
		return nil, err
	}
	store, err := wireStore()
	if err != nil {
		return nil, err
	}
	retriever = services.NewRetrievalService(emb, store)
	return retriever, nil
}

// wireChat builds the chat orchestrator.
func wireChat() (driving.ChatService, error) {
	if chatService != nil {
		return chatService, nil
	}
	r, err := wireRetriever()
	if err != nil {
		return nil, err
	}
	chatService = services.NewChatOrchestrator(r, wireLLM(), services.ChatConfig{
		TopK:            cfg.Chat.TopK,
		MaxHistoryTurns: cfg.Chat.MaxHistoryTurns,
		MaxContextChars: cfg.Chat.MaxContextChars,
		Temperature:     cfg.LLM.Temperature,
	})
	return chatService, nil
}

func closeServices() {
	if embedder != nil {
		embedder.Close()
	}
	if vectorStore != nil {
		vectorStore.Close()
	}
	if llmService != nil {
		llmService.Close()
	}
}
