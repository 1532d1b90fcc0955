// Package config loads the docchat configuration file. Settings live in a
// TOML file under ~/.docchat by default; anything not set falls back to
// defaults that work with a local Ollama daemon.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Defaults.
const (
	DefaultDirName  = ".docchat"
	DefaultFileName = "config.toml"
)

// Config is the root configuration.
type Config struct {
	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Store     StoreConfig     `toml:"store"`
	LLM       LLMConfig       `toml:"llm"`
	Chat      ChatConfig      `toml:"chat"`
	Ingest    IngestConfig    `toml:"ingest"`
}

// ChunkingConfig controls how documents are split.
type ChunkingConfig struct {
	// Strategy is one of token, character, word, recursive.
	Strategy string `toml:"strategy"`

	// ChunkSize is the window size in strategy units.
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is the number of units shared between windows.
	ChunkOverlap int `toml:"chunk_overlap"`

	// Encoding is the tiktoken vocabulary for the token strategy.
	Encoding string `toml:"encoding"`
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`

	// Dimensions overrides the model's vector size.
	Dimensions int `toml:"dimensions"`

	// APIKeyEnv names the environment variable holding the API key for
	// hosted providers. The key itself never lives in the config file.
	APIKeyEnv string `toml:"api_key_env"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	// Backend is "sqlite", "chroma" or "memory".
	Backend string `toml:"backend"`

	// DataDir is where the sqlite backend keeps its database.
	DataDir string `toml:"data_dir"`

	// BaseURL is the chroma server URL.
	BaseURL string `toml:"base_url"`

	// Collection is the chroma collection name.
	Collection string `toml:"collection"`
}

// LLMConfig configures the chat model.
type LLMConfig struct {
	// Model is the Ollama model answering chat questions.
	Model string `toml:"model"`

	// BaseURL overrides the Ollama endpoint.
	BaseURL string `toml:"base_url"`

	// Temperature controls generation randomness.
	Temperature float64 `toml:"temperature"`
}

// ChatConfig controls retrieval-augmented answering.
type ChatConfig struct {
	// TopK is the number of chunks retrieved per question.
	TopK int `toml:"top_k"`

	// MaxHistoryTurns bounds how much conversation is replayed.
	MaxHistoryTurns int `toml:"max_history_turns"`

	// MaxContextChars bounds the assembled context block.
	MaxContextChars int `toml:"max_context_chars"`
}

// IngestConfig controls the ingestion pipeline.
type IngestConfig struct {
	// Concurrency bounds parallel document processing.
	Concurrency int `toml:"concurrency"`

	// Extensions restricts which files are loaded.
	Extensions []string `toml:"extensions"`

	// MaxFileSizeBytes caps single file size.
	MaxFileSizeBytes int64 `toml:"max_file_size_bytes"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Chunking: ChunkingConfig{
			Strategy:     "recursive",
			ChunkSize:    1000,
			ChunkOverlap: 200,
			Encoding:     "cl100k_base",
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     "nomic-embed-text",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Store: StoreConfig{
			Backend:    "sqlite",
			Collection: "document_embeddings",
		},
		LLM: LLMConfig{
			Model: "mistral",
		},
		Chat: ChatConfig{
			TopK:            4,
			MaxHistoryTurns: 10,
			MaxContextChars: 8000,
		},
		Ingest: IngestConfig{
			Concurrency: 4,
		},
	}
}

// DefaultPath returns ~/.docchat/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName, DefaultFileName), nil
}

// Load reads the config file at path, layering it over the defaults.
// A missing file yields the defaults without error; a malformed file is an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// APIKey resolves the embedding API key from the environment.
func (c EmbeddingConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}
