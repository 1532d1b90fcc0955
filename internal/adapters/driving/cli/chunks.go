package cli

import (
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/marrow-labs/docchat-cli/internal/chunker"
	"github.com/marrow-labs/docchat-cli/internal/extractors"
	"github.com/marrow-labs/docchat-cli/internal/extractors/markdown"
	"github.com/marrow-labs/docchat-cli/internal/extractors/plaintext"
	"github.com/marrow-labs/docchat-cli/internal/loader"
)

var chunksCmd = &cobra.Command{
	Use:   "chunks [file]",
	Short: "Preview how a file would be chunked",
	Long: `Chunks splits a file with the configured strategy and prints each
chunk with its byte offsets, without embedding or storing anything.
Useful for tuning chunk size and overlap before ingesting.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunks,
}

func init() {
	chunksCmd.Flags().StringVar(&ingestStrategy, "strategy", "", "chunking strategy: token, character, word, recursive")
	chunksCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "chunk window size in strategy units")
	chunksCmd.Flags().IntVar(&ingestOverlap, "chunk-overlap", -1, "units shared between adjacent chunks")
	rootCmd.AddCommand(chunksCmd)
}

func runChunks(cmd *cobra.Command, args []string) error {
	applyIngestFlags()

	cc, err := chunkConfig()
	if err != nil {
		return err
	}

	l := loader.New(loader.Config{MaxFileSize: cfg.Ingest.MaxFileSizeBytes})
	raw, err := l.LoadFile(args[0])
	if err != nil {
		return err
	}
	registry := extractors.NewRegistry(plaintext.New(), markdown.New())
	doc, err := registry.Extract(cmd.Context(), &raw)
	if err != nil {
		return err
	}

	spans, err := chunker.Split(doc.Content, cc)
	if err != nil {
		return err
	}

	cmd.Printf("%s: %d chunks (%s, size %d, overlap %d)\n",
		args[0], len(spans), cc.Strategy, cc.ChunkSize, cc.ChunkOverlap)
	rule := strings.Repeat("-", 60)
	for i, s := range spans {
		cmd.Printf("\nChunk %d  bytes [%d:%d)  %d chars\n%s\n%s\n",
			i+1, s.Start, s.End, utf8.RuneCountInString(s.Text), rule,
			strings.TrimSpace(s.Text))
	}
	return nil
}
