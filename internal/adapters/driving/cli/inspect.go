package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marrow-labs/docchat-cli/internal/core/ports/driven"
)

var (
	inspectLimit int
	inspectJSON  bool
)

// recordLister is implemented by store backends that can enumerate their
// contents. Inspection is read-only.
type recordLister interface {
	List(ctx context.Context, limit int) ([]driven.Record, error)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show what the vector store contains",
	Long: `Inspect prints the stored chunks with their metadata and a content
preview, plus collection totals. It never modifies the store.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 0, "maximum records to show (0 = all)")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output records as JSON")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	store, err := wireStore()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	dims, err := store.Dimensions(ctx)
	if err != nil {
		return err
	}

	lister, ok := store.(recordLister)
	if !ok {
		cmd.Printf("Total chunks: %d (%d dimensions)\n", count, dims)
		return nil
	}
	records, err := lister.List(ctx, inspectLimit)
	if err != nil {
		return err
	}

	if inspectJSON {
		return outputInspectJSON(cmd, records)
	}

	cmd.Printf("Total chunks in store: %d (%d dimensions)\n", count, dims)
	for i, r := range records {
		cmd.Printf("\nChunk %d (ID: %s):\n", i+1, r.ChunkID)
		cmd.Printf("  Document: %s\n", r.DocumentID)
		cmd.Printf("  Text snippet: %s\n", preview(r.Content, 200))
		if len(r.Metadata) > 0 {
			cmd.Printf("  Metadata: %s\n", formatMetadata(r.Metadata))
		}
	}
	if inspectLimit > 0 && count > len(records) {
		cmd.Printf("\n(%d more not shown; raise --limit)\n", count-len(records))
	}
	return nil
}

func outputInspectJSON(cmd *cobra.Command, records []driven.Record) error {
	// Embeddings are omitted; they dominate the payload and carry no
	// information a human can read.
	type record struct {
		ChunkID    string         `json:"chunk_id"`
		DocumentID string         `json:"document_id"`
		Content    string         `json:"content"`
		Metadata   map[string]any `json:"metadata,omitempty"`
		Dimensions int            `json:"dimensions"`
	}
	out := make([]record, 0, len(records))
	for _, r := range records {
		out = append(out, record{
			ChunkID:    r.ChunkID,
			DocumentID: r.DocumentID,
			Content:    r.Content,
			Metadata:   r.Metadata,
			Dimensions: len(r.Embedding),
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func formatMetadata(m map[string]any) string {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("%v", m)
	}
	return string(data)
}
