package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
)

var (
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve the chunks most similar to a query",
	Long: `Query embeds the given text and prints the stored chunks ranked by
cosine similarity. Useful for checking what the chat command would see
as context for a question.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 5, "number of results to return")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	svc, err := wireRetriever()
	if err != nil {
		return err
	}

	chunks, err := svc.Retrieve(cmd.Context(), args[0], queryTopK)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return fmt.Errorf("%w (the store was built with a different embedding model; re-ingest or change the configured model)", err)
		}
		return err
	}

	if queryJSON {
		return outputQueryJSON(cmd, chunks)
	}
	outputQueryTable(cmd, args[0], chunks)
	return nil
}

func outputQueryJSON(cmd *cobra.Command, chunks []domain.RetrievedChunk) error {
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryTable(cmd *cobra.Command, query string, chunks []domain.RetrievedChunk) {
	if len(chunks) == 0 {
		cmd.Println("No results. Ingest some documents first.")
		return
	}
	cmd.Printf("Top %d results for %q:\n\n", len(chunks), query)
	for i, c := range chunks {
		source := c.ChunkID
		if path, ok := c.Metadata["path"].(string); ok {
			source = path
		}
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, source, c.Similarity)
		cmd.Printf("      %s\n\n", preview(c.Content, 160))
	}
}

// preview flattens and truncates chunk text for single-line display.
func preview(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
