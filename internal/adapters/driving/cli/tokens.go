package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/marrow-labs/docchat-cli/internal/adapters/driven/tokenizer/tiktoken"
)

var tokensEncoding string

var tokensCmd = &cobra.Command{
	Use:   "tokens [text...]",
	Short: "Show how text is tokenized",
	Long: `Tokens encodes the given text with a tiktoken vocabulary and prints
each token with its ID. Runs fully locally; useful for estimating how
much of a model's context window a piece of text occupies.

Common encodings:
  cl100k_base   GPT-4, GPT-3.5-turbo, text-embedding-ada-002
  p50k_base     GPT-3 davinci models
  r50k_base     older GPT-3 models`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTokens,
}

func init() {
	tokensCmd.Flags().StringVar(&tokensEncoding, "encoding", tiktoken.DefaultEncoding, "tiktoken encoding to use")
	rootCmd.AddCommand(tokensCmd)
}

func runTokens(cmd *cobra.Command, args []string) error {
	codec, err := tiktoken.New(tokensEncoding)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	ids := codec.Encode(text)

	cmd.Printf("Input text: %s\n", text)
	cmd.Printf("Encoding: %s\n\nTokens:\n", codec.Name())
	for i, id := range ids {
		cmd.Printf("%3d: %q (ID: %d)\n", i+1, codec.Decode([]int{id}), id)
	}
	cmd.Printf("\nTotal tokens: %d\n", len(ids))
	return nil
}
