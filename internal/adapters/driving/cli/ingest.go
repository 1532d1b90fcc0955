package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marrow-labs/docchat-cli/internal/core/domain"
	"github.com/marrow-labs/docchat-cli/internal/loader"
	"github.com/marrow-labs/docchat-cli/internal/logger"
)

var (
	ingestStrategy    string
	ingestChunkSize   int
	ingestOverlap     int
	ingestConcurrency int
	ingestWatch       bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest documents into the vector store",
	Long: `Ingest loads the given files or directories, splits them into chunks,
embeds each chunk and writes the vectors to the configured store.

Re-ingesting an unchanged file overwrites its chunks in place, so ingest
is safe to run repeatedly. With --watch, ingest keeps running and
re-processes files as they change on disk.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestStrategy, "strategy", "", "chunking strategy: token, character, word, recursive")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "chunk window size in strategy units")
	ingestCmd.Flags().IntVar(&ingestOverlap, "chunk-overlap", -1, "units shared between adjacent chunks")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "documents processed in parallel")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep running and re-ingest files as they change")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	applyIngestFlags()

	if _, err := wireIngestor(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	raws, err := loadInputs(ctx, args)
	if err != nil {
		return err
	}
	if len(raws) == 0 {
		cmd.Println("No documents found.")
		if !ingestWatch {
			return nil
		}
	}

	if len(raws) > 0 {
		report, err := ingestWithProgress(ctx, cmd, raws)
		if err != nil {
			return err
		}
		printReport(cmd, report)
		if !ingestWatch && report.Failed() > 0 {
			return errors.New("some documents failed to ingest")
		}
	}

	if !ingestWatch {
		return nil
	}
	return watchAndIngest(ctx, cmd, args)
}

func applyIngestFlags() {
	if ingestStrategy != "" {
		cfg.Chunking.Strategy = ingestStrategy
	}
	if ingestChunkSize > 0 {
		cfg.Chunking.ChunkSize = ingestChunkSize
	}
	if ingestOverlap >= 0 {
		cfg.Chunking.ChunkOverlap = ingestOverlap
	}
	if ingestConcurrency > 0 {
		cfg.Ingest.Concurrency = ingestConcurrency
	}
}

func loadInputs(ctx context.Context, paths []string) ([]domain.RawDocument, error) {
	var raws []domain.RawDocument
	for _, p := range paths {
		docs, err := docLoader.LoadDir(ctx, p)
		if err != nil {
			return nil, err
		}
		raws = append(raws, docs...)
	}
	return raws, nil
}

// ingestWithProgress runs the pipeline while a goroutine polls its status
// for a progress line.
func ingestWithProgress(ctx context.Context, cmd *cobra.Command, raws []domain.RawDocument) (*domain.IngestionReport, error) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				st := ingestor.Status()
				if st.Running {
					cmd.Printf("\rProcessing %d/%d documents...", st.DocumentsProcessed, st.DocumentsTotal)
				}
			}
		}
	}()

	report, err := ingestor.Ingest(ctx, raws)
	close(done)
	cmd.Printf("\r")
	if err != nil {
		return nil, err
	}
	return report, nil
}

func printReport(cmd *cobra.Command, report *domain.IngestionReport) {
	cmd.Printf("Ingested %d documents (%d chunks, %d vectors) in %s\n",
		report.Succeeded(), report.TotalChunks, report.TotalVectors,
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	if report.Skipped() > 0 {
		cmd.Printf("  skipped: %d\n", report.Skipped())
	}
	for _, o := range report.Outcomes {
		switch o.Status {
		case domain.StatusFailed:
			cmd.Printf("  FAILED  %s: %s\n", o.Path, o.Reason)
		case domain.StatusSkipped:
			logger.Debug("skipped %s: %s", o.Path, o.Reason)
		}
	}
	if report.Cancelled {
		cmd.Println("Run cancelled; partial results kept.")
	}
}

// watchAndIngest blocks, re-ingesting files as they change, until ctx is
// cancelled.
func watchAndIngest(ctx context.Context, cmd *cobra.Command, roots []string) error {
	cmd.Println("Watching for changes (Ctrl-C to stop)...")
	var mu sync.Mutex // one re-ingest at a time across watch roots
	for _, root := range roots {
		root := root
		go func() {
			err := docLoader.Watch(ctx, root, loader.DefaultDebounce, func(paths []string) {
				raws := make([]domain.RawDocument, 0, len(paths))
				for _, p := range paths {
					raw, err := docLoader.LoadFile(p)
					if err != nil {
						logger.Warn("reload %s: %v", p, err)
						continue
					}
					raws = append(raws, raw)
				}
				if len(raws) == 0 {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				report, err := ingestor.Ingest(ctx, raws)
				if err != nil {
					logger.Warn("re-ingest: %v", err)
					return
				}
				printReport(cmd, report)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("watch %s: %v", root, err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}
