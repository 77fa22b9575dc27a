package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/bulochat/bulochat/internal/core/domain"
	"github.com/bulochat/bulochat/internal/core/ports/driving"
)

var crawlMaxPosts int

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Ingest the configured blog into the knowledge base",
	Long: `Fetches the blog's post listing, detects changed posts by content
hash and reprocesses only those. Unchanged posts are skipped without any
embedding work.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().IntVar(&crawlMaxPosts, "max-posts", 0, "limit the number of posts ingested (0 = all)")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	if ingestPipeline == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	cmd.Println("Crawling blog...")

	// Run in the background and poll status for progress output.
	type runResult struct {
		report *domain.IngestReport
		err    error
	}
	resultCh := make(chan runResult, 1)
	go func() {
		report, err := ingestPipeline.Run(ctx, driving.IngestOptions{MaxPosts: crawlMaxPosts})
		resultCh <- runResult{report, err}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastProcessed := -1
	for {
		select {
		case res := <-resultCh:
			if res.err != nil {
				if errors.Is(res.err, domain.ErrNotConfigured) {
					return errors.New("no business profile found: run 'bulochat onboard' first")
				}
				return res.err
			}
			printReport(cmd, res.report)
			return nil

		case <-ticker.C:
			status, err := ingestPipeline.Status(ctx)
			if err != nil || !status.Running {
				continue
			}
			if done := status.Processed + status.Skipped; done != lastProcessed {
				lastProcessed = done
				cmd.Printf("  processed %d (skipped %d, errors %d)\n",
					status.Processed, status.Skipped, status.Errors)
			}
		}
	}
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Done: %d listed, %d stored, %d skipped, %d failed\n",
		report.Listed, report.Stored, report.Skipped, report.Failed())
	for _, ingErr := range report.Errors {
		cmd.Printf("  failed (%s): %s: %v\n", ingErr.Stage, ingErr.URL, ingErr.Err)
	}
}
