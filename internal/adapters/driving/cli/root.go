// Package cli wires the cobra command tree over the core services.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bulochat/bulochat/internal/core/ports/driven"
	"github.com/bulochat/bulochat/internal/core/ports/driving"
	"github.com/bulochat/bulochat/internal/logger"
)

// version is overridden at build time via ldflags.
var version = "dev"

// verbose mirrors the --verbose persistent flag.
var verbose bool

// Services injected by main before Execute.
var (
	ingestPipeline driving.IngestPipeline
	chatService    driving.ChatService
	contentStore   driven.ContentStore
	schemaResetter SchemaResetter
)

// SchemaResetter drops and recreates the persistent schema.
type SchemaResetter interface {
	Reset() error
}

// Services bundles everything the commands need.
type Services struct {
	Ingest driving.IngestPipeline
	Chat   driving.ChatService
	Store  driven.ContentStore

	// Resetter is optional; without it setup-db refuses to run.
	Resetter SchemaResetter
}

// SetServices injects the service implementations used by the commands.
func SetServices(s Services) {
	ingestPipeline = s.Ingest
	chatService = s.Chat
	contentStore = s.Store
	schemaResetter = s.Resetter
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "bulochat",
	Short: "Blog-grounded chatbot for small businesses",
	Long: `bulochat ingests a business's Naver blog and answers customer
questions grounded in its posts.

Typical flow:
  bulochat onboard    set up the business profile
  bulochat crawl      ingest the blog into the knowledge base
  bulochat chat       talk to the assistant interactively`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command. The context propagates cancellation to
// every command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
