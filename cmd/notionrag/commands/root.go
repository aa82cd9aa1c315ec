// ABOUTME: Root command and global flags for the notionrag CLI
// ABOUTME: Loads .env before any subcommand runs
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Global flags
var (
	configPath   string
	verbose      bool
	quiet        bool
	outputFormat string
	forceRefresh bool
)

const banner = `
███╗   ██╗ ██████╗ ████████╗██╗ ██████╗ ███╗   ██╗    ██████╗  █████╗  ██████╗
████╗  ██║██╔═══██╗╚══██╔══╝██║██╔═══██╗████╗  ██║    ██╔══██╗██╔══██╗██╔════╝
██╔██╗ ██║██║   ██║   ██║   ██║██║   ██║██╔██╗ ██║    ██████╔╝███████║██║  ███╗
██║╚██╗██║██║   ██║   ██║   ██║██║   ██║██║╚██╗██║    ██╔══██╗██╔══██║██║   ██║
██║ ╚████║╚██████╔╝   ██║   ██║╚██████╔╝██║ ╚████║    ██║  ██║██║  ██║╚██████╔╝
╚═╝  ╚═══╝ ╚═════╝    ╚═╝   ╚═╝ ╚═════╝ ╚═╝  ╚═══╝    ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notionrag",
		Short: "Answer questions from a Notion workspace",
		Long: banner + `

Crawls a Notion workspace, embeds its text and answers questions
grounded in what it found, citing the pages it used.

Credentials come from the environment (or a .env file):
  OPENAI_API_KEY   OpenAI key for embeddings and chat
  NOTION_API_KEY   Notion integration token
  RAG_ROOT_IDS     comma-separated root page ids`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "text", "json":
			default:
				return fmt.Errorf("invalid --format %q (want auto, text or json)", outputFormat)
			}
			// a missing .env is normal outside local development
			_ = godotenv.Load()
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	flags.StringVar(&outputFormat, "format", "auto", "Output format: auto, text or json")
	flags.BoolVar(&forceRefresh, "force-refresh", false, "Ignore the crawl cache on the first refresh")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewServeCmd(),
		NewRefreshCmd(),
		NewCrawlCmd(),
		NewAskCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
