package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmailagent/gmailagent/internal/account"
	"github.com/gmailagent/gmailagent/internal/google"
	"github.com/gmailagent/gmailagent/internal/outfmt"
	"github.com/gmailagent/gmailagent/internal/ui"
)

// Persistent flags shared by every command.
var (
	accountFlag string
	jqFlag      string
	colorFlag   string
	verboseFlag bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gmailagent",
	Short: "Automation-friendly Gmail CLI and MCP server",
	Long: `gmailagent manages one or more Gmail accounts for automation callers:
list, read, send and reply to messages, manage labels and filters, and
download attachments.

Every command prints a single JSON object to stdout; diagnostics and
progress go to stderr. The serve command runs the same operations as an
MCP server for AI assistants instead.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// version is stamped by main at startup.
var version = "dev"

// SetVersion records the build version reported by the version command.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application. Errors that reach
// this point are setup failures: unknown account, missing credentials,
// failed authentication, bad flags. They are reported as an error envelope
// on stdout with remediation hints on stderr, and the process exits
// non-zero. Gmail API failures after a session exists are reported by the
// commands themselves and exit zero, so automation callers can parse the
// outcome either way.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gmailagent version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		reportFatal(err)
		os.Exit(1)
	}
}

func reportFatal(err error) {
	name := ""
	var serr *sessionError
	if errors.As(err, &serr) {
		name = serr.account
	}
	outfmt.WriteJSON(os.Stdout, outfmt.Error(name, err))

	out := ui.New(colorFlag)
	var credsMissing *google.CredentialsFileMissingError
	if errors.As(err, &credsMissing) {
		for _, line := range credsMissing.Remediation() {
			out.Plain(line)
		}
		return
	}
	var unknown *account.UnknownAccountError
	if errors.As(err, &unknown) {
		out.Info("Add it with: gmailagent accounts --auth " + unknown.Requested)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountFlag, "account", "a", "", "account name (default: config default_account)")
	rootCmd.PersistentFlags().StringVar(&jqFlag, "jq", "", "filter the JSON output through a jq expression")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "color diagnostics: auto, always or never")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newAccountsCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newReadCmd())
	rootCmd.AddCommand(newTrashCmd())
	rootCmd.AddCommand(newUntrashCmd())
	rootCmd.AddCommand(newArchiveCmd())
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newLabelsCmd())
	rootCmd.AddCommand(newFiltersCmd())
	rootCmd.AddCommand(newAttachmentsCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newSearchDownloadCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newReplyCmd())
	rootCmd.AddCommand(newDraftsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
