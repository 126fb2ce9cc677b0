// Callscribe places outbound AI voice calls and turns their transcripts into
// structured answers.
//
// Usage:
//
//	# Start the HTTP API
//	callscribe serve
//
//	# Run the follow-up workflow worker
//	callscribe worker
//
//	# Extract answers from a saved transcript
//	callscribe extract --transcript call.json --question "What is your name?"
//
// Configuration is loaded from ~/.config/callscribe/config.yaml and
// CALLSCRIBE_* environment variables. See internal/config for details.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "callscribe",
		Short: "Outbound AI calls with structured answer extraction",
		Long: `callscribe creates voice agents for outbound calls, follows each call
until it finishes, and extracts answers to the agent's questions from the
conversation transcript.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/callscribe/config.yaml)")

	root.AddCommand(
		newServeCmd(opts),
		newWorkerCmd(opts),
		newExtractCmd(opts),
		newTemplatesCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "callscribe by Fyrsmith Labs\n")
			fmt.Fprintf(out, "Version:    %s\n", version)
			fmt.Fprintf(out, "Commit:     %s\n", gitCommit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	}
}
