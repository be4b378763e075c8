package cli

import (
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "feedback-engine",
		Short: "Karmachain behavioral feedback engine",
		Long: "Normalizes raw behavioral events into weighted karmic signals, " +
			"appends them to the karma ledger and forwards them downstream over STP.",
	}

	root.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	root.PersistentFlags().String("env-file", ".env", "Path to an env file loaded before configuration")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
	root.PersistentFlags().Bool("log-source", false, "Include caller location in logs")

	root.AddCommand(
		ServeCmd(),
	)

	return root
}
