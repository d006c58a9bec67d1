// Command medicli talks to the Medi Care chat backend from a terminal.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/medicare/backend/pkg/log"
)

var (
	verbose bool
	timeout time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "medicli",
	Short: "Medi Care chat client",
	Long: `medicli sends symptom descriptions to the Medi Care chat backend and
prints the replies with their severity indicator.

Without --backend (or CHAT_BACKEND_URL) replies come from the built-in
keyword rules, so the CLI works offline.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		return log.Init(level, "console")
	},
}

func main() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Per-turn reply timeout")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newTriageCmd())

	err := rootCmd.Execute()
	log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
