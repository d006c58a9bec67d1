package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/medicare/backend/internal/analysis/severity"
	keywords "github.com/zhouzirui/medicare/backend/internal/analysis/triage"
)

func newTriageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "triage <text>",
		Short: "Classify a message with the offline keyword rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriage(cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}
}

func runTriage(out io.Writer, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is required")
	}

	reply := keywords.Match(text)
	fmt.Fprintf(out, "category: %s\n", reply.Category)
	fmt.Fprintf(out, "score:    %d\n", reply.Score)
	fmt.Fprintln(out, severity.Classify(reply.Score).Display())
	return nil
}
