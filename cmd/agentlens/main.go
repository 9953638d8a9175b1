// cmd/agentlens/main.go
//
// Entry point for the agentlens CLI. Two subcommands share one annotation
// layout: `annotate` runs the interactive terminal session, `score` runs a
// vision-language model over previously annotated pairs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "agentlens",
		Short:        "Annotate and score multi-agent image comparison questions",
		SilenceUsage: true,
	}
	root.AddCommand(newAnnotateCmd())
	root.AddCommand(newScoreCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
