package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/teamx/teamfinder/cmd/do/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "do",
		Short:        "Development and maintenance tools for the TeamX API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.DevCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
