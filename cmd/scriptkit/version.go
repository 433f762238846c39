package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of scriptkit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scriptkit %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// userAgent is the default User-Agent for outgoing HTTP requests.
func userAgent() string {
	return "scriptkit/" + version
}
