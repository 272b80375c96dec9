package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minz/vralloc/pkg/version"
)

var flagVersionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if flagVersionShort {
			fmt.Println(version.GetBuildInfo())
			return
		}
		fmt.Println(version.GetFullVersion())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&flagVersionShort, "short", false, "print a single-line build summary instead of the full report")
	rootCmd.AddCommand(versionCmd)
}
