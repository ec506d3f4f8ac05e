package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/spigell/resume-screener/internal/taxonomy"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the size of the built-in taxonomy",
	RunE: func(_ *cobra.Command, _ []string) error {
		tax, err := taxonomy.Default()
		if err != nil {
			return fmt.Errorf("loading built-in taxonomy: %w", err)
		}

		fmt.Printf("%s version: %s (%s)\n", app, version, runtime.Version())
		fmt.Printf("built-in taxonomy: %d skills\n", tax.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
