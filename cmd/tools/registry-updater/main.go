// Command registry-updater maintains configs/activity-registry.json.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var registryPath string

var rootCmd = &cobra.Command{
	Use:           "registry-updater",
	Short:         "Maintain the activity registry",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&registryPath, "path", "configs/activity-registry.json", "Path to registry file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
