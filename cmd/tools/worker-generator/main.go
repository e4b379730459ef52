// Command worker-generator scaffolds a job worker package from an entry in
// the activity registry.
package main

import (
	"fmt"
	"os"

	"studyabroad-workers/pkg/registry"

	"github.com/spf13/cobra"
)

var (
	registryPath string
	outputDir    string
	force        bool
)

var rootCmd = &cobra.Command{
	Use:           "worker-generator <activity-id>",
	Short:         "Generate config, models, handler and tests for a registered activity",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("load registry %s: %w", registryPath, err)
		}
		act, ok := reg.Find(args[0])
		if !ok {
			return fmt.Errorf("activity %q not found in %s", args[0], registryPath)
		}

		dir, files, err := generate(act, outputDir, force)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, f := range files {
			fmt.Fprintf(out, "generated %s\n", f)
		}
		fmt.Fprintf(out, "\nscaffold ready at %s\n", dir)
		fmt.Fprintln(out, "next: implement Execute, add the constructor to buildHandlers and run registry-updater sync")
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&registryPath, "registry", "configs/activity-registry.json", "Path to the activity registry")
	rootCmd.Flags().StringVar(&outputDir, "output", "internal/workers", "Root directory for worker packages")
	rootCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing package")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
