// Command intakectl is the operator CLI for the idea intake platform. It
// applies schema migrations and runs similarity lookups straight against
// the configured database, without the HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	jsonOutput bool
}

var rootCmd = &cobra.Command{
	Use:   "intakectl",
	Short: "Operate the idea intake database",
	Long:  "intakectl migrates the intake schema and ranks stored ideas by\nsimilarity to an idea, a problem, or free text.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "configs/development.yaml", "path to config file")
	pf.BoolVar(&rootFlags.jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(problemCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
