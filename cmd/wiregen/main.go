package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/wiregen/cmd/wiregen/commands"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/logger"

	// Registers the HTTP+JSON protocol generator.
	_ "github.com/teranos/wiregen/protocol/httpjson"
)

var rootCmd = &cobra.Command{
	Use:   "wiregen",
	Short: "wiregen - model-driven RPC client generator",
	Long: `wiregen - generate typed RPC client source from a shape model.

A shape model names every structure, union, enum, operation, and service a
client exchanges. wiregen walks that model once and emits a complete Go
client package: types, validators, serializers, middleware wiring, and the
module manifest.

Available commands:
  generate - Generate client source from a model
  check    - Verify generated output is current
  version  - Show version information

Examples:
  wiregen generate --model api.json --output gen/
  wiregen check --model api.json --output gen/
  wiregen version`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := logger.Initialize(jsonOutput); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if verbose, _ := cmd.Flags().GetCount("verbose"); verbose > 0 {
			logger.SetVerbose()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail)")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Cleanup()
		if errors.Is(err, errors.ErrStaleOutput) {
			os.Exit(1)
		}
		os.Exit(2)
	}
	logger.Cleanup()
}
