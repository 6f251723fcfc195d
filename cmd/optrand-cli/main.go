package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configDir string
	verbose   bool

	// Keygen options
	numNodes int
	deltaMS  uint64
	seed     uint64

	// Simulate options
	epochs int

	rootCmd = &cobra.Command{
		Use:   "optrand-cli",
		Short: "CLI tool for the OptRand randomness beacon",
		Long: `A CLI tool for generating committee key material, inspecting replica
configurations, and simulating OptRand epochs in-memory.`,
	}

	keygenCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Generate committee configuration files",
		Long:  `Generate matching configuration files for an n-replica committee`,
		RunE:  runKeygen,
	}

	infoCmd = &cobra.Command{
		Use:   "info [config.json]",
		Short: "Display a replica configuration",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Run an in-memory committee",
		Long:  `Run a full committee in-memory for a number of epochs and print per-epoch commits and beacon values`,
		RunE:  runSimulate,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", ".", "Directory for configuration files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	keygenCmd.Flags().IntVarP(&numNodes, "nodes", "n", 4, "Committee size")
	keygenCmd.Flags().Uint64VarP(&deltaMS, "delta", "d", 50, "Synchrony bound in milliseconds")
	keygenCmd.Flags().Uint64VarP(&seed, "seed", "s", 0, "Deterministic seed (0 uses system randomness)")

	simulateCmd.Flags().IntVarP(&numNodes, "nodes", "n", 4, "Committee size")
	simulateCmd.Flags().Uint64VarP(&deltaMS, "delta", "d", 50, "Synchrony bound in milliseconds")
	simulateCmd.Flags().Uint64VarP(&seed, "seed", "s", 42, "Deterministic seed")
	simulateCmd.Flags().IntVarP(&epochs, "epochs", "e", 3, "Number of epochs to run")

	rootCmd.AddCommand(keygenCmd, infoCmd, simulateCmd)
}

func logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
