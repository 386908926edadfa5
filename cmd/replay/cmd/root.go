package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagSourceDir     string
	flagTargetDir     string
	flagCount         uint64
	flagBatchSize     uint64
	flagVerifyMode    string
	flagSkipVersions  []uint
	flagCommitRetries uint64

	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay committed ledger history from one store into another",
	Long: `Reads the per-version transaction records of a source ledger store and
replays them into a target store through the chunk commit pipeline,
optionally re-executing every transaction to verify the recorded outcomes.`,
	RunE: runReplay,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&flagSourceDir, "source-dir", "",
		"directory of the source ledger store (required)")
	rootCmd.Flags().StringVar(&flagTargetDir, "target-dir", "",
		"directory of the target ledger store (required)")
	rootCmd.Flags().Uint64Var(&flagCount, "count", 0,
		"number of versions to replay; 0 replays everything past the target watermark")
	rootCmd.Flags().Uint64Var(&flagBatchSize, "batch-size", 1000,
		"number of versions replayed per pipeline pass")
	rootCmd.Flags().StringVar(&flagVerifyMode, "verify-mode", "strict",
		"how to treat recorded outcomes: strict, lazy or disabled")
	rootCmd.Flags().UintSliceVar(&flagSkipVersions, "skip-versions", nil,
		"versions with known bad recorded outcomes, applied without re-execution")
	rootCmd.Flags().Uint64Var(&flagCommitRetries, "commit-retries", 3,
		"maximum retries of a failed chunk commit")

	_ = rootCmd.MarkFlagRequired("source-dir")
	_ = rootCmd.MarkFlagRequired("target-dir")

	log = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	viper.AutomaticEnv()
}
