package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/meridianledger/meridian-go/engine/execution"
	"github.com/meridianledger/meridian-go/engine/execution/checkpoint"
	"github.com/meridianledger/meridian-go/engine/execution/chunks"
	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/module/metrics"
	"github.com/meridianledger/meridian-go/module/signature"
	"github.com/meridianledger/meridian-go/module/validation"
	badgerstorage "github.com/meridianledger/meridian-go/storage/badger"
	"github.com/meridianledger/meridian-go/svm"
)

const commitRetryBase = 100 * time.Millisecond

func runReplay(cmd *cobra.Command, args []string) error {
	mode, err := verifyMode()
	if err != nil {
		return err
	}

	sourceDB, err := openDB(flagSourceDir)
	if err != nil {
		return fmt.Errorf("could not open source store: %w", err)
	}
	defer sourceDB.Close()
	source, err := badgerstorage.NewLedger(log, sourceDB)
	if err != nil {
		return fmt.Errorf("could not open source ledger: %w", err)
	}

	targetDB, err := openDB(flagTargetDir)
	if err != nil {
		return fmt.Errorf("could not open target store: %w", err)
	}
	defer targetDB.Close()
	target, err := badgerstorage.NewLedger(log, targetDB)
	if err != nil {
		return fmt.Errorf("could not open target ledger: %w", err)
	}

	sourceState, _, err := source.CurrentState()
	if err != nil {
		return fmt.Errorf("could not read source watermark: %w", err)
	}
	targetState, _, err := target.CurrentState()
	if err != nil {
		return fmt.Errorf("could not read target watermark: %w", err)
	}

	first := targetState.NextVersion()
	end := sourceState.NextVersion()
	if flagCount > 0 && first+ledger.Version(flagCount) < end {
		end = first + ledger.Version(flagCount)
	}
	if first >= end {
		log.Info().
			Uint64("target_next_version", uint64(first)).
			Uint64("source_next_version", uint64(sourceState.NextVersion())).
			Msg("nothing to replay")
		return nil
	}

	log.Info().
		Uint64("first_version", uint64(first)).
		Uint64("end_version", uint64(end)).
		Str("verify_mode", flagVerifyMode).
		Msg("starting replay")

	sigPool := signature.NewPool(log, signature.DefaultWorkers)
	defer sigPool.Stop()
	executor := chunks.NewExecutor(
		log,
		metrics.NewNoopCollector(),
		target,
		svm.New(log),
		validation.NewProofVerifier(),
		checkpoint.NewCalculator(),
		sigPool,
	)
	defer executor.Finish()

	ctx := cmd.Context()
	for batchFirst := first; batchFirst < end; {
		count := uint64(end - batchFirst)
		if count > flagBatchSize {
			count = flagBatchSize
		}

		chunk, err := source.ReadChunk(batchFirst, count)
		if err != nil {
			return fmt.Errorf("could not read source records at version %d: %w", batchFirst, err)
		}

		err = executor.Replay(chunk.Transactions, chunk.TransactionInfos, chunk.WriteSets, chunk.EventLists, mode)
		if err != nil {
			return fmt.Errorf("could not replay batch at version %d: %w", batchFirst, err)
		}

		err = commitWithRetry(ctx, executor)
		if err != nil {
			return fmt.Errorf("could not commit batch at version %d: %w", batchFirst, err)
		}

		batchFirst += ledger.Version(count)
		log.Info().
			Uint64("next_version", uint64(batchFirst)).
			Msg("replayed batch")
	}

	if mode.SeenError() {
		return fmt.Errorf("replay completed with verification mismatches: %w", mode.Errors())
	}

	log.Info().Uint64("end_version", uint64(end)).Msg("replay complete")
	return nil
}

// commitWithRetry retries a failed commit with exponential backoff; the chunk
// stays staged across attempts.
func commitWithRetry(ctx context.Context, executor *chunks.Executor) error {
	backoff := retry.WithMaxRetries(flagCommitRetries, retry.NewExponential(commitRetryBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := executor.Commit()
		if err != nil {
			log.Error().Err(err).Msg("could not commit replayed chunk - retrying...")
			return retry.RetryableError(err)
		}
		return nil
	})
}

func verifyMode() (*execution.VerifyMode, error) {
	skip := make([]ledger.Version, 0, len(flagSkipVersions))
	for _, v := range flagSkipVersions {
		skip = append(skip, ledger.Version(v))
	}

	switch flagVerifyMode {
	case "strict":
		return execution.NewVerifyModeStrict(skip), nil
	case "lazy":
		return execution.NewVerifyModeLazy(skip), nil
	case "disabled":
		return execution.NewVerifyModeDisabled(), nil
	default:
		return nil, fmt.Errorf("unknown verify mode %q, want strict, lazy or disabled", flagVerifyMode)
	}
}

func openDB(dir string) (*badger.DB, error) {
	opts := badger.
		DefaultOptions(dir).
		WithLogger(nil)
	return badger.Open(opts)
}
