// Package signature implements the bounded-parallelism signature pre-check
// that runs ahead of chunk execution.
package signature

import (
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"

	"github.com/meridianledger/meridian-go/engine/execution"
	"github.com/meridianledger/meridian-go/model/ledger"
)

// DefaultWorkers is the default size of the verification pool. More workers
// than this have not shown a benefit; the pool size is independent of chunk
// size.
const DefaultWorkers = 8

// Pool verifies transaction signatures as an order-preserving parallel map
// over a fixed-size worker pool. One Pool is shared by all pipeline calls.
type Pool struct {
	log zerolog.Logger
	wp  *workerpool.WorkerPool
}

// NewPool creates a verification pool with the given number of workers.
func NewPool(log zerolog.Logger, workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pool{
		log: log.With().Str("component", "signature_pool").Logger(),
		wp:  workerpool.New(workers),
	}
}

// VerifyTransactions checks the signature of every transaction in parallel,
// returning the annotated transactions in the original order.
func (p *Pool) VerifyTransactions(transactions []ledger.Transaction) []execution.SignatureVerifiedTransaction {
	verified := make([]execution.SignatureVerifiedTransaction, len(transactions))

	var wg sync.WaitGroup
	wg.Add(len(transactions))
	for i := range transactions {
		i := i
		p.wp.Submit(func() {
			defer wg.Done()
			tx := transactions[i]
			err := tx.VerifySignature()
			verified[i] = execution.SignatureVerifiedTransaction{
				Transaction: tx,
				Valid:       err == nil,
			}
			if err != nil {
				p.log.Warn().Err(err).Int("index", i).Msg("transaction failed signature pre-check")
			}
		})
	}
	wg.Wait()

	return verified
}

// Stop releases the pool's workers after finishing queued tasks.
func (p *Pool) Stop() {
	p.wp.StopWait()
}
