package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespaceExecution = "meridian"
	subsystemChunks    = "chunk_executor"
)

// ChunkExecutionMetrics is implemented by collectors consumed by the chunk
// commit pipeline.
type ChunkExecutionMetrics interface {
	// ChunkExecuted reports a chunk staged through the execution path.
	ChunkExecuted(dur time.Duration, numTxns int)
	// ChunkApplied reports a chunk staged through the output-apply path.
	ChunkApplied(dur time.Duration, numTxns int)
	// ChunkLedgerUpdated reports a finalized ledger update.
	ChunkLedgerUpdated(dur time.Duration, numTxns int)
	// ChunkCommitted reports a persisted chunk.
	ChunkCommitted(dur time.Duration, numTxns int)
	// ReplayMismatch reports a replay verification mismatch.
	ReplayMismatch()
}

// ChunkExecutionCollector is the prometheus-backed pipeline collector.
type ChunkExecutionCollector struct {
	executeChunkDuration prometheus.Histogram
	applyChunkDuration   prometheus.Histogram
	updateLedgerDuration prometheus.Histogram
	commitChunkDuration  prometheus.Histogram
	transactionsStaged   prometheus.Counter
	transactionsCommit   prometheus.Counter
	replayMismatches     prometheus.Counter
}

var _ ChunkExecutionMetrics = (*ChunkExecutionCollector)(nil)

func NewChunkExecutionCollector(registerer prometheus.Registerer) *ChunkExecutionCollector {
	factory := promauto.With(registerer)
	return &ChunkExecutionCollector{
		executeChunkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemChunks,
			Name:      "execute_chunk_duration_seconds",
			Help:      "duration of staging a chunk through the execution path",
		}),
		applyChunkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemChunks,
			Name:      "apply_chunk_duration_seconds",
			Help:      "duration of staging a chunk through the output-apply path",
		}),
		updateLedgerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemChunks,
			Name:      "update_ledger_duration_seconds",
			Help:      "duration of finalizing the ledger update of a chunk",
		}),
		commitChunkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemChunks,
			Name:      "commit_chunk_duration_seconds",
			Help:      "duration of persisting a chunk",
		}),
		transactionsStaged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemChunks,
			Name:      "transactions_staged_total",
			Help:      "total number of transactions staged by the pipeline",
		}),
		transactionsCommit: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemChunks,
			Name:      "transactions_committed_total",
			Help:      "total number of transactions persisted by the pipeline",
		}),
		replayMismatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceExecution,
			Subsystem: subsystemChunks,
			Name:      "replay_mismatches_total",
			Help:      "total number of replay verification mismatches",
		}),
	}
}

func (c *ChunkExecutionCollector) ChunkExecuted(dur time.Duration, numTxns int) {
	c.executeChunkDuration.Observe(dur.Seconds())
	c.transactionsStaged.Add(float64(numTxns))
}

func (c *ChunkExecutionCollector) ChunkApplied(dur time.Duration, numTxns int) {
	c.applyChunkDuration.Observe(dur.Seconds())
	c.transactionsStaged.Add(float64(numTxns))
}

func (c *ChunkExecutionCollector) ChunkLedgerUpdated(dur time.Duration, numTxns int) {
	c.updateLedgerDuration.Observe(dur.Seconds())
}

func (c *ChunkExecutionCollector) ChunkCommitted(dur time.Duration, numTxns int) {
	c.commitChunkDuration.Observe(dur.Seconds())
	c.transactionsCommit.Add(float64(numTxns))
}

func (c *ChunkExecutionCollector) ReplayMismatch() {
	c.replayMismatches.Inc()
}

// NoopCollector implements ChunkExecutionMetrics without recording anything,
// for tests and tools.
type NoopCollector struct{}

var _ ChunkExecutionMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector { return &NoopCollector{} }

func (c *NoopCollector) ChunkExecuted(time.Duration, int)      {}
func (c *NoopCollector) ChunkApplied(time.Duration, int)       {}
func (c *NoopCollector) ChunkLedgerUpdated(time.Duration, int) {}
func (c *NoopCollector) ChunkCommitted(time.Duration, int)     {}
func (c *NoopCollector) ReplayMismatch()                       {}
