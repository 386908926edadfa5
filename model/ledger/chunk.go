package ledger

// ChunkWithProof is a contiguous range of transactions to be executed,
// together with the proof authenticating their canonical infos. Immutable
// once received.
type ChunkWithProof struct {
	Transactions []Transaction
	// FirstVersion is the version of the first transaction; nil is invalid
	// for a non-empty chunk and rejected by the pipeline.
	FirstVersion *Version
	Proof        TransactionInfoListProof
}

// OutputChunkWithProof is a contiguous range of transactions with
// pre-computed outputs, used when outputs are trusted and execution can be
// skipped.
type OutputChunkWithProof struct {
	TransactionsAndOutputs []TransactionAndOutput
	FirstVersion           *Version
	Proof                  TransactionInfoListProof
}
