package services

import "time"

// Config holds the pipeline tunables. Defaults are the contract values;
// the composition root overrides them from the environment.
type Config struct {
	// ChunkMinChars is the minimum chunk length in characters
	ChunkMinChars int

	// ChunkMaxChars is the maximum chunk length in characters
	ChunkMaxChars int

	// ChunkOverlapChars is the suffix of each chunk prepended to the next
	ChunkOverlapChars int

	// TopKRetrieval is the number of chunks returned per block
	TopKRetrieval int

	// TopNForMMR is the candidate pool size before MMR diversification
	TopNForMMR int

	// MMRLambda trades query relevance against inter-result diversity
	MMRLambda float64

	// BlockConcurrency bounds the per-block LLM fan-out
	BlockConcurrency int

	// PDFBlockDelay pauses between block calls in PDF-native mode
	PDFBlockDelay time.Duration

	// UseChecklistBlocks enables block-wise generation; when false a single
	// legacy call over the full document context is made instead
	UseChecklistBlocks bool

	// EmbedBatchSize caps inputs per embedding provider call
	EmbedBatchSize int
}

// DefaultConfig returns the contract defaults.
func DefaultConfig() Config {
	return Config{
		ChunkMinChars:      800,
		ChunkMaxChars:      1200,
		ChunkOverlapChars:  150,
		TopKRetrieval:      12,
		TopNForMMR:         40,
		MMRLambda:          0.7,
		BlockConcurrency:   4,
		PDFBlockDelay:      0,
		UseChecklistBlocks: true,
		EmbedBatchSize:     2048,
	}
}
