package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/licitaware/editais-core/internal/core/domain"
	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// sectionHintBoost multiplies the query similarity of chunks whose section
// hint matches one of the block's hints.
const sectionHintBoost = 1.15

// Retriever scores embedded chunks against a block's expanded query and
// applies Maximal Marginal Relevance to return a diverse top-K.
type Retriever struct {
	embedder driven.EmbeddingService
	topK     int
	topN     int
	lambda   float64
}

// NewRetriever creates a Retriever from the pipeline config.
func NewRetriever(embedder driven.EmbeddingService, cfg Config) *Retriever {
	return &Retriever{
		embedder: embedder,
		topK:     cfg.TopKRetrieval,
		topN:     cfg.TopNForMMR,
		lambda:   cfg.MMRLambda,
	}
}

// scoredChunk pairs a chunk with its boosted query similarity.
type scoredChunk struct {
	chunk domain.NormalizedChunk
	score float64
}

// RetrieveForBlock returns up to topK chunks for the block, in MMR selection
// order. With fewer chunks than topK all of them are returned; when every
// vector is zero the input order is preserved.
func (r *Retriever) RetrieveForBlock(ctx context.Context, chunks []domain.NormalizedChunk, block domain.ChecklistBlock) ([]domain.NormalizedChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	query := block.Query
	if len(block.HintTerms) > 0 {
		query += " " + strings.Join(block.HintTerms, ", ")
	}
	queryVec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding block query: %w", err)
	}

	scored := make([]scoredChunk, len(chunks))
	anySignal := false
	for i, ch := range chunks {
		s := cosineSimilarity(queryVec, ch.Vector)
		if s != 0 {
			anySignal = true
		}
		if ch.SectionHint != domain.HintNone && hintMatches(ch.SectionHint, block.Hints) {
			s *= sectionHintBoost
		}
		scored[i] = scoredChunk{chunk: ch, score: s}
	}

	if !anySignal {
		n := r.topK
		if n > len(chunks) {
			n = len(chunks)
		}
		return chunks[:n], nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].chunk.ID < scored[j].chunk.ID
	})
	if len(scored) > r.topN {
		scored = scored[:r.topN]
	}

	selected := mmrSelect(scored, r.lambda, r.topK)

	out := make([]domain.NormalizedChunk, len(selected))
	for i, s := range selected {
		out[i] = s.chunk
	}
	return out, nil
}

func hintMatches(hint domain.SectionHint, hints []domain.SectionHint) bool {
	for _, h := range hints {
		if h == hint {
			return true
		}
	}
	return false
}

// mmrSelect greedily picks k candidates maximising
// lambda*score - (1-lambda)*maxSimToSelected. Selection starts with the
// highest-scoring candidate; ties resolve by original score, then chunk ID.
func mmrSelect(candidates []scoredChunk, lambda float64, k int) []scoredChunk {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}

	pool := make([]scoredChunk, len(candidates))
	copy(pool, candidates)

	// Candidates arrive sorted by score desc, ID asc; the head seeds the
	// selection.
	selected := []scoredChunk{pool[0]}
	pool = pool[1:]

	for len(selected) < k && len(pool) > 0 {
		bestIdx := -1
		bestObjective := math.Inf(-1)
		for i, cand := range pool {
			maxSim := math.Inf(-1)
			for _, sel := range selected {
				sim := cosineSimilarity(cand.chunk.Vector, sel.chunk.Vector)
				if sim > maxSim {
					maxSim = sim
				}
			}
			objective := lambda*cand.score - (1-lambda)*maxSim
			if objective > bestObjective ||
				(objective == bestObjective && betterTie(cand, pool[bestIdx])) {
				bestObjective = objective
				bestIdx = i
			}
		}
		selected = append(selected, pool[bestIdx])
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)
	}
	return selected
}

func betterTie(a, b scoredChunk) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.chunk.ID < b.chunk.ID
}

// cosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector is zero or the dimensions differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
