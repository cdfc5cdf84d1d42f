package services

import (
	"strings"

	"github.com/licitaware/editais-core/internal/core/domain"
)

// Chunker re-segments parser output into overlapping retrieval chunks.
// Chunks honour the configured min/max lengths, prefer sentence boundaries,
// inherit the earliest page of the segments they cover and carry a
// heading-derived section hint.
type Chunker struct {
	minChars int
	maxChars int
	overlap  int
}

// NewChunker creates a Chunker from the pipeline config.
func NewChunker(cfg Config) *Chunker {
	return &Chunker{
		minChars: cfg.ChunkMinChars,
		maxChars: cfg.ChunkMaxChars,
		overlap:  cfg.ChunkOverlapChars,
	}
}

// pageMark records the page active from a given rune offset onward.
type pageMark struct {
	offset int
	page   *int
}

// Chunk converts ordered segments into normalized chunks. Lengths are
// measured in runes so multi-byte Portuguese characters never split.
func (c *Chunker) Chunk(segments []domain.Segment) []domain.NormalizedChunk {
	text, marks := joinSegments(segments)
	if len(text) == 0 {
		return nil
	}

	var chunks []domain.NormalizedChunk
	start := 0
	for start < len(text) {
		end := start + c.maxChars
		last := false
		if end >= len(text) {
			end = len(text)
			last = true
		} else {
			end = c.breakPoint(text, start, end)
		}

		chunkText := string(text[start:end])
		chunks = append(chunks, domain.NormalizedChunk{
			ID:          len(chunks),
			Text:        chunkText,
			PageNumber:  pageAt(marks, start),
			SectionHint: domain.DetectSectionHint(chunkText),
		})

		if last {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// joinSegments concatenates segment texts, inserting a newline where a
// segment does not already end in whitespace, and records which page each
// rune offset belongs to.
func joinSegments(segments []domain.Segment) ([]rune, []pageMark) {
	var sb strings.Builder
	var marks []pageMark
	offset := 0
	for _, seg := range segments {
		if seg.Text == "" {
			continue
		}
		if sb.Len() > 0 && !endsInWhitespace(sb.String()) {
			sb.WriteByte('\n')
			offset++
		}
		marks = append(marks, pageMark{offset: offset, page: seg.PageNumber})
		sb.WriteString(seg.Text)
		offset += len([]rune(seg.Text))
	}
	return []rune(sb.String()), marks
}

func endsInWhitespace(s string) bool {
	if s == "" {
		return false
	}
	r := rune(s[len(s)-1])
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func pageAt(marks []pageMark, offset int) *int {
	var page *int
	for _, m := range marks {
		if m.offset > offset {
			break
		}
		page = m.page
	}
	return page
}

// breakPoint picks where to end a chunk that would otherwise be cut at max.
// It searches backwards from max to start+min for a sentence boundary, then
// for whitespace; only when neither exists does it cut at max. Boundaries
// inside numeric tokens (e.g. "1.234,56") are skipped.
func (c *Chunker) breakPoint(text []rune, start, max int) int {
	floor := start + c.minChars
	if floor > max {
		floor = start + 1
	}

	for i := max; i > floor; i-- {
		r := text[i-1]
		if r == '\n' || r == ';' {
			return i
		}
		if r == '.' && !isMidNumber(text, i-1) {
			return i
		}
	}
	for i := max; i > floor; i-- {
		if text[i-1] == ' ' || text[i-1] == '\t' {
			return i
		}
	}
	return max
}

// isMidNumber reports whether the rune at idx sits between two digits, as in
// the thousands separator of "1.234".
func isMidNumber(text []rune, idx int) bool {
	if idx == 0 || idx+1 >= len(text) {
		return false
	}
	return isDigit(text[idx-1]) && isDigit(text[idx+1])
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
