package parse

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/licitaware/editais-core/internal/core/domain"
	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Parser = (*CSVParser)(nil)

// rowsPerSegment is how many logical rows are grouped into one segment.
const rowsPerSegment = 40

// CSVParser turns a CSV upload into row-group segments. Each row renders as
// "header: value" pairs on one line; segments carry no page number.
type CSVParser struct{}

// NewCSVParser creates a new CSVParser
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Supports reports whether the file name looks like a CSV.
func (p *CSVParser) Supports(fileName string) bool {
	return strings.HasSuffix(strings.ToLower(fileName), ".csv")
}

// Parse reads the CSV and emits one segment per group of rows.
func (p *CSVParser) Parse(ctx context.Context, path, fileName, language string) ([]domain.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var segments []domain.Segment
	var group strings.Builder
	rows := 0

	flush := func() {
		if rows == 0 {
			return
		}
		segments = append(segments, domain.Segment{Text: strings.TrimRight(group.String(), "\n")})
		group.Reset()
		rows = 0
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		group.WriteString(renderRow(header, record))
		group.WriteByte('\n')
		rows++
		if rows >= rowsPerSegment {
			flush()
		}
	}
	flush()

	return segments, nil
}

// renderRow joins a record with its header as "header: value" pairs.
func renderRow(header, record []string) string {
	pairs := make([]string, 0, len(record))
	for i, value := range record {
		if value == "" {
			continue
		}
		if i < len(header) && header[i] != "" {
			pairs = append(pairs, header[i]+": "+value)
		} else {
			pairs = append(pairs, value)
		}
	}
	return strings.Join(pairs, "; ")
}
