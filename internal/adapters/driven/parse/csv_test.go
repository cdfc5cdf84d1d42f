package parse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planilha.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	return path
}

func TestCSVParser_Supports(t *testing.T) {
	p := NewCSVParser()
	if !p.Supports("planilha.csv") || !p.Supports("PLANILHA.CSV") {
		t.Error("expected csv files supported")
	}
	if p.Supports("edital.pdf") {
		t.Error("pdf should not be supported")
	}
}

func TestCSVParser_RowGroups(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("item,quantidade\n")
	for i := 0; i < rowsPerSegment*2+5; i++ {
		fmt.Fprintf(&sb, "Item %d,%d\n", i, i*10)
	}
	path := writeTempCSV(t, sb.String())

	p := NewCSVParser()
	segments, err := p.Parse(context.Background(), path, "planilha.csv", "por")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(segments) != 3 {
		t.Fatalf("expected 3 row-group segments, got %d", len(segments))
	}
	for i, seg := range segments {
		if seg.PageNumber != nil {
			t.Errorf("segment %d: expected nil page, got %d", i, *seg.PageNumber)
		}
	}
	if !strings.Contains(segments[0].Text, "item: Item 0") {
		t.Errorf("expected header-labelled rows, got %q", segments[0].Text[:80])
	}
}

func TestCSVParser_EmptyValuesSkipped(t *testing.T) {
	path := writeTempCSV(t, "a,b,c\nx,,z\n")

	p := NewCSVParser()
	segments, err := p.Parse(context.Background(), path, "planilha.csv", "por")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Text != "a: x; c: z" {
		t.Errorf("unexpected row rendering: %q", segments[0].Text)
	}
}

func TestCSVParser_HeaderOnly(t *testing.T) {
	path := writeTempCSV(t, "a,b,c\n")

	p := NewCSVParser()
	segments, err := p.Parse(context.Background(), path, "planilha.csv", "por")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 0 {
		t.Errorf("expected no segments for header-only file, got %d", len(segments))
	}
}

func TestRegistry_DispatchByExtension(t *testing.T) {
	r := NewRegistry()

	if !r.Supports("edital.pdf") || !r.Supports("planilha.csv") {
		t.Error("registry should support pdf and csv")
	}

	// CSV dispatch goes to the CSV parser
	path := writeTempCSV(t, "a\nx\n")
	segments, err := r.Parse(context.Background(), path, "planilha.csv", "por")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 1 || segments[0].Text != "a: x" {
		t.Errorf("unexpected csv dispatch result: %+v", segments)
	}
}

func TestRegistry_FallsBackToPDF(t *testing.T) {
	r := NewRegistry()
	// Presigned URLs often lack an extension; the registry must still pick
	// a parser rather than reject the file.
	if !r.Supports("download") {
		t.Error("expected fallback parser for extensionless names")
	}
}
