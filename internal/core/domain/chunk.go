package domain

import "regexp"

// Segment is one ordered piece of parser output. PDFs yield one or more
// segments per page; CSVs yield one segment per row group with no page.
type Segment struct {
	Text       string `json:"text"`
	PageNumber *int   `json:"page_number,omitempty"`
}

// SectionHint is a heading-derived tag on a chunk, drawn from a closed set.
// It is used to match chunks to checklist blocks during retrieval.
type SectionHint string

const (
	HintDocumentos    SectionHint = "documentos"
	HintPrazos        SectionHint = "prazos"
	HintSessaoDisputa SectionHint = "sessao_disputa"
	HintProposta      SectionHint = "proposta"
	HintPagamento     SectionHint = "pagamento"
	HintAnalise       SectionHint = "analise"
	HintEdital        SectionHint = "edital"
	HintModalidade    SectionHint = "modalidade"
	HintNone          SectionHint = ""
)

// NormalizedChunk is an in-process retrieval unit produced by the chunker.
// The Vector is filled in once the embedder has run.
type NormalizedChunk struct {
	ID          int
	Text        string
	PageNumber  *int
	SectionHint SectionHint
	Vector      []float32
}

// heading builds a case-insensitive pattern anchored to line starts,
// tolerating the numbered "10.2 - DA DOCUMENTAÇÃO" style common in editais.
func heading(alt string) *regexp.Regexp {
	return regexp.MustCompile(`(?mi)^[ \t]*(?:[0-9IVXL]+(?:\.[0-9]+)*[ \t]*[-–.)]?[ \t]*)?(?:D[AEO]S?[ \t]+)?(?:` + alt + `)`)
}

// sectionHintPatterns is scanned in order; the first matching pattern wins.
var sectionHintPatterns = []struct {
	hint SectionHint
	re   *regexp.Regexp
}{
	{HintDocumentos, heading(`DOCUMENTA[ÇC][ÃA]O|HABILITA[ÇC][ÃA]O`)},
	{HintPrazos, heading(`PRAZOS?\b|IMPUGNA[ÇC][ÃA]O|ESCLARECIMENTOS?\b`)},
	{HintSessaoDisputa, heading(`SESS[ÃA]O|DISPUTA|LANCES`)},
	{HintProposta, heading(`PROPOSTA`)},
	{HintPagamento, heading(`PAGAMENTO|DOTA[ÇC][ÃA]O OR[ÇC]AMENT[ÁA]RIA`)},
	{HintAnalise, heading(`PONTUA[ÇC][ÃA]O|JULGAMENTO`)},
	{HintModalidade, heading(`MODALIDADE|PREG[ÃA]O|CONCORR[ÊE]NCIA`)},
	{HintEdital, heading(`EDITAL|OBJETO`)},
}

// DetectSectionHint scans text for heading patterns and returns the hint of
// the first pattern that matches, or HintNone.
func DetectSectionHint(text string) SectionHint {
	for _, p := range sectionHintPatterns {
		if p.re.MatchString(text) {
			return p.hint
		}
	}
	return HintNone
}
