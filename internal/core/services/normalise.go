package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/licitaware/editais-core/internal/core/domain"
)

// Normalise applies the post-extraction cleanup passes in a fixed order:
// date coercion, monetary formatting, boolean enforcement, document list
// deduplication and payment-mechanism sanitisation. The evidence sub-tree
// is never touched. Normalise is idempotent.
func Normalise(c domain.Checklist) domain.Checklist {
	if c == nil {
		return c
	}
	walkDataStrings(c, normaliseDateString)
	walkDataStrings(c, normaliseMoneyString)
	normaliseBooleans(c)
	dedupDocumentos(c)
	sanitisePayment(c)
	return c
}

// walkDataStrings rewrites every string leaf of the checklist data tree,
// skipping the evidence side-tree.
func walkDataStrings(c domain.Checklist, fn func(string) string) {
	for key, value := range c {
		if key == domain.KeyEvidence {
			continue
		}
		c[key] = mapStrings(value, fn)
	}
}

func mapStrings(v any, fn func(string) string) any {
	switch typed := v.(type) {
	case string:
		return fn(typed)
	case map[string]any:
		for k, inner := range typed {
			typed[k] = mapStrings(inner, fn)
		}
		return typed
	case []any:
		for i, inner := range typed {
			typed[i] = mapStrings(inner, fn)
		}
		return typed
	}
	return v
}

// ---- dates ----

var (
	reDateCanonical = regexp.MustCompile(`^\s*(\d{1,2})/(\d{1,2})/(\d{4})\s*$`)
	reDateISO       = regexp.MustCompile(`^\s*(\d{4})-(\d{1,2})-(\d{1,2})\s*$`)
	reDateDashed    = regexp.MustCompile(`^\s*(\d{1,2})-(\d{1,2})-(\d{4})\s*$`)
	reDateWritten   = regexp.MustCompile(`(?i)^\s*(\d{1,2})\s+de\s+([a-zçã]+)\s+de\s+(\d{4})\s*$`)
)

var monthNumbers = map[string]int{
	"janeiro": 1, "fevereiro": 2, "março": 3, "marco": 3, "abril": 4,
	"maio": 5, "junho": 6, "julho": 7, "agosto": 8, "setembro": 9,
	"outubro": 10, "novembro": 11, "dezembro": 12,
}

// normaliseDateString rewrites recognised date spellings to DD/MM/YYYY.
// Unparseable values pass through unchanged.
func normaliseDateString(s string) string {
	if m := reDateCanonical.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s/%s/%s", pad2(m[1]), pad2(m[2]), m[3])
	}
	if m := reDateISO.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s/%s/%s", pad2(m[3]), pad2(m[2]), m[1])
	}
	if m := reDateDashed.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s/%s/%s", pad2(m[1]), pad2(m[2]), m[3])
	}
	if m := reDateWritten.FindStringSubmatch(s); m != nil {
		month, ok := monthNumbers[strings.ToLower(m[2])]
		if !ok {
			return s
		}
		return fmt.Sprintf("%s/%02d/%s", pad2(m[1]), month, m[3])
	}
	return s
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// ---- money ----

var reMoney = regexp.MustCompile(`^\s*\d{1,3}(\.\d{3})*,\d{2}\s*$`)

// normaliseMoneyString prefixes bare Brazilian monetary amounts with "R$ ".
// Values already prefixed do not match the pattern and pass through.
func normaliseMoneyString(s string) string {
	if reMoney.MatchString(s) {
		return "R$ " + strings.TrimSpace(s)
	}
	return s
}

// ---- booleans ----

// normaliseBooleans enforces bool typing on the schema's boolean fields:
// participacao.*, visitaTecnica and requisitos[].obrigatorio.
func normaliseBooleans(c domain.Checklist) {
	if sub, ok := c[domain.KeyParticipacao].(map[string]any); ok {
		for k, v := range sub {
			sub[k] = coerceBool(v)
		}
	}
	if v, ok := c[domain.KeyVisitaTecnica]; ok {
		c[domain.KeyVisitaTecnica] = coerceBool(v)
	}
	if reqs, ok := c[domain.KeyRequisitos].([]any); ok {
		for _, r := range reqs {
			if m, ok := r.(map[string]any); ok {
				if v, present := m["obrigatorio"]; present {
					m["obrigatorio"] = coerceBool(v)
				}
			}
		}
	}
}

func coerceBool(v any) bool {
	switch typed := v.(type) {
	case bool:
		return typed
	case string:
		return domain.TruthyString(strings.ToLower(strings.TrimSpace(typed)))
	case float64:
		return typed != 0
	case int:
		return typed != 0
	}
	return false
}

// ---- document deduplication ----

// dedupDocumentos removes duplicate items within each documentos group,
// keyed by (documento, referencia), keeping the first occurrence.
func dedupDocumentos(c domain.Checklist) {
	docs, ok := c[domain.KeyDocumentos].([]any)
	if !ok {
		return
	}
	for _, d := range docs {
		group, ok := d.(map[string]any)
		if !ok {
			continue
		}
		items, ok := group["itens"].([]any)
		if !ok {
			continue
		}
		seen := map[string]bool{}
		deduped := make([]any, 0, len(items))
		for _, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				deduped = append(deduped, it)
				continue
			}
			doc, _ := m["documento"].(string)
			ref, _ := m["referencia"].(string)
			key := doc + "\x00" + ref
			if seen[key] {
				continue
			}
			seen[key] = true
			deduped = append(deduped, it)
		}
		group["itens"] = deduped
	}
}

// ---- payment mechanism sanitisation ----

// paymentJunkRes detect JSON-evidence fragments the LLM sometimes appends to
// the payment mechanism text.
var paymentJunkRes = []*regexp.Regexp{
	regexp.MustCompile(`[,'"]\s*["']?evidencia["']?\s*[:{]`),
	regexp.MustCompile(`["']?trecho["']?\s*:`),
}

const paymentMaxLen = 600

// sanitisePayment strips trailing evidence fragments and dangling JSON
// punctuation from outrosEdital.mecanismoPagamento, then truncates long
// values to paymentMaxLen runes including the ellipsis.
func sanitisePayment(c domain.Checklist) {
	sub, ok := c[domain.KeyOutrosEdital].(map[string]any)
	if !ok {
		return
	}
	s, ok := sub["mecanismoPagamento"].(string)
	if !ok {
		return
	}

	cut := len(s)
	for _, re := range paymentJunkRes {
		if loc := re.FindStringIndex(s); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	s = s[:cut]
	s = strings.TrimRight(s, "{}`'\",:; \t\n")

	runes := []rune(s)
	if len(runes) > paymentMaxLen {
		s = string(runes[:paymentMaxLen-3]) + "..."
	}
	sub["mecanismoPagamento"] = s
}
