package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// SchemaVersion is the current checklist schema version. Version 2 wraps
// leaf values in {value, evidencia} and normalises requirements into a flat
// requisitos list.
const SchemaVersion = 2

// Top-level checklist keys.
const (
	KeyEdital             = "edital"
	KeyParticipacao       = "participacao"
	KeyPrazos             = "prazos"
	KeyVisitaTecnica      = "visitaTecnica"
	KeyDocumentos         = "documentos"
	KeyRequisitos         = "requisitos"
	KeyProposta           = "proposta"
	KeySessao             = "sessao"
	KeyOutrosEdital       = "outrosEdital"
	KeyModalidade         = "modalidadeLicitacao"
	KeySchemaVersion      = "schemaVersion"
	KeyEvidence           = "evidence"
	KeyResponsavelAnalise = "responsavelAnalise"
	KeyPontuacao          = "pontuacao"
	KeyRecomendacao       = "recomendacao"
)

// Evidence quotes the source passage a field was extracted from.
type Evidence struct {
	Trecho string `json:"trecho"`
	Ref    string `json:"ref,omitempty"`
	Page   *int   `json:"page,omitempty"`
}

// Field is a string-valued checklist leaf with optional evidence.
type Field struct {
	Value    string
	Evidence *Evidence
}

// BoolField is a boolean checklist leaf with optional evidence.
type BoolField struct {
	Value    bool
	Evidence *Evidence
}

// IntField is an integer checklist leaf with optional evidence.
type IntField struct {
	Value    int
	Evidence *Evidence
}

// ParseField converts an untyped LLM leaf into a Field. It accepts a bare
// string or a {value, evidencia} object; anything else yields a zero Field.
func ParseField(v any) Field {
	switch t := v.(type) {
	case string:
		return Field{Value: t}
	case map[string]any:
		f := Field{Evidence: parseEvidence(t)}
		if s, ok := leafValue(t).(string); ok {
			f.Value = s
		}
		return f
	}
	return Field{}
}

// ParseBoolField converts an untyped LLM leaf into a BoolField. Bare bools,
// truthy strings and {value, evidencia} objects are accepted.
func ParseBoolField(v any) BoolField {
	switch t := v.(type) {
	case bool:
		return BoolField{Value: t}
	case string:
		return BoolField{Value: TruthyString(t)}
	case map[string]any:
		f := BoolField{Evidence: parseEvidence(t)}
		switch val := leafValue(t).(type) {
		case bool:
			f.Value = val
		case string:
			f.Value = TruthyString(val)
		}
		return f
	}
	return BoolField{}
}

// ParseIntField converts an untyped LLM leaf into an IntField. JSON numbers
// decode as float64; numeric strings are tolerated.
func ParseIntField(v any) IntField {
	switch t := v.(type) {
	case float64:
		return IntField{Value: int(t)}
	case int:
		return IntField{Value: t}
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return IntField{Value: n}
	case map[string]any:
		f := IntField{Evidence: parseEvidence(t)}
		switch val := leafValue(t).(type) {
		case float64:
			f.Value = int(val)
		case int:
			f.Value = val
		case string:
			f.Value, _ = strconv.Atoi(strings.TrimSpace(val))
		}
		return f
	}
	return IntField{}
}

// TruthyString maps the boolean spellings the LLM produces onto bool.
// "true", "sim", "yes" and "1" are true; "false", "não", "nao", "no", "0"
// and the empty string are false. Any other non-empty string is true.
func TruthyString(s string) bool {
	switch s {
	case "", "false", "não", "nao", "no", "0":
		return false
	default:
		return true
	}
}

// leafValue returns the value slot of a {value, evidencia} object, accepting
// both English and Portuguese spellings.
func leafValue(m map[string]any) any {
	if v, ok := m["value"]; ok {
		return v
	}
	return m["valor"]
}

func parseEvidence(m map[string]any) *Evidence {
	raw, ok := m["evidencia"]
	if !ok {
		raw, ok = m["evidence"]
	}
	em, isMap := raw.(map[string]any)
	if !ok || !isMap {
		return nil
	}
	ev := &Evidence{}
	if s, ok := em["trecho"].(string); ok {
		ev.Trecho = s
	}
	if s, ok := em["ref"].(string); ok {
		ev.Ref = s
	}
	if p, ok := em["page"].(float64); ok {
		page := int(p)
		ev.Page = &page
	}
	if ev.Trecho == "" && ev.Ref == "" && ev.Page == nil {
		return nil
	}
	return ev
}

// EvidenceTree converts an Evidence into the map shape stored under the
// checklist's evidence sub-tree.
func (e *Evidence) EvidenceTree() map[string]any {
	if e == nil {
		return nil
	}
	m := map[string]any{"trecho": e.Trecho}
	if e.Ref != "" {
		m["ref"] = e.Ref
	}
	if e.Page != nil {
		m["page"] = *e.Page
	}
	return m
}

// Checklist is the merged, defaulted, normalised result of one ingestion.
// It is a dynamic JSON tree; the defaulter guarantees every schema-v2 key is
// present with the right type before persistence.
type Checklist map[string]any

// StringAt walks the tree along path and returns the string leaf, or "".
func (c Checklist) StringAt(path ...string) string {
	var cur any = map[string]any(c)
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[p]
	}
	s, _ := cur.(string)
	return s
}

// IntAt walks the tree along path and returns the integer leaf, or 0.
func (c Checklist) IntAt(path ...string) int {
	var cur any = map[string]any(c)
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return 0
		}
		cur = m[p]
	}
	switch v := cur.(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// BlockResult is one block's LLM response, parsed but not yet flattened.
type BlockResult struct {
	Key string
	Raw map[string]any
}

// ChecklistRow is the persistent checklist record. The scalar columns are
// denormalised out of Data for cheap browsing queries.
type ChecklistRow struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FileName   string    `json:"file_name"`
	Data       Checklist `json:"data"`
	Pontuacao  *int      `json:"pontuacao,omitempty"`
	Orgao      string    `json:"orgao,omitempty"`
	Objeto     string    `json:"objeto,omitempty"`
	ValorTotal string    `json:"valor_total,omitempty"`
	DocumentID string    `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewChecklistRow builds a row for insertion, extracting the browsing
// scalars from the checklist data.
func NewChecklistRow(id, userID, fileName, documentID string, data Checklist) *ChecklistRow {
	row := &ChecklistRow{
		ID:         id,
		UserID:     userID,
		FileName:   fileName,
		Data:       data,
		DocumentID: documentID,
		Orgao:      data.StringAt(KeyEdital, "orgao"),
		Objeto:     data.StringAt(KeyEdital, "objeto"),
	}
	if v := data.StringAt(KeyEdital, "totalReais"); v != "" {
		row.ValorTotal = v
	} else {
		row.ValorTotal = data.StringAt(KeyEdital, "valorTotal")
	}
	if _, ok := data[KeyPontuacao]; ok {
		p := data.IntAt(KeyPontuacao)
		row.Pontuacao = &p
	}
	return row
}

// MarshalData serialises the checklist tree for the JSONB column.
func (r *ChecklistRow) MarshalData() ([]byte, error) {
	return json.Marshal(r.Data)
}
