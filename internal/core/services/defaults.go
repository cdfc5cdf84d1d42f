package services

import (
	"github.com/licitaware/editais-core/internal/core/domain"
)

// Checklist sub-tree shapes filled by the defaulter. Every string key gets
// "", every bool key false, regardless of what the LLM omitted.
var (
	editalKeys   = []string{"orgao", "objeto", "numero", "totalReais", "dataAbertura"}
	prazosKeys   = []string{"dataAbertura", "prazoImpugnacao", "prazoEsclarecimentos", "prazoRecurso", "validadeProposta", "vigenciaContrato"}
	propostaKeys = []string{"validade", "formaApresentacao", "criterioJulgamento"}
	sessaoKeys   = []string{"data", "hora", "plataforma", "modoDisputa", "intervaloLances"}
	outrosKeys   = []string{"mecanismoPagamento", "garantiaContratual", "reajuste", "sancoes"}

	participacaoKeys = []string{"permiteConsorcio", "exclusivaMeEpp", "permiteSubcontratacao", "permiteCooperativa"}
)

// ApplyDefaults walks the checklist schema and inserts typed defaults for
// every missing key, so the persisted document is total regardless of LLM
// omissions. Returns the same map for chaining.
func ApplyDefaults(c domain.Checklist) domain.Checklist {
	if c == nil {
		c = domain.Checklist{}
	}

	ensureStringTree(c, domain.KeyEdital, editalKeys)
	ensureStringTree(c, domain.KeyPrazos, prazosKeys)
	ensureStringTree(c, domain.KeyProposta, propostaKeys)
	ensureStringTree(c, domain.KeySessao, sessaoKeys)
	ensureStringTree(c, domain.KeyOutrosEdital, outrosKeys)
	ensureBoolTree(c, domain.KeyParticipacao, participacaoKeys)

	if _, ok := c[domain.KeyVisitaTecnica]; !ok {
		c[domain.KeyVisitaTecnica] = false
	}
	ensureList(c, domain.KeyRequisitos)
	ensureList(c, domain.KeyDocumentos)

	// documentos is always derivable from requisitos
	docs, _ := c[domain.KeyDocumentos].([]any)
	if reqs, ok := c[domain.KeyRequisitos].([]any); ok && len(docs) == 0 && len(reqs) > 0 {
		c[domain.KeyDocumentos] = domain.RequisitosToDocumentos(reqs)
	}

	ensureString(c, domain.KeyModalidade)
	ensureString(c, domain.KeyResponsavelAnalise)
	ensureString(c, domain.KeyRecomendacao)

	if _, ok := c[domain.KeyPontuacao]; !ok {
		c[domain.KeyPontuacao] = 0
	}
	if _, ok := c[domain.KeySchemaVersion]; !ok {
		c[domain.KeySchemaVersion] = domain.SchemaVersion
	}
	if _, ok := c[domain.KeyEvidence]; !ok {
		c[domain.KeyEvidence] = map[string]any{}
	}
	return c
}

func ensureString(c domain.Checklist, key string) {
	if _, ok := c[key].(string); !ok {
		if _, present := c[key]; !present || c[key] == nil {
			c[key] = ""
		}
	}
}

func ensureList(c domain.Checklist, key string) {
	if _, ok := c[key].([]any); !ok {
		c[key] = []any{}
	}
}

func ensureStringTree(c domain.Checklist, key string, fields []string) {
	sub, ok := c[key].(map[string]any)
	if !ok {
		sub = map[string]any{}
		c[key] = sub
	}
	for _, f := range fields {
		if _, present := sub[f]; !present || sub[f] == nil {
			sub[f] = ""
		}
	}
}

func ensureBoolTree(c domain.Checklist, key string, fields []string) {
	sub, ok := c[key].(map[string]any)
	if !ok {
		sub = map[string]any{}
		c[key] = sub
	}
	for _, f := range fields {
		if _, present := sub[f]; !present || sub[f] == nil {
			sub[f] = false
		}
	}
}
