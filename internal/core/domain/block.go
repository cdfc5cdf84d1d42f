package domain

// FlattenFunc projects a raw block result into the shared checklist shape,
// returning the data contribution and the matching evidence tree.
type FlattenFunc func(raw map[string]any) (flat map[string]any, evidence map[string]any)

// ChecklistBlock is one of the eight fixed semantic partitions of the
// checklist. Blocks are data, not behaviour: each carries its retrieval
// query, hint tags, output schema and flatten projection.
type ChecklistBlock struct {
	// Key identifies the block and keys its evidence sub-tree
	Key string

	// Query is the canonical retrieval query (Portuguese)
	Query string

	// Hints are the section-hint tags that boost matching chunks
	Hints []SectionHint

	// HintTerms expand the query with block-specific vocabulary
	HintTerms []string

	// Instruction is the per-block extraction instruction for the LLM
	Instruction string

	// Schema is the JSON schema constraining the block output
	Schema map[string]any

	// Flatten projects the block result into the checklist shape
	Flatten FlattenFunc
}

// Block keys, in merge order.
const (
	BlockEdital        = "edital"
	BlockModalidade    = "modalidade_participacao"
	BlockPrazos        = "prazos"
	BlockDocumentos    = "documentos"
	BlockVisitaProp    = "visita_proposta"
	BlockSessaoDisputa = "sessao_disputa"
	BlockPagamento     = "pagamento_contrato"
	BlockAnalise       = "analise"
)

// Blocks returns the eight checklist blocks in the fixed merge order.
// The order is part of the contract: overlapping keys resolve in favour of
// the earliest non-empty contribution.
func Blocks() []ChecklistBlock {
	return checklistBlocks
}

// BlockByKey returns the block with the given key, or nil.
func BlockByKey(key string) *ChecklistBlock {
	for i := range checklistBlocks {
		if checklistBlocks[i].Key == key {
			return &checklistBlocks[i]
		}
	}
	return nil
}

// ---- schema building blocks ----

func evidenceSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"trecho": map[string]any{"type": "string"},
			"ref":    map[string]any{"type": "string"},
			"page":   map[string]any{"type": "integer"},
		},
	}
}

func fieldSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value":     map[string]any{"type": "string"},
			"evidencia": evidenceSchema(),
		},
		"required": []string{"value"},
	}
}

func boolFieldSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value":     map[string]any{"type": "boolean"},
			"evidencia": evidenceSchema(),
		},
		"required": []string{"value"},
	}
}

func intFieldSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value":     map[string]any{"type": "integer"},
			"evidencia": evidenceSchema(),
		},
		"required": []string{"value"},
	}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// ---- flatten helpers ----

// flattenFields projects the named Field leaves of raw into plain strings,
// collecting each leaf's evidence alongside.
func flattenFields(raw map[string]any, keys ...string) (map[string]any, map[string]any) {
	flat := map[string]any{}
	ev := map[string]any{}
	for _, k := range keys {
		f := ParseField(raw[k])
		flat[k] = f.Value
		if t := f.Evidence.EvidenceTree(); t != nil {
			ev[k] = t
		}
	}
	return flat, ev
}

func flattenBoolFields(raw map[string]any, keys ...string) (map[string]any, map[string]any) {
	flat := map[string]any{}
	ev := map[string]any{}
	for _, k := range keys {
		f := ParseBoolField(raw[k])
		flat[k] = f.Value
		if t := f.Evidence.EvidenceTree(); t != nil {
			ev[k] = t
		}
	}
	return flat, ev
}

// RequisitosToDocumentos groups flat requirement records by categoria,
// preserving encounter order of both categories and items.
func RequisitosToDocumentos(requisitos []any) []any {
	var order []string
	grouped := map[string][]any{}
	for _, r := range requisitos {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		cat, _ := m["categoria"].(string)
		if _, seen := grouped[cat]; !seen {
			order = append(order, cat)
		}
		item := map[string]any{}
		if v, ok := m["documento"]; ok {
			item["documento"] = v
		}
		if v, ok := m["referencia"]; ok {
			item["referencia"] = v
		}
		grouped[cat] = append(grouped[cat], item)
	}
	docs := make([]any, 0, len(order))
	for _, cat := range order {
		docs = append(docs, map[string]any{
			"categoria": cat,
			"itens":     grouped[cat],
		})
	}
	return docs
}

// ---- the block table ----

var checklistBlocks = []ChecklistBlock{
	{
		Key:   BlockEdital,
		Query: "Identificação do edital: órgão licitante, objeto da licitação, número do edital, valor total estimado e data de abertura",
		Hints: []SectionHint{HintEdital},
		HintTerms: []string{
			"órgão", "objeto", "número do edital", "valor estimado", "preâmbulo",
		},
		Instruction: "Extraia a identificação do edital: órgão responsável, objeto licitado, número do edital, valor total estimado em reais, data de abertura e modalidade de licitação.",
		Schema: objectSchema(map[string]any{
			"orgao":               fieldSchema(),
			"objeto":              fieldSchema(),
			"numero":              fieldSchema(),
			"totalReais":          fieldSchema(),
			"dataAbertura":        fieldSchema(),
			"modalidadeLicitacao": fieldSchema(),
		}, "orgao", "objeto"),
		Flatten: flattenEdital,
	},
	{
		Key:   BlockModalidade,
		Query: "Modalidade de participação: participação de consórcios, exclusividade para ME/EPP, subcontratação e cooperativas",
		Hints: []SectionHint{HintModalidade, HintEdital},
		HintTerms: []string{
			"consórcio", "ME/EPP", "microempresa", "subcontratação", "cooperativa", "participação",
		},
		Instruction: "Determine as condições de participação: se consórcios podem participar, se a disputa é exclusiva para ME/EPP, se há permissão de subcontratação e se cooperativas podem participar. Informe também a modalidade da licitação.",
		Schema: objectSchema(map[string]any{
			"modalidadeLicitacao":   fieldSchema(),
			"permiteConsorcio":      boolFieldSchema(),
			"exclusivaMeEpp":        boolFieldSchema(),
			"permiteSubcontratacao": boolFieldSchema(),
			"permiteCooperativa":    boolFieldSchema(),
		}),
		Flatten: flattenModalidade,
	},
	{
		Key:   BlockPrazos,
		Query: "Prazos do edital: data de abertura, prazo de impugnação, prazo para esclarecimentos, prazo recursal, validade da proposta e vigência do contrato",
		Hints: []SectionHint{HintPrazos},
		HintTerms: []string{
			"impugnação", "esclarecimentos", "recurso", "validade da proposta", "vigência",
		},
		Instruction: "Extraia os prazos do edital: data de abertura da sessão, prazo para impugnação, prazo para pedidos de esclarecimento, prazo recursal, validade da proposta e vigência do contrato.",
		Schema: objectSchema(map[string]any{
			"dataAbertura":         fieldSchema(),
			"prazoImpugnacao":      fieldSchema(),
			"prazoEsclarecimentos": fieldSchema(),
			"prazoRecurso":         fieldSchema(),
			"validadeProposta":     fieldSchema(),
			"vigenciaContrato":     fieldSchema(),
		}),
		Flatten: flattenPrazos,
	},
	{
		Key:   BlockDocumentos,
		Query: "Documentos de habilitação exigidos: habilitação jurídica, regularidade fiscal e trabalhista, qualificação técnica e qualificação econômico-financeira",
		Hints: []SectionHint{HintDocumentos},
		HintTerms: []string{
			"habilitação jurídica", "regularidade fiscal", "qualificação técnica",
			"qualificação econômico-financeira", "certidão", "atestado",
		},
		Instruction: "Liste todos os documentos de habilitação exigidos. Para cada documento informe a categoria (juridica, fiscal, tecnica, economica ou outra), o nome do documento, a referência no edital (item/cláusula) e se é obrigatório.",
		Schema: objectSchema(map[string]any{
			"requisitos": map[string]any{
				"type": "array",
				"items": objectSchema(map[string]any{
					"categoria":   map[string]any{"type": "string"},
					"documento":   map[string]any{"type": "string"},
					"referencia":  map[string]any{"type": "string"},
					"obrigatorio": map[string]any{"type": "boolean"},
					"evidencia":   evidenceSchema(),
				}, "categoria", "documento"),
			},
		}, "requisitos"),
		Flatten: flattenDocumentos,
	},
	{
		Key:   BlockVisitaProp,
		Query: "Visita técnica e proposta: obrigatoriedade de visita técnica, validade da proposta, forma de apresentação e critério de julgamento",
		Hints: []SectionHint{HintProposta},
		HintTerms: []string{
			"visita técnica", "vistoria", "validade da proposta", "critério de julgamento", "menor preço",
		},
		Instruction: "Informe se há visita técnica (e se é obrigatória), a validade da proposta, a forma de apresentação da proposta e o critério de julgamento.",
		Schema: objectSchema(map[string]any{
			"visitaTecnica":     boolFieldSchema(),
			"validade":          fieldSchema(),
			"formaApresentacao": fieldSchema(),
			"criterioJulgamento": fieldSchema(),
		}),
		Flatten: flattenVisitaProposta,
	},
	{
		Key:   BlockSessaoDisputa,
		Query: "Sessão de disputa: data e hora da sessão pública, plataforma eletrônica, modo de disputa e intervalo mínimo entre lances",
		Hints: []SectionHint{HintSessaoDisputa},
		HintTerms: []string{
			"sessão pública", "lances", "modo de disputa", "aberto", "fechado", "plataforma",
		},
		Instruction: "Extraia os dados da sessão de disputa: data, hora, plataforma eletrônica utilizada, modo de disputa (aberto, fechado, aberto e fechado) e intervalo mínimo entre lances.",
		Schema: objectSchema(map[string]any{
			"data":            fieldSchema(),
			"hora":            fieldSchema(),
			"plataforma":      fieldSchema(),
			"modoDisputa":     fieldSchema(),
			"intervaloLances": fieldSchema(),
		}),
		Flatten: flattenSessao,
	},
	{
		Key:   BlockPagamento,
		Query: "Pagamento e contrato: mecanismo e condições de pagamento, garantia contratual, reajuste de preços e sanções",
		Hints: []SectionHint{HintPagamento},
		HintTerms: []string{
			"condições de pagamento", "nota fiscal", "garantia contratual", "reajuste", "sanções", "multa",
		},
		Instruction: "Descreva o mecanismo de pagamento (condições e prazos), a garantia contratual exigida, a regra de reajuste de preços e as sanções previstas.",
		Schema: objectSchema(map[string]any{
			"mecanismoPagamento": fieldSchema(),
			"garantiaContratual": fieldSchema(),
			"reajuste":           fieldSchema(),
			"sancoes":            fieldSchema(),
		}),
		Flatten: flattenPagamento,
	},
	{
		Key:   BlockAnalise,
		Query: "Análise do edital: responsável pela análise, pontuação de aderência e recomendação de participação",
		Hints: []SectionHint{HintAnalise},
		HintTerms: []string{
			"pontuação", "julgamento", "critérios de avaliação", "recomendação",
		},
		Instruction: "Com base no conteúdo analisado, atribua uma pontuação de 0 a 100 para a clareza e completude do edital, identifique o responsável pela análise quando citado e produza uma recomendação sucinta.",
		Schema: objectSchema(map[string]any{
			"responsavelAnalise": fieldSchema(),
			"pontuacao":          intFieldSchema(),
			"recomendacao":       fieldSchema(),
		}, "pontuacao"),
		Flatten: flattenAnalise,
	},
}

func flattenEdital(raw map[string]any) (map[string]any, map[string]any) {
	flat, ev := flattenFields(raw, "orgao", "objeto", "numero", "totalReais", "dataAbertura")
	modalidade := ParseField(raw["modalidadeLicitacao"])

	out := map[string]any{
		KeyEdital:     flat,
		KeyModalidade: modalidade.Value,
	}
	outEv := map[string]any{KeyEdital: ev}
	if t := modalidade.Evidence.EvidenceTree(); t != nil {
		outEv[KeyModalidade] = t
	}
	return out, outEv
}

func flattenModalidade(raw map[string]any) (map[string]any, map[string]any) {
	flat, ev := flattenBoolFields(raw,
		"permiteConsorcio", "exclusivaMeEpp", "permiteSubcontratacao", "permiteCooperativa")
	modalidade := ParseField(raw["modalidadeLicitacao"])

	out := map[string]any{
		KeyParticipacao: flat,
		KeyModalidade:   modalidade.Value,
	}
	outEv := map[string]any{KeyParticipacao: ev}
	if t := modalidade.Evidence.EvidenceTree(); t != nil {
		outEv[KeyModalidade] = t
	}
	return out, outEv
}

func flattenPrazos(raw map[string]any) (map[string]any, map[string]any) {
	flat, ev := flattenFields(raw,
		"dataAbertura", "prazoImpugnacao", "prazoEsclarecimentos",
		"prazoRecurso", "validadeProposta", "vigenciaContrato")
	return map[string]any{KeyPrazos: flat}, map[string]any{KeyPrazos: ev}
}

func flattenDocumentos(raw map[string]any) (map[string]any, map[string]any) {
	items, _ := raw["requisitos"].([]any)

	requisitos := make([]any, 0, len(items))
	evidence := make([]any, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		req := map[string]any{
			"categoria":   ParseField(m["categoria"]).Value,
			"documento":   ParseField(m["documento"]).Value,
			"referencia":  ParseField(m["referencia"]).Value,
			"obrigatorio": ParseBoolField(m["obrigatorio"]).Value,
		}
		requisitos = append(requisitos, req)
		if em, isMap := m["evidencia"].(map[string]any); isMap {
			evidence = append(evidence, em)
		} else {
			evidence = append(evidence, nil)
		}
	}

	out := map[string]any{
		KeyRequisitos: requisitos,
		KeyDocumentos: RequisitosToDocumentos(requisitos),
	}
	return out, map[string]any{KeyRequisitos: evidence}
}

func flattenVisitaProposta(raw map[string]any) (map[string]any, map[string]any) {
	visita := ParseBoolField(raw["visitaTecnica"])
	flat, ev := flattenFields(raw, "validade", "formaApresentacao", "criterioJulgamento")

	out := map[string]any{
		KeyVisitaTecnica: visita.Value,
		KeyProposta:      flat,
	}
	outEv := map[string]any{KeyProposta: ev}
	if t := visita.Evidence.EvidenceTree(); t != nil {
		outEv[KeyVisitaTecnica] = t
	}
	return out, outEv
}

func flattenSessao(raw map[string]any) (map[string]any, map[string]any) {
	flat, ev := flattenFields(raw, "data", "hora", "plataforma", "modoDisputa", "intervaloLances")
	return map[string]any{KeySessao: flat}, map[string]any{KeySessao: ev}
}

func flattenPagamento(raw map[string]any) (map[string]any, map[string]any) {
	flat, ev := flattenFields(raw, "mecanismoPagamento", "garantiaContratual", "reajuste", "sancoes")
	return map[string]any{KeyOutrosEdital: flat}, map[string]any{KeyOutrosEdital: ev}
}

func flattenAnalise(raw map[string]any) (map[string]any, map[string]any) {
	responsavel := ParseField(raw["responsavelAnalise"])
	pontuacao := ParseIntField(raw["pontuacao"])
	recomendacao := ParseField(raw["recomendacao"])

	out := map[string]any{
		KeyResponsavelAnalise: responsavel.Value,
		KeyPontuacao:          pontuacao.Value,
		KeyRecomendacao:       recomendacao.Value,
	}
	outEv := map[string]any{}
	if t := responsavel.Evidence.EvidenceTree(); t != nil {
		outEv[KeyResponsavelAnalise] = t
	}
	if t := pontuacao.Evidence.EvidenceTree(); t != nil {
		outEv[KeyPontuacao] = t
	}
	if t := recomendacao.Evidence.EvidenceTree(); t != nil {
		outEv[KeyRecomendacao] = t
	}
	return out, outEv
}
