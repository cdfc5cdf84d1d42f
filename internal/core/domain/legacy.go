package domain

// Legacy single-call extraction. When block-wise generation is disabled the
// whole checklist is requested in one structured call; leaves are plain
// values without evidence wrappers and the result merges with v2 defaults.

func stringSchema() map[string]any  { return map[string]any{"type": "string"} }
func booleanSchema() map[string]any { return map[string]any{"type": "boolean"} }

// FullChecklistSchema is the schema for the legacy single-call path.
func FullChecklistSchema() map[string]any {
	return objectSchema(map[string]any{
		KeyEdital: objectSchema(map[string]any{
			"orgao":        stringSchema(),
			"objeto":       stringSchema(),
			"numero":       stringSchema(),
			"totalReais":   stringSchema(),
			"dataAbertura": stringSchema(),
		}),
		KeyParticipacao: objectSchema(map[string]any{
			"permiteConsorcio":      booleanSchema(),
			"exclusivaMeEpp":        booleanSchema(),
			"permiteSubcontratacao": booleanSchema(),
			"permiteCooperativa":    booleanSchema(),
		}),
		KeyPrazos: objectSchema(map[string]any{
			"dataAbertura":         stringSchema(),
			"prazoImpugnacao":      stringSchema(),
			"prazoEsclarecimentos": stringSchema(),
			"prazoRecurso":         stringSchema(),
			"validadeProposta":     stringSchema(),
			"vigenciaContrato":     stringSchema(),
		}),
		KeyVisitaTecnica: booleanSchema(),
		KeyRequisitos: map[string]any{
			"type": "array",
			"items": objectSchema(map[string]any{
				"categoria":   stringSchema(),
				"documento":   stringSchema(),
				"referencia":  stringSchema(),
				"obrigatorio": booleanSchema(),
			}, "categoria", "documento"),
		},
		KeyProposta: objectSchema(map[string]any{
			"validade":           stringSchema(),
			"formaApresentacao":  stringSchema(),
			"criterioJulgamento": stringSchema(),
		}),
		KeySessao: objectSchema(map[string]any{
			"data":            stringSchema(),
			"hora":            stringSchema(),
			"plataforma":      stringSchema(),
			"modoDisputa":     stringSchema(),
			"intervaloLances": stringSchema(),
		}),
		KeyOutrosEdital: objectSchema(map[string]any{
			"mecanismoPagamento": stringSchema(),
			"garantiaContratual": stringSchema(),
			"reajuste":           stringSchema(),
			"sancoes":            stringSchema(),
		}),
		KeyModalidade:         stringSchema(),
		KeyResponsavelAnalise: stringSchema(),
		KeyPontuacao:          map[string]any{"type": "integer"},
		KeyRecomendacao:       stringSchema(),
	}, KeyEdital, KeyRequisitos)
}

// LegacyInstruction is the extraction instruction for the single-call path.
const LegacyInstruction = "Preencha o checklist completo do edital a partir do texto fornecido: identificação, condições de participação, prazos, documentos de habilitação, visita técnica e proposta, sessão de disputa, pagamento e contrato, e análise com pontuação de 0 a 100."

// FlattenLegacy coerces the legacy single-call result into the checklist
// shape. There is no evidence side-tree on this path.
func FlattenLegacy(raw map[string]any) Checklist {
	out := Checklist{}
	for k, v := range raw {
		out[k] = v
	}
	if v, ok := out[KeyVisitaTecnica]; ok {
		out[KeyVisitaTecnica] = ParseBoolField(v).Value
	}
	if v, ok := out[KeyPontuacao]; ok {
		out[KeyPontuacao] = ParseIntField(v).Value
	}
	if reqs, ok := out[KeyRequisitos].([]any); ok {
		if _, has := out[KeyDocumentos]; !has {
			out[KeyDocumentos] = RequisitosToDocumentos(reqs)
		}
	}
	return out
}
