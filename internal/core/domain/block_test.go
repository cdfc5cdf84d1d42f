package domain

import "testing"

func TestBlocks_TableShape(t *testing.T) {
	blocks := Blocks()
	if len(blocks) != 8 {
		t.Fatalf("expected 8 blocks, got %d", len(blocks))
	}

	wantOrder := []string{
		BlockEdital, BlockModalidade, BlockPrazos, BlockDocumentos,
		BlockVisitaProp, BlockSessaoDisputa, BlockPagamento, BlockAnalise,
	}
	for i, block := range blocks {
		if block.Key != wantOrder[i] {
			t.Errorf("block %d: expected key %q, got %q", i, wantOrder[i], block.Key)
		}
		if block.Query == "" {
			t.Errorf("block %s: empty query", block.Key)
		}
		if block.Instruction == "" {
			t.Errorf("block %s: empty instruction", block.Key)
		}
		if block.Schema == nil {
			t.Errorf("block %s: nil schema", block.Key)
		}
		if block.Flatten == nil {
			t.Errorf("block %s: nil flatten", block.Key)
		}
		if len(block.Hints) == 0 {
			t.Errorf("block %s: no section hints", block.Key)
		}
	}
}

func TestBlockByKey(t *testing.T) {
	if b := BlockByKey(BlockPrazos); b == nil || b.Key != BlockPrazos {
		t.Errorf("expected prazos block, got %+v", b)
	}
	if b := BlockByKey("nope"); b != nil {
		t.Errorf("expected nil for unknown key, got %+v", b)
	}
}

func TestFlattenEdital(t *testing.T) {
	block := BlockByKey(BlockEdital)
	raw := map[string]any{
		"orgao": map[string]any{
			"value":     "Prefeitura Municipal de X",
			"evidencia": map[string]any{"trecho": "torna público", "page": float64(1)},
		},
		"objeto":              map[string]any{"value": "Aquisição de equipamentos"},
		"totalReais":          map[string]any{"value": "1.234,56"},
		"modalidadeLicitacao": map[string]any{"value": "Pregão Eletrônico"},
	}

	flat, ev := block.Flatten(raw)

	edital, ok := flat[KeyEdital].(map[string]any)
	if !ok {
		t.Fatalf("expected edital sub-tree, got %T", flat[KeyEdital])
	}
	if edital["orgao"] != "Prefeitura Municipal de X" {
		t.Errorf("unexpected orgao: %v", edital["orgao"])
	}
	if flat[KeyModalidade] != "Pregão Eletrônico" {
		t.Errorf("unexpected modalidade: %v", flat[KeyModalidade])
	}

	editalEv, ok := ev[KeyEdital].(map[string]any)
	if !ok {
		t.Fatalf("expected edital evidence tree, got %T", ev[KeyEdital])
	}
	orgaoEv, ok := editalEv["orgao"].(map[string]any)
	if !ok || orgaoEv["trecho"] != "torna público" {
		t.Errorf("unexpected orgao evidence: %v", editalEv["orgao"])
	}
	if _, present := editalEv["objeto"]; present {
		t.Error("objeto has no evidence, none should be recorded")
	}
}

func TestFlattenDocumentos_DerivesGroups(t *testing.T) {
	block := BlockByKey(BlockDocumentos)
	raw := map[string]any{
		"requisitos": []any{
			map[string]any{"categoria": "fiscal", "documento": "CND Federal", "referencia": "9.1", "obrigatorio": true},
			map[string]any{"categoria": "juridica", "documento": "Contrato social", "referencia": "9.2", "obrigatorio": true},
			map[string]any{"categoria": "fiscal", "documento": "CND Estadual", "referencia": "9.3", "obrigatorio": false},
		},
	}

	flat, _ := block.Flatten(raw)

	reqs, ok := flat[KeyRequisitos].([]any)
	if !ok || len(reqs) != 3 {
		t.Fatalf("expected 3 requisitos, got %v", flat[KeyRequisitos])
	}

	docs, ok := flat[KeyDocumentos].([]any)
	if !ok || len(docs) != 2 {
		t.Fatalf("expected 2 categoria groups, got %v", flat[KeyDocumentos])
	}

	first, _ := docs[0].(map[string]any)
	if first["categoria"] != "fiscal" {
		t.Errorf("expected fiscal group first (encounter order), got %v", first["categoria"])
	}
	items, _ := first["itens"].([]any)
	if len(items) != 2 {
		t.Errorf("expected 2 fiscal items, got %d", len(items))
	}
}

func TestRequisitosToDocumentos_EncounterOrder(t *testing.T) {
	reqs := []any{
		map[string]any{"categoria": "tecnica", "documento": "Atestado", "referencia": "10.1"},
		map[string]any{"categoria": "economica", "documento": "Balanço", "referencia": "10.2"},
		map[string]any{"categoria": "tecnica", "documento": "Registro CREA", "referencia": "10.3"},
	}

	docs := RequisitosToDocumentos(reqs)
	if len(docs) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(docs))
	}
	first, _ := docs[0].(map[string]any)
	second, _ := docs[1].(map[string]any)
	if first["categoria"] != "tecnica" || second["categoria"] != "economica" {
		t.Errorf("unexpected group order: %v, %v", first["categoria"], second["categoria"])
	}
}

func TestFullChecklistSchema_CoversTopLevelKeys(t *testing.T) {
	schema := FullChecklistSchema()
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatal("expected properties map")
	}
	for _, key := range []string{
		KeyEdital, KeyParticipacao, KeyPrazos, KeyVisitaTecnica, KeyRequisitos,
		KeyProposta, KeySessao, KeyOutrosEdital, KeyModalidade,
		KeyResponsavelAnalise, KeyPontuacao, KeyRecomendacao,
	} {
		if _, present := props[key]; !present {
			t.Errorf("schema missing top-level key %q", key)
		}
	}
}
