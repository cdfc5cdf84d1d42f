package services

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licitaware/editais-core/internal/core/domain"
	"github.com/licitaware/editais-core/internal/core/ports/driven/mocks"
)

// cannedBlockResponses satisfies every block schema with plausible content.
func cannedBlockResponses() map[string]map[string]any {
	return map[string]map[string]any{
		domain.BlockEdital: {
			"orgao": map[string]any{
				"value":     "Prefeitura Municipal de X",
				"evidencia": map[string]any{"trecho": "torna público", "page": float64(1)},
			},
			"objeto":     map[string]any{"value": "Aquisição de equipamentos"},
			"totalReais": map[string]any{"value": "1.234,56"},
		},
		domain.BlockModalidade: {
			"modalidadeLicitacao": map[string]any{"value": "Pregão Eletrônico"},
			"exclusivaMeEpp":      map[string]any{"value": true},
		},
		domain.BlockPrazos: {
			"dataAbertura": map[string]any{"value": "2024-05-01"},
		},
		domain.BlockDocumentos: {
			"requisitos": []any{
				map[string]any{"categoria": "fiscal", "documento": "CND Federal", "referencia": "9.1", "obrigatorio": true},
			},
		},
		domain.BlockVisitaProp: {
			"visitaTecnica": map[string]any{"value": false},
		},
		domain.BlockSessaoDisputa: {
			"plataforma": map[string]any{"value": "Comprasnet"},
		},
		domain.BlockPagamento: {
			"mecanismoPagamento": map[string]any{"value": "Pagamento em 30 dias"},
		},
		domain.BlockAnalise: {
			"pontuacao":    map[string]any{"value": float64(72)},
			"recomendacao": map[string]any{"value": "Participar"},
		},
	}
}

type ingestorFixture struct {
	ingestor   *Ingestor
	documents  *mocks.MockDocumentStore
	checklists *mocks.MockChecklistStore
	parser     *mocks.MockParser
	embedder   *mocks.MockEmbeddingService
	chat       *mocks.MockStructuredChat
	fileChat   *mocks.MockFileChat
	downloader *mocks.MockDownloader
}

func newIngestorFixture(t *testing.T) *ingestorFixture {
	t.Helper()

	page := 1
	f := &ingestorFixture{
		documents:  mocks.NewMockDocumentStore(),
		checklists: mocks.NewMockChecklistStore(),
		parser: mocks.NewMockParser(
			domain.Segment{Text: "1. DO OBJETO\nAquisição de equipamentos de informática.", PageNumber: &page},
			domain.Segment{Text: "15. DO PAGAMENTO\nO pagamento será efetuado em 30 dias."},
		),
		embedder:   mocks.NewMockEmbeddingService(),
		chat:       mocks.NewMockStructuredChat(),
		fileChat:   mocks.NewMockFileChat(),
		downloader: mocks.NewMockDownloader([]byte("%PDF-1.4 test")),
	}
	f.chat.Responses = cannedBlockResponses()
	f.fileChat.Responses = cannedBlockResponses()

	f.ingestor = NewIngestor(IngestorConfig{
		Documents:  f.documents,
		Checklists: f.checklists,
		Parser:     f.parser,
		Embedder:   f.embedder,
		Chat:       f.chat,
		FileChat:   f.fileChat,
		Downloader: f.downloader,
		Pipeline:   DefaultConfig(),
	})
	return f
}

func (f *ingestorFixture) seedPending(id string) {
	f.documents.Seed(&domain.Document{
		ID:       id,
		UserID:   "user-1",
		FileName: "edital.pdf",
		Status:   domain.DocumentStatusPending,
	})
}

func job(id string) *domain.IngestJob {
	return &domain.IngestJob{
		DocumentID: id,
		UserID:     "user-1",
		FileURL:    "https://bucket.example.com/presigned/edital.pdf",
		FileName:   "edital.pdf",
	}
}

func TestIngestor_HappyPathTextMode(t *testing.T) {
	f := newIngestorFixture(t)
	f.seedPending("doc-1")

	err := f.ingestor.Ingest(context.Background(), job("doc-1"))
	require.NoError(t, err)

	doc, err := f.documents.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusDone, doc.Status)
	assert.Equal(t, []domain.DocumentStatus{
		domain.DocumentStatusProcessing,
		domain.DocumentStatusDone,
	}, f.documents.Transitions["doc-1"])

	row, err := f.checklists.GetByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Prefeitura Municipal de X", row.Orgao)
	require.NotNil(t, row.Pontuacao)
	assert.Equal(t, 72, *row.Pontuacao)
	assert.Equal(t, "R$ 1.234,56", row.ValorTotal)
	assert.Equal(t, domain.SchemaVersion, row.Data[domain.KeySchemaVersion])
	assert.Equal(t, "01/05/2024", row.Data.StringAt(domain.KeyPrazos, "dataAbertura"))

	// All eight blocks were generated
	assert.Len(t, f.chat.Calls, 8)

	// The temporary file is removed on the success path
	require.Len(t, f.downloader.Paths, 1)
	_, statErr := os.Stat(f.downloader.Paths[0])
	assert.True(t, os.IsNotExist(statErr), "temp file should be deleted")
}

func TestIngestor_BlockFailureMarksFailed(t *testing.T) {
	f := newIngestorFixture(t)
	f.seedPending("doc-1")
	f.chat.Errors[domain.BlockPrazos] = errors.New("invalid json from provider")

	err := f.ingestor.Ingest(context.Background(), job("doc-1"))
	require.Error(t, err)
	assert.Equal(t, domain.StageBlockGenerate, domain.StageOf(err))
	assert.Equal(t, domain.BlockPrazos, domain.BlockKeyOf(err))

	doc, _ := f.documents.Get(context.Background(), "doc-1")
	assert.Equal(t, domain.DocumentStatusFailed, doc.Status)
	assert.Zero(t, f.checklists.Count(), "no checklist row on failure")

	// Temp file removed on the failure path too
	require.Len(t, f.downloader.Paths, 1)
	_, statErr := os.Stat(f.downloader.Paths[0])
	assert.True(t, os.IsNotExist(statErr))
}

func TestIngestor_DuplicateDeliveryShortCircuits(t *testing.T) {
	f := newIngestorFixture(t)
	f.seedPending("doc-1")

	require.NoError(t, f.ingestor.Ingest(context.Background(), job("doc-1")))
	require.Equal(t, 1, f.checklists.Count())

	// Second delivery of the same documentId
	require.NoError(t, f.ingestor.Ingest(context.Background(), job("doc-1")))

	assert.Equal(t, 1, f.checklists.Count(), "no second checklist row")
	assert.Equal(t, []domain.DocumentStatus{
		domain.DocumentStatusProcessing,
		domain.DocumentStatusDone,
	}, f.documents.Transitions["doc-1"], "no further transitions")
	assert.Len(t, f.downloader.Paths, 1, "no second download")
}

func TestIngestor_InvalidPayloadDropped(t *testing.T) {
	f := newIngestorFixture(t)

	err := f.ingestor.Ingest(context.Background(), &domain.IngestJob{UserID: "user-1"})
	require.NoError(t, err, "invalid payloads are dropped, not failed")
	assert.Empty(t, f.downloader.Paths)
}

func TestIngestor_AbsentDocumentDropped(t *testing.T) {
	f := newIngestorFixture(t)

	err := f.ingestor.Ingest(context.Background(), job("ghost"))
	require.NoError(t, err)
	assert.Empty(t, f.downloader.Paths)
	assert.Zero(t, f.checklists.Count())
}

func TestIngestor_ParseFailure(t *testing.T) {
	f := newIngestorFixture(t)
	f.seedPending("doc-1")
	f.parser.Err = errors.New("corrupt pdf")

	err := f.ingestor.Ingest(context.Background(), job("doc-1"))
	require.Error(t, err)
	assert.Equal(t, domain.StageParse, domain.StageOf(err))

	doc, _ := f.documents.Get(context.Background(), "doc-1")
	assert.Equal(t, domain.DocumentStatusFailed, doc.Status)
}

func TestIngestor_EmptyParseIsFailure(t *testing.T) {
	f := newIngestorFixture(t)
	f.seedPending("doc-1")
	f.parser.Segments = nil

	err := f.ingestor.Ingest(context.Background(), job("doc-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestIngestor_EmbedFailure(t *testing.T) {
	f := newIngestorFixture(t)
	f.seedPending("doc-1")
	f.embedder.FailNext = true

	err := f.ingestor.Ingest(context.Background(), job("doc-1"))
	require.Error(t, err)
	assert.Equal(t, domain.StageEmbed, domain.StageOf(err))

	doc, _ := f.documents.Get(context.Background(), "doc-1")
	assert.Equal(t, domain.DocumentStatusFailed, doc.Status)
}

func TestIngestor_PDFNativeMode(t *testing.T) {
	f := newIngestorFixture(t)
	f.seedPending("doc-1")

	j := job("doc-1")
	j.UsePDFFile = true

	err := f.ingestor.Ingest(context.Background(), j)
	require.NoError(t, err)

	// No chunking or retrieval happened
	assert.Zero(t, f.parser.Calls, "parser must not run in pdf-native mode")
	assert.Zero(t, f.embedder.EmbedCalls, "embedder must not run in pdf-native mode")
	assert.Zero(t, f.embedder.QueryCalls)

	// Eight multi-modal responses against the uploaded file
	assert.Len(t, f.fileChat.Uploads, 1)
	assert.Len(t, f.fileChat.Calls, 8)

	row, err := f.checklists.GetByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SchemaVersion, row.Data[domain.KeySchemaVersion])

	doc, _ := f.documents.Get(context.Background(), "doc-1")
	assert.Equal(t, domain.DocumentStatusDone, doc.Status)
}

func TestIngestor_CSVSparseDocument(t *testing.T) {
	f := newIngestorFixture(t)
	f.seedPending("doc-1")

	// Five row-group segments with no page numbers
	f.parser.Segments = []domain.Segment{
		{Text: "orgao: Prefeitura; objeto: Material de escritório"},
		{Text: "item: Papel A4; quantidade: 500"},
		{Text: "item: Canetas; quantidade: 200"},
		{Text: "item: Grampeadores; quantidade: 40"},
		{Text: "item: Toner; quantidade: 25"},
	}

	j := job("doc-1")
	j.FileName = "planilha.csv"

	err := f.ingestor.Ingest(context.Background(), j)
	require.NoError(t, err)

	doc, _ := f.documents.Get(context.Background(), "doc-1")
	assert.Equal(t, domain.DocumentStatusDone, doc.Status)

	row, err := f.checklists.GetByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	// Sparse but total: every schema key defaulted
	assert.Contains(t, row.Data, domain.KeySessao)
	assert.Contains(t, row.Data, domain.KeyOutrosEdital)
}

func TestIngestor_PersistFailure(t *testing.T) {
	f := newIngestorFixture(t)
	f.seedPending("doc-1")
	f.checklists.InsertErr = errors.New("connection reset")

	err := f.ingestor.Ingest(context.Background(), job("doc-1"))
	require.Error(t, err)
	assert.Equal(t, domain.StagePersist, domain.StageOf(err))

	doc, _ := f.documents.Get(context.Background(), "doc-1")
	assert.Equal(t, domain.DocumentStatusFailed, doc.Status)
}

func TestIngestor_LegacySingleCall(t *testing.T) {
	f := newIngestorFixture(t)
	f.seedPending("doc-1")

	cfg := DefaultConfig()
	cfg.UseChecklistBlocks = false
	f.chat.Responses = map[string]map[string]any{
		"checklist": {
			domain.KeyEdital:     map[string]any{"orgao": "Prefeitura", "totalReais": "1.234,56"},
			domain.KeyRequisitos: []any{map[string]any{"categoria": "fiscal", "documento": "CND"}},
			domain.KeyPontuacao:  float64(60),
		},
	}
	f.ingestor = NewIngestor(IngestorConfig{
		Documents:  f.documents,
		Checklists: f.checklists,
		Parser:     f.parser,
		Embedder:   f.embedder,
		Chat:       f.chat,
		Downloader: f.downloader,
		Pipeline:   cfg,
	})

	err := f.ingestor.Ingest(context.Background(), job("doc-1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"checklist"}, f.chat.Calls, "single call on the legacy path")
	assert.Zero(t, f.embedder.EmbedCalls, "no embeddings on the legacy path")

	row, err := f.checklists.GetByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Prefeitura", row.Orgao)
	assert.Equal(t, domain.SchemaVersion, row.Data[domain.KeySchemaVersion])

	// documentos derived from requisitos on the legacy path
	docs, ok := row.Data[domain.KeyDocumentos].([]any)
	require.True(t, ok)
	assert.Len(t, docs, 1)
}
