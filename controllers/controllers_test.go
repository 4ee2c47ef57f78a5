package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms/fake"
	"go.uber.org/zap"

	"askdocs/internal/documents"
	"askdocs/internal/extract"
	"askdocs/internal/retrieval"
	"askdocs/models"
)

type testServer struct {
	engine *gin.Engine
	store  *models.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop().Sugar()
	store := models.NewMemoryStore()
	embedder := retrieval.NewHashEmbedder(64)

	splitter, err := retrieval.NewSplitter(200, 20)
	require.NoError(t, err)
	manager := documents.NewManager(store, documents.Pipeline{
		Extractor:   extract.NewExtractor(true, logger),
		Splitter:    splitter,
		Embedder:    embedder,
		UploadDir:   t.TempDir(),
		Concurrency: 2,
		AllowEmpty:  false,
	}, logger)

	generator, err := retrieval.NewGenerator(fake.NewFakeLLM([]string{"It is about cats."}), []string{"test-model"}, 0, logger)
	require.NoError(t, err)
	assistant := retrieval.NewAssistant(
		store,
		retrieval.NewRetriever(store, embedder, retrieval.DefaultTopK),
		retrieval.NewAssembler(retrieval.DefaultSimilarityThreshold, retrieval.DefaultContextTopN),
		generator,
		logger,
	)

	engine := gin.New()
	engine.Use(CORS(""), RequestLogger(logger))
	Router{
		HealthController:    &HealthController{Store: store, Logger: logger},
		DocumentsController: &DocumentsController{Documents: manager, Logger: logger, MaxUploadBytes: 1 << 20},
		ChatController:      &ChatController{Assistant: assistant, Logger: logger},
	}.RegisterRoutes(engine)

	return &testServer{engine: engine, store: store}
}

type envelope struct {
	Errors []string        `json:"errors"`
	Data   json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var body envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	}
	return w, body
}

func (s *testServer) doJSON(t *testing.T, method, path string, payload any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req)
}

func uploadRequest(t *testing.T, filename, mediaType string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", mediaType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (s *testServer) upload(t *testing.T, filename, text string) documents.Summary {
	t.Helper()
	w, body := s.do(t, uploadRequest(t, filename, "text/plain", []byte(text)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary documents.Summary
	require.NoError(t, json.Unmarshal(body.Data, &summary))
	return summary
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/health", HealthController{Store: downStore{}, Logger: zap.NewNop().Sugar()}.Status)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUploadAndList(t *testing.T) {
	s := newTestServer(t)

	summary := s.upload(t, "cats.txt", "Cats are small domesticated carnivores.")
	assert.Equal(t, "cats.txt", summary.Filename)
	assert.Equal(t, "text/plain", summary.FileType)
	assert.Equal(t, 1, summary.ChunkCount)

	w, body := s.doJSON(t, http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "cats.txt", list[0]["filename"])
	assert.Equal(t, float64(1), list[0]["chunk_count"])
	assert.Equal(t, false, list[0]["is_starred"])
	assert.Equal(t, false, list[0]["is_deleted"])
	assert.Contains(t, list[0], "upload_date")
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{
			name:   "unsupported type",
			req:    uploadRequest(t, "photo.png", "image/png", []byte("\x89PNG\r\n\x1a\n")),
			status: http.StatusUnsupportedMediaType,
		},
		{
			name:   "no text",
			req:    uploadRequest(t, "blank.txt", "text/plain", []byte("   ")),
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "too large",
			req:    uploadRequest(t, "big.txt", "text/plain", bytes.Repeat([]byte("a"), 2<<20)),
			status: http.StatusRequestEntityTooLarge,
		},
		{
			name:   "missing file",
			req:    httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("")),
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, body := s.do(t, tc.req)
			assert.Equal(t, tc.status, w.Code)
			assert.NotEmpty(t, body.Errors)
		})
	}

	docs, err := s.store.ListDocuments(context.Background(), models.AllDocuments)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestPatchDocument(t *testing.T) {
	s := newTestServer(t)
	summary := s.upload(t, "cats.txt", "Cats purr.")
	path := "/api/documents/" + jsonID(summary.ID)

	w, body := s.doJSON(t, http.MethodPatch, path, map[string]any{"is_starred": true, "filename": "felines.txt"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated documents.Summary
	require.NoError(t, json.Unmarshal(body.Data, &updated))
	assert.True(t, updated.Starred)
	assert.Equal(t, "felines.txt", updated.Filename)

	w, _ = s.doJSON(t, http.MethodPatch, path, map[string]any{"is_deleted": true})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = s.doJSON(t, http.MethodGet, "/api/documents?filter=deleted", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var trash []documents.Summary
	require.NoError(t, json.Unmarshal(body.Data, &trash))
	require.Len(t, trash, 1)
	assert.Equal(t, summary.ID, trash[0].ID)

	w, _ = s.doJSON(t, http.MethodPatch, path, map[string]any{"filename": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.doJSON(t, http.MethodPatch, "/api/documents/999", map[string]any{"is_starred": true})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.doJSON(t, http.MethodPatch, "/api/documents/abc", map[string]any{"is_starred": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRejectsUnknownFilter(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.doJSON(t, http.MethodGet, "/api/documents?filter=archived", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteDocument(t *testing.T) {
	s := newTestServer(t)
	summary := s.upload(t, "cats.txt", "Cats purr.")
	path := "/api/documents/" + jsonID(summary.ID)

	w, _ := s.doJSON(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.store.Chunks(summary.ID))

	w, _ = s.doJSON(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.doJSON(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChat(t *testing.T) {
	s := newTestServer(t)

	w, body := s.doJSON(t, http.MethodPost, "/api/chat", map[string]string{"message": "What are cats?"})
	require.Equal(t, http.StatusOK, w.Code)
	var result retrieval.ChatResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, retrieval.NoActiveDocumentsMessage, result.AssistantMessage)
	assert.Empty(t, result.Sources)

	s.upload(t, "cats.txt", "Cats are small domesticated carnivores.")

	w, body = s.doJSON(t, http.MethodPost, "/api/chat", map[string]string{"message": "What are cats?"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, "What are cats?", result.UserMessage)
	assert.Equal(t, "It is about cats.", result.AssistantMessage)
	assert.Equal(t, []string{"cats.txt"}, result.Sources)

	w, body = s.doJSON(t, http.MethodGet, "/api/chat/history?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.ChatHistory
	require.NoError(t, json.Unmarshal(body.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, []string{"cats.txt"}, history[0].Sources)

	w, _ = s.doJSON(t, http.MethodDelete, "/api/chat/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = s.doJSON(t, http.MethodGet, "/api/chat/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(body.Data, &history))
	assert.Empty(t, history)
}

func TestChatValidation(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.doJSON(t, http.MethodPost, "/api/chat", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.doJSON(t, http.MethodPost, "/api/chat", map[string]string{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.doJSON(t, http.MethodGet, "/api/chat/history?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/chat", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func jsonID(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestSingleDocumentIsTheOnlySource(t *testing.T) {
	s := newTestServer(t)

	text := "Our team met on Monday.\n\nWe agreed on the launch plan.\n\nNext review is in two weeks."
	summary := s.upload(t, "minutes.txt", text)
	assert.Equal(t, 1, summary.ChunkCount)

	w, body := s.doJSON(t, http.MethodPost, "/api/chat", map[string]string{"message": "what is in my documents"})
	require.Equal(t, http.StatusOK, w.Code)

	var result retrieval.ChatResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, []string{"minutes.txt"}, result.Sources)
}
