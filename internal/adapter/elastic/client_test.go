package elastic

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"answer-engine/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func hitsJSON(hits ...map[string]any) []byte {
	payload := map[string]any{
		"hits": map[string]any{"hits": hits},
	}
	b, _ := json.Marshal(payload)
	return b
}

func TestClient_Search_LexicalAndVector(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/chunks/_search", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		query := body["query"].(map[string]any)
		w.Header().Set("Content-Type", "application/json")
		if _, isVector := query["script_score"]; isVector {
			assert.Equal(t, 0.1, body["min_score"])
			w.Write(hitsJSON(map[string]any{
				"_id":    "v1",
				"_score": 1.87,
				"_source": map[string]any{
					"chunk_id": "a2",
					"text":     "vector match",
					"metadata": map[string]any{"source_file": "report.pdf", "page_number": 3, "position": 2},
				},
			}))
			return
		}
		w.Write(hitsJSON(map[string]any{
			"_id":    "l1",
			"_score": 4.2,
			"_source": map[string]any{
				"chunk_id": "a1",
				"text":     "lexical match",
				"metadata": map[string]any{"source_file": "report.pdf", "page_number": 1, "position": 0},
			},
		}))
	}))
	defer server.Close()

	client := NewClient(server.URL, "chunks", 0.1, 10*time.Second, testLogger())

	result, err := client.Search(context.Background(), domain.SearchQuery{
		Text:   "revenue",
		Vector: []float32{0.1, 0.2},
		Limit:  10,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, result.Lexical, 1)
	assert.Equal(t, "a1", result.Lexical[0].Chunk.ID)
	assert.Equal(t, 4.2, result.Lexical[0].Score)
	assert.Equal(t, "report.pdf", result.Lexical[0].Chunk.Metadata.SourceFile)
	require.Len(t, result.Vector, 1)
	assert.Equal(t, "a2", result.Vector[0].Chunk.ID)
	assert.Equal(t, 1.87, result.Vector[0].Score)
	assert.Equal(t, 3, result.Vector[0].Chunk.Metadata.PageNumber)
}

func TestClient_Search_NoVectorSkipsVectorQuery(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		query := body["query"].(map[string]any)
		_, isVector := query["script_score"]
		assert.False(t, isVector)

		w.Header().Set("Content-Type", "application/json")
		w.Write(hitsJSON())
	}))
	defer server.Close()

	client := NewClient(server.URL, "chunks", 0.1, 10*time.Second, testLogger())

	result, err := client.Search(context.Background(), domain.SearchQuery{Text: "revenue", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, result.Vector)
}

func TestClient_Search_FiltersBecomeTermClauses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		query := body["query"].(map[string]any)
		boolQuery := query["bool"].(map[string]any)
		filters := boolQuery["filter"].([]any)
		require.Len(t, filters, 1)
		term := filters[0].(map[string]any)["term"].(map[string]any)
		assert.Equal(t, "annual-report.pdf", term["metadata.source_file"])

		w.Header().Set("Content-Type", "application/json")
		w.Write(hitsJSON())
	}))
	defer server.Close()

	client := NewClient(server.URL, "chunks", 0.1, 10*time.Second, testLogger())

	_, err := client.Search(context.Background(), domain.SearchQuery{
		Text:    "revenue",
		Limit:   5,
		Filters: map[string]string{"source_file": "annual-report.pdf"},
	})
	require.NoError(t, err)
}

func TestClient_Search_ServerErrorFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index_not_found_exception", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "chunks", 0.1, 10*time.Second, testLogger())

	_, err := client.Search(context.Background(), domain.SearchQuery{Text: "revenue", Limit: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClient_Search_MissingChunkIDFallsBackToDocID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(hitsJSON(map[string]any{
			"_id":     "doc-9",
			"_score":  1.0,
			"_source": map[string]any{"text": "orphan"},
		}))
	}))
	defer server.Close()

	client := NewClient(server.URL, "chunks", 0.1, 10*time.Second, testLogger())

	result, err := client.Search(context.Background(), domain.SearchQuery{Text: "orphan", Limit: 5})
	require.NoError(t, err)
	require.Len(t, result.Lexical, 1)
	assert.Equal(t, "doc-9", result.Lexical[0].Chunk.ID)
}
