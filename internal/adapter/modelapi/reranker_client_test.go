package modelapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestRerankerClient_Rerank_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/rerank", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req RerankRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)

		assert.Equal(t, "test query", req.Query)
		assert.Equal(t, 3, len(req.Candidates))
		assert.Equal(t, "bge-reranker-v2-m3", req.Model)

		resp := RerankResponse{
			Results: []RerankResponseResult{
				{Index: 1, Score: 0.95},
				{Index: 0, Score: 0.85},
				{Index: 2, Score: 0.75},
			},
			Model: "bge-reranker-v2-m3",
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewRerankerClient(server.URL, "bge-reranker-v2-m3", 30*time.Second, testLogger())

	results, err := client.Rerank(context.Background(), "test query", []string{
		"content about revenue",
		"content about margins",
		"content about headcount",
	})
	require.NoError(t, err)

	assert.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, 0.95, results[0].Score)
	assert.Equal(t, 0, results[1].Index)
	assert.Equal(t, 0.85, results[1].Score)
	assert.Equal(t, 2, results[2].Index)
	assert.Equal(t, 0.75, results[2].Score)
}

func TestRerankerClient_Rerank_EmptyCandidates(t *testing.T) {
	client := NewRerankerClient("http://localhost:9000", "bge-reranker-v2-m3", 30*time.Second, testLogger())

	results, err := client.Rerank(context.Background(), "test query", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRerankerClient_Rerank_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewRerankerClient(server.URL, "bge-reranker-v2-m3", 30*time.Second, testLogger())

	_, err := client.Rerank(context.Background(), "test query", []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestRerankerClient_Rerank_LengthMismatchIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := RerankResponse{
			Results: []RerankResponseResult{{Index: 0, Score: 0.9}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewRerankerClient(server.URL, "bge-reranker-v2-m3", 30*time.Second, testLogger())

	_, err := client.Rerank(context.Background(), "test query", []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 results for 3 candidates")
}

func TestRerankerClient_Rerank_OutOfRangeIndexIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := RerankResponse{
			Results: []RerankResponseResult{
				{Index: 0, Score: 0.9},
				{Index: 5, Score: 0.8},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewRerankerClient(server.URL, "bge-reranker-v2-m3", 30*time.Second, testLogger())

	_, err := client.Rerank(context.Background(), "test query", []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid result index")
}

func TestRerankerClient_Rerank_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewRerankerClient(server.URL, "bge-reranker-v2-m3", 30*time.Second, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Rerank(ctx, "test query", []string{"a"})
	require.Error(t, err)
}
