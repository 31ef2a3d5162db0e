package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// TestNewEmbeddingService tests service creation.
func TestNewEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *EmbeddingConfig
		expectError bool
	}{
		{
			name: "OpenAI config",
			cfg: &EmbeddingConfig{
				Provider:   "openai",
				Model:      "text-embedding-3-small",
				Dimensions: 1536,
				APIKey:     "test-key",
			},
			expectError: false,
		},
		{
			name: "SiliconFlow config",
			cfg: &EmbeddingConfig{
				Provider:   "siliconflow",
				Model:      "BAAI/bge-m3",
				Dimensions: 1024,
				APIKey:     "test-key",
				BaseURL:    "https://api.siliconflow.cn/v1",
			},
			expectError: false,
		},
		{
			name: "Ollama config",
			cfg: &EmbeddingConfig{
				Provider:   "ollama",
				Model:      "nomic-embed-text",
				Dimensions: 768,
				BaseURL:    "http://localhost:11434",
			},
			expectError: false,
		},
		{
			name: "Unsupported provider",
			cfg: &EmbeddingConfig{
				Provider: "unsupported",
				Model:    "m",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEmbeddingService(tt.cfg)
			if (err != nil) != tt.expectError {
				t.Errorf("NewEmbeddingService() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

type embeddingDatum struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

// newEmbeddingServer serves an OpenAI-compatible embeddings endpoint whose
// handler builds the response data for each request's inputs.
func newEmbeddingServer(t *testing.T, onBatch func(inputs []string) []embeddingDatum) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   onBatch(req.Input),
		})
	}))
}

func newTestEmbeddingService(t *testing.T, baseURL string, dimensions int) EmbeddingService {
	t.Helper()
	svc, err := NewEmbeddingService(&EmbeddingConfig{
		Provider:   "openai",
		Model:      "test-model",
		Dimensions: dimensions,
		APIKey:     "test-key",
		BaseURL:    baseURL + "/v1",
	})
	if err != nil {
		t.Fatalf("NewEmbeddingService() error = %v", err)
	}
	return svc
}

// TestEmbedBatchChunksAndPreservesOrder feeds more texts than one request
// may carry through a fake endpoint that answers out of order: the batch
// must split at maxBatchSize and every vector must land at its input's
// position.
func TestEmbedBatchChunksAndPreservesOrder(t *testing.T) {
	var mu sync.Mutex
	var batchSizes []int

	server := newEmbeddingServer(t, func(inputs []string) []embeddingDatum {
		mu.Lock()
		batchSizes = append(batchSizes, len(inputs))
		mu.Unlock()

		// Reversed order with correct indexes; each vector encodes its
		// input's number so misplacement is detectable.
		data := make([]embeddingDatum, 0, len(inputs))
		for i := len(inputs) - 1; i >= 0; i-- {
			n, err := strconv.Atoi(inputs[i])
			if err != nil {
				t.Errorf("unexpected input %q", inputs[i])
			}
			data = append(data, embeddingDatum{Object: "embedding", Index: i, Embedding: []float32{float32(n)}})
		}
		return data
	})
	defer server.Close()

	svc := newTestEmbeddingService(t, server.URL, 1)

	texts := make([]string, 150)
	for i := range texts {
		texts[i] = strconv.Itoa(i)
	}

	vectors, err := svc.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("EmbedBatch() returned %d vectors, want %d", len(vectors), len(texts))
	}
	for i, vector := range vectors {
		if len(vector) != 1 || vector[0] != float32(i) {
			t.Fatalf("vector %d = %v, want [%d]", i, vector, i)
		}
	}
	if len(batchSizes) != 2 || batchSizes[0] != maxBatchSize || batchSizes[1] != 50 {
		t.Errorf("batch sizes = %v, want [%d 50]", batchSizes, maxBatchSize)
	}
}

// TestEmbedBatchCountMismatch expects an error when the provider returns
// fewer vectors than inputs.
func TestEmbedBatchCountMismatch(t *testing.T) {
	server := newEmbeddingServer(t, func(inputs []string) []embeddingDatum {
		return []embeddingDatum{{Object: "embedding", Index: 0, Embedding: []float32{1}}}
	})
	defer server.Close()

	svc := newTestEmbeddingService(t, server.URL, 1)

	_, err := svc.EmbedBatch(context.Background(), []string{"0", "1"})
	if err == nil {
		t.Fatal("EmbedBatch() expected error on count mismatch, got nil")
	}
}

// TestEmbedBatchDimensionMismatch expects an error when a returned vector
// has the wrong dimension.
func TestEmbedBatchDimensionMismatch(t *testing.T) {
	server := newEmbeddingServer(t, func(inputs []string) []embeddingDatum {
		data := make([]embeddingDatum, len(inputs))
		for i := range inputs {
			data[i] = embeddingDatum{Object: "embedding", Index: i, Embedding: []float32{1}}
		}
		return data
	})
	defer server.Close()

	svc := newTestEmbeddingService(t, server.URL, 768)

	_, err := svc.Embed(context.Background(), "text")
	if err == nil {
		t.Fatal("Embed() expected error on dimension mismatch, got nil")
	}
}

// TestEmbeddingConfigValidate tests config validation.
func TestEmbeddingConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *EmbeddingConfig
		expectError bool
	}{
		{
			name:        "valid openai",
			cfg:         &EmbeddingConfig{Provider: "openai", Model: "m", Dimensions: 768, APIKey: "k"},
			expectError: false,
		},
		{
			name:        "missing model",
			cfg:         &EmbeddingConfig{Provider: "openai", Dimensions: 768, APIKey: "k"},
			expectError: true,
		},
		{
			name:        "missing api key",
			cfg:         &EmbeddingConfig{Provider: "openai", Model: "m", Dimensions: 768},
			expectError: true,
		},
		{
			name:        "zero dimensions",
			cfg:         &EmbeddingConfig{Provider: "openai", Model: "m", APIKey: "k"},
			expectError: true,
		},
		{
			name:        "ollama without base url",
			cfg:         &EmbeddingConfig{Provider: "ollama", Model: "m", Dimensions: 768},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.expectError {
				t.Errorf("Validate() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}
