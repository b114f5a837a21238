package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"empty base URL", Config{BaseURL: "", Model: "bge-base-en"}, true},
		{"empty model", Config{BaseURL: "http://localhost:1234/v1", Model: ""}, true},
		{"valid", Config{BaseURL: "http://localhost:1234/v1", Model: "bge-base-en"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEmbed_Success(t *testing.T) {
	want := []float32{0.1, 0.2, 0.3, 0.4, 0.5}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "bge-base-en" {
			t.Errorf("model = %q", req.Model)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": want}},
		})
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL + "/v1", APIKey: "test-key", Model: "bge-base-en"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := client.Embed(context.Background(), "how do I craft an enchanting table")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dims, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dim %d = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestEmbed_Truncation(t *testing.T) {
	var receivedLen int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		json.NewDecoder(r.Body).Decode(&req)
		receivedLen = len(req.Input)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": []float32{0.1}}},
		})
	}))
	defer server.Close()

	client, _ := New(Config{BaseURL: server.URL, Model: "bge-base-en"})
	long := strings.Repeat("x", MaxInputChars+500)
	if _, err := client.Embed(context.Background(), long); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if receivedLen != MaxInputChars {
		t.Errorf("input length = %d, want %d", receivedLen, MaxInputChars)
	}
}

func TestEmbed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client, _ := New(Config{BaseURL: server.URL, Model: "bge-base-en"})
	if _, err := client.Embed(context.Background(), "query"); err == nil {
		t.Error("Embed() should surface API errors")
	}
}

func TestEmbed_EmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client, _ := New(Config{BaseURL: server.URL, Model: "bge-base-en"})
	if _, err := client.Embed(context.Background(), "query"); err == nil {
		t.Error("Embed() should fail when no embedding is returned")
	}
}
