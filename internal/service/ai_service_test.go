package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"course_ai_backend/internal/config"
)

func sseChunk(content string) string {
	payload := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"delta": map[string]string{"content": content}},
		},
	}
	b, _ := json.Marshal(payload)
	return "data: " + string(b) + "\n\n"
}

func newStreamServer(t *testing.T, chunks []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, c := range chunks {
			fmt.Fprint(w, sseChunk(c))
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func testAIService(baseURL string) *AIService {
	return NewAIService(config.AIConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-model",
	})
}

func TestChatStreamDeliversChunksInOrder(t *testing.T) {
	srv := newStreamServer(t, []string{"Hello", " ", "world"})
	defer srv.Close()

	svc := testAIService(srv.URL)
	out, errChan := svc.ChatStream(context.Background(), "system", "prompt")

	var got []string
	for chunk := range out {
		got = append(got, chunk)
	}
	if err := <-errChan; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(got, "") != "Hello world" {
		t.Fatalf("got %v", got)
	}
}

func TestChatStreamCancellationIsSilent(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, sseChunk("first"))
		flusher.Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	svc := testAIService(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	out, errChan := svc.ChatStream(ctx, "system", "prompt")

	select {
	case <-out:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first chunk")
	}
	cancel()

	for range out {
	}
	if err := <-errChan; err != nil {
		t.Fatalf("cancellation must not surface an error, got: %v", err)
	}
}

func TestChatStreamUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad model"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	svc := testAIService(srv.URL)
	out, errChan := svc.ChatStream(context.Background(), "system", "prompt")

	for range out {
	}
	err := <-errChan
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestChatReturnsMessageContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "42"}},
			},
		})
	}))
	defer srv.Close()

	svc := testAIService(srv.URL)
	got, err := svc.Chat(context.Background(), "system", "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "42" {
		t.Fatalf("got %q", got)
	}
}

func TestGenerateJSONSendsSchemaAndDecodes(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": `{"name":"Go Basics"}`}},
			},
		})
	}))
	defer srv.Close()

	svc := testAIService(srv.URL)
	var out struct {
		Name string `json:"name"`
	}
	schema := map[string]interface{}{"type": "object"}
	if err := svc.GenerateJSON(context.Background(), "sys", "prompt", "course", schema, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != "Go Basics" {
		t.Fatalf("got %+v", out)
	}

	rf, ok := captured["response_format"].(map[string]interface{})
	if !ok {
		t.Fatalf("response_format missing from request: %v", captured)
	}
	if rf["type"] != "json_schema" {
		t.Fatalf("unexpected response_format: %v", rf)
	}
}

func TestGenerateJSONRejectsMalformedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "not json"}},
			},
		})
	}))
	defer srv.Close()

	svc := testAIService(srv.URL)
	var out map[string]interface{}
	err := svc.GenerateJSON(context.Background(), "sys", "prompt", "x", map[string]interface{}{}, &out)
	if err == nil || !strings.Contains(err.Error(), "not valid JSON") {
		t.Fatalf("expected JSON error, got %v", err)
	}
}
