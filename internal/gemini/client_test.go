// internal/gemini/client_test.go
package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func replyWith(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}}},
			},
			"usageMetadata": map[string]int{"promptTokenCount": 10, "candidatesTokenCount": 5, "totalTokenCount": 15},
		})
	}))
}

func TestGenerateContent_RequestShape(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key, query = %s", r.URL.RawQuery)
		}
		if !strings.Contains(r.URL.Path, "models/test-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": "[]"}}}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model")
	history := []Turn{
		{Role: "user", Content: "make a page"},
		{Role: "assistant", Content: `[{"action":"chat","content":"ok"}]`},
	}
	if _, _, err := client.GenerateContent(context.Background(), BuildContents(history, []string{"index.html", "style.css"})); err != nil {
		t.Fatalf("GenerateContent failed: %v", err)
	}

	// instruction, priming, two history turns, listing
	if len(got.Contents) != 5 {
		t.Fatalf("expected 5 contents, got %d", len(got.Contents))
	}
	if got.Contents[0].Role != "user" || !strings.Contains(got.Contents[0].Parts[0].Text, "MUST respond ONLY with a valid JSON array") {
		t.Error("first turn should be the system instruction")
	}
	if got.Contents[1].Role != "model" || !strings.Contains(got.Contents[1].Parts[0].Text, "Ready") {
		t.Error("second turn should be the priming acknowledgement")
	}
	if got.Contents[2].Parts[0].Text != "make a page" {
		t.Error("history user turn misplaced")
	}
	if got.Contents[3].Role != "model" {
		t.Errorf("assistant history turn should map to role model, got %s", got.Contents[3].Role)
	}
	last := got.Contents[4]
	if last.Role != "user" || last.Parts[0].Text != "Current files in workspace: index.html, style.css" {
		t.Errorf("final turn should carry the listing, got %+v", last)
	}
}

func TestBuildContents_EmptyWorkspace(t *testing.T) {
	contents := BuildContents(nil, nil)
	last := contents[len(contents)-1]
	if last.Parts[0].Text != "Current files in workspace: None" {
		t.Errorf("empty workspace listing wrong: %q", last.Parts[0].Text)
	}
}

func TestGenerateContent_ExtractsReply(t *testing.T) {
	server := replyWith(t, `[{"action":"chat","content":"hello"}]`)
	defer server.Close()

	client := NewClient(server.URL, "k", "m")
	text, usage, err := client.GenerateContent(context.Background(), BuildContents(nil, nil))
	if err != nil {
		t.Fatalf("GenerateContent failed: %v", err)
	}
	if text != `[{"action":"chat","content":"hello"}]` {
		t.Errorf("unexpected reply %q", text)
	}
	if usage == nil || usage.TotalTokenCount != 15 {
		t.Errorf("usage not parsed: %+v", usage)
	}
}

func TestGenerateContent_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "m")
	_, _, err := client.GenerateContent(context.Background(), BuildContents(nil, nil))
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected a 429 error, got %v", err)
	}
}

func TestGenerateContent_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "m")
	if _, _, err := client.GenerateContent(context.Background(), BuildContents(nil, nil)); err == nil {
		t.Error("expected an error for empty candidates")
	}
}

func TestReply_ConvertsErrorToSyntheticBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":500,"message":"backend \"exploded\""}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "m")
	reply, _ := client.Reply(context.Background(), nil, nil)

	var batch []map[string]string
	if err := json.Unmarshal([]byte(reply), &batch); err != nil {
		t.Fatalf("synthetic reply is not valid JSON: %v\n%s", err, reply)
	}
	if len(batch) != 1 || batch[0]["action"] != "chat" {
		t.Fatalf("expected one chat element, got %+v", batch)
	}
	if !strings.Contains(batch[0]["content"], "Error calling AI") {
		t.Errorf("synthetic element should carry the error text: %q", batch[0]["content"])
	}
}

func TestSyntheticChatBatch_QuotesNeutralized(t *testing.T) {
	reply := SyntheticChatBatch(`bad "quoted" failure`)

	var batch []map[string]string
	if err := json.Unmarshal([]byte(reply), &batch); err != nil {
		t.Fatalf("not valid JSON: %v", err)
	}
	if strings.Contains(batch[0]["content"], `"`) {
		t.Errorf("double quotes should be neutralized: %q", batch[0]["content"])
	}
}

func TestClient_DefaultModel(t *testing.T) {
	client := NewClient(DefaultBaseURL, "k", "")
	if client.Model() != DefaultModel {
		t.Errorf("Model() = %q, want default", client.Model())
	}
}
