package openai_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sonara-voice/sonara/pkg/provider/chat"
	"github.com/sonara-voice/sonara/pkg/provider/chat/openai"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	if _, err := openai.New("", "gpt-4o-mini"); err == nil {
		t.Error("New accepted empty api key")
	}
	if _, err := openai.New("sk-test", ""); err == nil {
		t.Error("New accepted empty model")
	}
}

func TestSend_MapsRolesAndReturnsReply(t *testing.T) {
	t.Parallel()
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"the reply"}}]}`))
	}))
	defer srv.Close()

	p, err := openai.New("sk-test", "gpt-4o-mini", openai.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	history := []chat.Message{
		{Role: chat.RoleUser, Text: "question"},
		{Role: chat.RoleModel, Text: "answer"},
	}
	reply, err := p.Send(t.Context(), history, "followup")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply != "the reply" {
		t.Errorf("reply = %q", reply)
	}

	if got.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", got.Model)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("messages length = %d, want 3", len(got.Messages))
	}
	wantRoles := []string{"user", "assistant", "user"}
	for i, want := range wantRoles {
		if got.Messages[i].Role != want {
			t.Errorf("messages[%d].role = %q, want %q", i, got.Messages[i].Role, want)
		}
	}
	if got.Messages[2].Content != "followup" {
		t.Errorf("final message = %q", got.Messages[2].Content)
	}
}

func TestSend_EmptyChoices(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p, err := openai.New("sk-test", "gpt-4o-mini", openai.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Send(t.Context(), nil, "hi"); err == nil {
		t.Fatal("Send succeeded with no choices")
	}
}
