package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/VladimirMonin/go-chat/config"
	"github.com/VladimirMonin/go-chat/internal/model"
	"github.com/VladimirMonin/go-chat/internal/usecase"
)

func newOpenAIUsecase(baseURL string) *usecase.OpenAIUsecase {
	return usecase.NewOpenAIUsecase(
		config.OpenAI{
			OpenAIBaseURL:         baseURL,
			AppTitle:              "Chat Interface",
			TranscriptionModel:    "stt-openai/whisper-1",
			TranscriptionLanguage: "ru",
		},
	)
}

func testSettings() model.Settings {
	return model.Settings{
		Model:       "anthropic/claude-3-5-haiku",
		Temperature: 0.7,
		MaxTokens:   3000,
	}
}

func completionJSON(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":"` + content + `"}}]}`
}

func TestOpenAIUsecase_Complete(t *testing.T) {
	var gotRequest map[string]any
	var gotAuth, gotTitle, gotPath string

	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotAuth = r.Header.Get("Authorization")
				gotTitle = r.Header.Get("X-Title")
				if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
					t.Errorf("failed to decode request body: %v", err)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(completionJSON("hi there")))
			},
		),
	)
	defer srv.Close()

	messages := []model.Message{
		{Role: model.RoleUser, Content: model.TextContent("hello")},
	}
	reply, err := newOpenAIUsecase(srv.URL).Complete(
		context.Background(), messages, testSettings(), "test-key",
	)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if reply.Role != model.RoleAssistant {
		t.Errorf("reply role = %q, want %q", reply.Role, model.RoleAssistant)
	}
	if reply.Content != model.TextContent("hi there") {
		t.Errorf("reply content = %#v, want %q", reply.Content, "hi there")
	}

	if gotPath != "/chat/completions" {
		t.Errorf("request path = %q, want %q", gotPath, "/chat/completions")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer test-key")
	}
	if gotTitle != "Chat Interface" {
		t.Errorf("X-Title = %q, want %q", gotTitle, "Chat Interface")
	}
	if gotRequest["model"] != "anthropic/claude-3-5-haiku" {
		t.Errorf("request model = %v", gotRequest["model"])
	}
	if gotRequest["max_tokens"] != float64(3000) {
		t.Errorf("request max_tokens = %v, want 3000", gotRequest["max_tokens"])
	}
	wire, ok := gotRequest["messages"].([]any)
	if !ok || len(wire) != 1 {
		t.Fatalf("request messages = %v, want one message", gotRequest["messages"])
	}
	first := wire[0].(map[string]any)
	if first["content"] != "hello" {
		t.Errorf("wire content = %v, want bare string", first["content"])
	}
}

func TestOpenAIUsecase_Complete_MultiContent(t *testing.T) {
	var gotRequest map[string]any
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
					t.Errorf("failed to decode request body: %v", err)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(completionJSON("nice picture")))
			},
		),
	)
	defer srv.Close()

	messages := []model.Message{
		{
			Role: model.RoleUser,
			Content: model.PartsContent{
				model.TextPart("look"),
				model.ImagePart("data:image/png;base64,AAAA"),
			},
		},
	}
	if _, err := newOpenAIUsecase(srv.URL).Complete(
		context.Background(), messages, testSettings(), "test-key",
	); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	wire := gotRequest["messages"].([]any)
	parts, ok := wire[0].(map[string]any)["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("wire content = %v, want two parts", wire[0].(map[string]any)["content"])
	}
	image := parts[1].(map[string]any)
	if image["type"] != "image_url" {
		t.Errorf("second part type = %v, want image_url", image["type"])
	}
}

func TestOpenAIUsecase_Complete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"message":"invalid key","type":"invalid_request_error"}}`))
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, usecase.ErrUnauthorized) {
					t.Errorf("error = %v, want %v", err, usecase.ErrUnauthorized)
				}
			},
		},
		{
			name: "server error keeps status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			},
			check: func(t *testing.T, err error) {
				var httpErr *usecase.HTTPError
				if !errors.As(err, &httpErr) {
					t.Fatalf("error = %v, want *HTTPError", err)
				}
				if httpErr.Status != http.StatusServiceUnavailable {
					t.Errorf("status = %d, want %d", httpErr.Status, http.StatusServiceUnavailable)
				}
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, usecase.ErrMalformedResponse) {
					t.Errorf("error = %v, want %v", err, usecase.ErrMalformedResponse)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := newOpenAIUsecase(srv.URL).Complete(
				context.Background(),
				[]model.Message{{Role: model.RoleUser, Content: model.TextContent("hello")}},
				testSettings(), "test-key",
			)
			if err == nil {
				t.Fatal("Complete succeeded, want error")
			}
			tc.check(t, err)
		})
	}
}

func TestOpenAIUsecase_Complete_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NewServeMux())
	srv.Close()

	_, err := newOpenAIUsecase(srv.URL).Complete(
		context.Background(),
		[]model.Message{{Role: model.RoleUser, Content: model.TextContent("hello")}},
		testSettings(), "test-key",
	)
	if !errors.Is(err, usecase.ErrNetwork) {
		t.Errorf("error = %v, want %v", err, usecase.ErrNetwork)
	}
}

func TestOpenAIUsecase_Transcribe(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/audio/transcriptions" {
					t.Errorf("request path = %q, want /audio/transcriptions", r.URL.Path)
				}
				if got := r.FormValue("model"); got != "stt-openai/whisper-1" {
					t.Errorf("model field = %q, want stt-openai/whisper-1", got)
				}
				if got := r.FormValue("response_format"); got != "text" {
					t.Errorf("response_format field = %q, want text", got)
				}
				if got := r.FormValue("language"); got != "ru" {
					t.Errorf("language field = %q, want ru", got)
				}
				if _, _, err := r.FormFile("file"); err != nil {
					t.Errorf("file field missing: %v", err)
				}
				_, _ = w.Write([]byte("привет мир"))
			},
		),
	)
	defer srv.Close()

	transcript, err := newOpenAIUsecase(srv.URL).Transcribe(
		context.Background(), strings.NewReader("fake mp3 bytes"), "speech.mp3", "test-key",
	)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if transcript != "привет мир" {
		t.Errorf("transcript = %q, want %q", transcript, "привет мир")
	}
}
