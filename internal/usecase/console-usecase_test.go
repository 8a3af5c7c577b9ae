package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/VladimirMonin/go-chat/config"
	in_memory "github.com/VladimirMonin/go-chat/internal/storage/in-memory"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line    string
		command string
		arg     string
	}{
		{line: "/new", command: "/new", arg: ""},
		{line: "/select 1234", command: "/select", arg: "1234"},
		{line: "/model openai/gpt-4o-mini", command: "/model", arg: "openai/gpt-4o-mini"},
		{line: "hello world", command: "", arg: "hello world"},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			command, arg := splitCommand(tc.line)
			if command != tc.command || arg != tc.arg {
				t.Errorf("splitCommand(%q) = (%q, %q), want (%q, %q)",
					tc.line, command, arg, tc.command, tc.arg)
			}
		})
	}
}

func TestFileToDataURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.png")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	dataURL, err := fileToDataURL(path)
	if err != nil {
		t.Fatalf("fileToDataURL failed: %v", err)
	}
	if !strings.HasPrefix(dataURL, "data:image/png;base64,") {
		t.Errorf("dataURL = %q, want image/png prefix", dataURL)
	}

	if _, err = fileToDataURL(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("fileToDataURL succeeded for a missing file")
	}
}

func TestConsoleUsecase_ScriptedRun(t *testing.T) {
	srv := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi there"}}]}`))
			},
		),
	)
	t.Cleanup(srv.Close)

	cfg := config.Chat{
		DefaultModel:       "anthropic/claude-3-5-haiku",
		DefaultTemperature: 0.7,
		DefaultMaxTokens:   3000,
		Language:           "en",
	}
	session, err := NewSessionUsecase(
		context.Background(), SessionUsecaseDeps{
			Storage: in_memory.NewSessionStorage(),
			OpenAI: NewOpenAIUsecase(
				config.OpenAI{OpenAIBaseURL: srv.URL, AppTitle: "Chat Interface"},
			),
		}, cfg,
	)
	if err != nil {
		t.Fatalf("NewSessionUsecase failed: %v", err)
	}

	// First line answers the credential prompt, then one message, then quit.
	input := strings.NewReader("test-key\nhello\n/quit\n")
	var output strings.Builder
	console := NewConsoleUsecase(cfg, ConsoleUsecaseDeps{Session: session}, input, &output)

	if err = console.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := output.String()
	if !strings.Contains(got, "You: hello") {
		t.Errorf("output missing the user message:\n%s", got)
	}
	if !strings.Contains(got, "Assistant: hi there") {
		t.Errorf("output missing the assistant reply:\n%s", got)
	}
}
