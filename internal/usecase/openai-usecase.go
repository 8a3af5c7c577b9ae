package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/VladimirMonin/go-chat/config"
	"github.com/VladimirMonin/go-chat/internal/model"
)

var (
	ErrUnauthorized      = errors.New("credential rejected by the API")
	ErrMalformedResponse = errors.New("malformed completion response")
	ErrNetwork           = errors.New("network failure")
)

type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d", e.Status)
}

type OpenAIUsecase struct {
	cfg config.OpenAI
}

func NewOpenAIUsecase(cfg config.OpenAI) *OpenAIUsecase {
	return &OpenAIUsecase{
		cfg: cfg,
	}
}

// Complete sends the full message log as one synchronous request and
// returns the assistant reply from the first choice. Failures are
// classified but never retried here.
func (u *OpenAIUsecase) Complete(
	ctx context.Context,
	messages []model.Message,
	settings model.Settings,
	credential string,
) (model.Message, error) {
	requestID := uuid.New()
	c := u.newClient(credential)

	req := openai.ChatCompletionRequest{
		Model:       settings.Model,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
		TopP:        1,
		N:           1,
		Messages:    toChatCompletionMessages(messages),
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		classified := classifyError(err)
		log.Printf("completion %s failed: %v", requestID, err)
		return model.Message{}, classified
	}
	if len(resp.Choices) == 0 {
		log.Printf("completion %s returned no choices", requestID)
		return model.Message{}, ErrMalformedResponse
	}

	log.Printf("completion %s done: model=%s", requestID, settings.Model)
	return model.Message{
		Role:    model.RoleAssistant,
		Content: model.TextContent(resp.Choices[0].Message.Content),
	}, nil
}

// Transcribe posts recorded audio to the transcription endpoint and
// returns the raw transcript. Same error taxonomy as Complete.
func (u *OpenAIUsecase) Transcribe(
	ctx context.Context,
	audio io.Reader,
	fileName string,
	credential string,
) (string, error) {
	c := u.newClient(credential)

	resp, err := c.CreateTranscription(
		ctx, openai.AudioRequest{
			Model:    u.cfg.TranscriptionModel,
			Reader:   audio,
			FilePath: fileName,
			Format:   openai.AudioResponseFormatText,
			Language: u.cfg.TranscriptionLanguage,
		},
	)
	if err != nil {
		return "", classifyError(err)
	}
	return resp.Text, nil
}

func (u *OpenAIUsecase) newClient(credential string) *openai.Client {
	clientConfig := openai.DefaultConfig(credential)
	clientConfig.BaseURL = u.cfg.OpenAIBaseURL
	clientConfig.HTTPClient = &http.Client{
		Transport: &titleTransport{title: u.cfg.AppTitle},
	}
	return openai.NewClientWithConfig(clientConfig)
}

func toChatCompletionMessages(messages []model.Message) []openai.ChatCompletionMessage {
	history := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		completionMessage := openai.ChatCompletionMessage{
			Role: string(message.Role),
		}
		switch content := message.Content.(type) {
		case model.TextContent:
			completionMessage.Content = string(content)
		case model.PartsContent:
			completionMessage.MultiContent = toChatMessageParts(content)
		}
		history = append(history, completionMessage)
	}
	return history
}

func toChatMessageParts(parts model.PartsContent) []openai.ChatMessagePart {
	completionParts := make([]openai.ChatMessagePart, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case model.PartTypeText:
			completionParts = append(
				completionParts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: part.Text,
				},
			)
		case model.PartTypeImageURL:
			completionParts = append(
				completionParts, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: part.ImageURL.URL,
					},
				},
			)
		}
	}
	return completionParts
}

func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return ErrUnauthorized
		}
		return &HTTPError{Status: apiErr.HTTPStatusCode}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusUnauthorized {
			return ErrUnauthorized
		}
		return &HTTPError{Status: reqErr.HTTPStatusCode}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// titleTransport adds the gateway attribution header to every request, the
// equivalent of the extra_headers X-Title the browser build sent.
type titleTransport struct {
	title string
}

func (t *titleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("X-Title", t.title)
	return http.DefaultTransport.RoundTrip(req)
}
