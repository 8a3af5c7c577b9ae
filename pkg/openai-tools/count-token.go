package openai_tools

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

const fallbackEncoding = "cl100k_base"

// CountToken estimates how many tokens the message history occupies in the
// model's context window. Gateway model ids carry a vendor prefix
// ("openai/gpt-4o-mini"), so unknown models fall back to cl100k_base.
func CountToken(messages []openai.ChatCompletionMessage, model string) (int, error) {
	enc, err := tiktoken.EncodingForModel(trimVendorPrefix(model))
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return 0, fmt.Errorf("failed to get encoding: %w", err)
		}
	}

	const (
		tokensPerMessage = 3
		tokensPerReply   = 3
	)

	tokenCount := tokensPerReply
	for _, message := range messages {
		tokenCount += tokensPerMessage
		tokenCount += len(enc.Encode(message.Role, nil, nil))
		tokenCount += len(enc.Encode(message.Content, nil, nil))
		for _, part := range message.MultiContent {
			if part.Type == openai.ChatMessagePartTypeText {
				tokenCount += len(enc.Encode(part.Text, nil, nil))
			}
		}
	}
	return tokenCount, nil
}

func trimVendorPrefix(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}
