package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Role string

const (
	RoleUser      = Role("user")
	RoleAssistant = Role("assistant")
)

// Content is either a bare text value or an ordered list of multi-modal
// parts. The two forms serialize differently on the wire (a JSON string vs
// a JSON array), so the distinction is kept explicit instead of being
// sniffed from the value shape everywhere it is used.
type Content interface {
	Display() string
	isContent()
}

type TextContent string

func (c TextContent) Display() string { return string(c) }
func (c TextContent) isContent()      {}

type PartsContent []ContentPart

func (c PartsContent) Display() string {
	var b strings.Builder
	for _, part := range c {
		switch part.Type {
		case PartTypeText:
			b.WriteString(part.Text)
		case PartTypeImageURL:
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString("[image]")
		}
	}
	return b.String()
}

func (c PartsContent) isContent() {}

type PartType string

const (
	PartTypeText     = PartType("text")
	PartTypeImageURL = PartType("image_url")
)

type ContentPart struct {
	Type     PartType      `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *ImagePayload `json:"image_url,omitempty"`
}

type ImagePayload struct {
	URL string `json:"url"`
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: PartTypeText, Text: text}
}

func ImagePart(url string) ContentPart {
	return ContentPart{Type: PartTypeImageURL, ImageURL: &ImagePayload{URL: url}}
}

type Message struct {
	Role    Role
	Content Content
}

type messageWire struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	var content json.RawMessage
	var err error
	switch c := m.Content.(type) {
	case TextContent:
		content, err = json.Marshal(string(c))
	case PartsContent:
		content, err = json.Marshal([]ContentPart(c))
	default:
		return nil, fmt.Errorf("unsupported content type %T", m.Content)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message content: %w", err)
	}
	return json.Marshal(messageWire{Role: m.Role, Content: content})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wire messageWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	m.Role = wire.Role

	trimmed := bytes.TrimSpace(wire.Content)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var parts []ContentPart
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return fmt.Errorf("failed to unmarshal message parts: %w", err)
		}
		m.Content = PartsContent(parts)
		return nil
	}
	var text string
	if err := json.Unmarshal(trimmed, &text); err != nil {
		return fmt.Errorf("failed to unmarshal message text: %w", err)
	}
	m.Content = TextContent(text)
	return nil
}
