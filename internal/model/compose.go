package model

import "errors"

var ErrEmptyMessage = errors.New("message has no content")

// ComposeContent builds message content from the text input and attached
// image data URLs. Images are dropped when the model cannot accept them,
// which matches what happens to attachments that survived a switch to an
// image-incapable model. A single text part collapses to bare text.
func ComposeContent(text string, images []string, info ModelInfo) (Content, error) {
	parts := make(PartsContent, 0, len(images)+1)
	if text != "" {
		parts = append(parts, TextPart(text))
	}
	if info.SupportsImages {
		for _, image := range images {
			parts = append(parts, ImagePart(image))
		}
	}

	if len(parts) == 0 {
		return nil, ErrEmptyMessage
	}
	if len(parts) == 1 && parts[0].Type == PartTypeText {
		return TextContent(parts[0].Text), nil
	}
	return parts, nil
}
