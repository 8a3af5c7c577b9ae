package model

import (
	"errors"
	"reflect"
	"testing"
)

func TestComposeContent(t *testing.T) {
	withImages := ModelInfo{ID: "with-images", MaxTokens: 16000, SupportsImages: true}
	textOnly := ModelInfo{ID: "text-only", MaxTokens: 8100, SupportsImages: false}
	img := "data:image/png;base64,AAAA"

	tests := []struct {
		name    string
		text    string
		images  []string
		info    ModelInfo
		want    Content
		wantErr error
	}{
		{
			name: "single text collapses to bare text",
			text: "hi",
			info: withImages,
			want: TextContent("hi"),
		},
		{
			name:   "text plus image keeps part list",
			text:   "hi",
			images: []string{img},
			info:   withImages,
			want:   PartsContent{TextPart("hi"), ImagePart(img)},
		},
		{
			name:   "image order preserved",
			text:   "look",
			images: []string{"data:a", "data:b"},
			info:   withImages,
			want:   PartsContent{TextPart("look"), ImagePart("data:a"), ImagePart("data:b")},
		},
		{
			name:   "images only",
			images: []string{img},
			info:   withImages,
			want:   PartsContent{ImagePart(img)},
		},
		{
			name:   "incapable model drops images",
			text:   "hi",
			images: []string{img},
			info:   textOnly,
			want:   TextContent("hi"),
		},
		{
			name:    "empty input",
			info:    withImages,
			wantErr: ErrEmptyMessage,
		},
		{
			name:    "image for incapable model leaves nothing",
			images:  []string{img},
			info:    textOnly,
			wantErr: ErrEmptyMessage,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComposeContent(tc.text, tc.images, tc.info)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("ComposeContent error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComposeContent failed: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ComposeContent = %#v, want %#v", got, tc.want)
			}
		})
	}
}
