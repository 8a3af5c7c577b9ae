package model

import (
	"errors"
	"sort"
)

var ErrUnknownModel = errors.New("unknown model")

type ModelInfo struct {
	ID             string
	MaxTokens      int
	SupportsImages bool
}

// Models is the static table of completion models the client can talk to.
var Models = map[string]ModelInfo{
	"anthropic/claude-3-5-haiku": {
		ID:             "anthropic/claude-3-5-haiku",
		MaxTokens:      8100,
		SupportsImages: false,
	},
	"openai/gpt-4o-mini": {
		ID:             "openai/gpt-4o-mini",
		MaxTokens:      16000,
		SupportsImages: true,
	},
}

func LookupModel(modelID string) (ModelInfo, error) {
	info, ok := Models[modelID]
	if !ok {
		return ModelInfo{}, ErrUnknownModel
	}
	return info, nil
}

func ModelIDs() []string {
	ids := make([]string, 0, len(Models))
	for id := range Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
