package key_value

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/VladimirMonin/go-chat/internal/store"
)

// Key layout mirrors the browser build of this client, which kept the whole
// chat map under "chats" and the bearer credential under "api_key".
const (
	chatsKey      = "chats"
	credentialKey = "api_key"
)

type SessionStorage struct {
	rdb *redis.Client
}

func NewSessionStorage(rdb *redis.Client) *SessionStorage {
	return &SessionStorage{
		rdb: rdb,
	}
}

// SaveChats rewrites the durable copy of the chat map wholesale. There are
// no partial writes: the value under the key is always a complete store.
func (s *SessionStorage) SaveChats(ctx context.Context, chats store.Store) error {
	chatsJSON, err := json.Marshal(chats)
	if err != nil {
		return fmt.Errorf("failed to marshal chats: %w", err)
	}
	if err = s.rdb.Set(ctx, chatsKey, chatsJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to save chats: %w", err)
	}
	return nil
}

func (s *SessionStorage) LoadChats(ctx context.Context) (store.Store, error) {
	chatsRaw, err := s.rdb.Get(ctx, chatsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.Store{}, nil
		}
		return nil, fmt.Errorf("failed to get chats: %w", err)
	}
	var chats store.Store
	if err = json.Unmarshal([]byte(chatsRaw), &chats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chats: %w", err)
	}
	return chats, nil
}

// GetCredential returns the stored bearer credential, or the empty string
// when none has been saved yet.
func (s *SessionStorage) GetCredential(ctx context.Context) (string, error) {
	credential, err := s.rdb.Get(ctx, credentialKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get credential: %w", err)
	}
	return credential, nil
}

func (s *SessionStorage) SetCredential(ctx context.Context, credential string) error {
	if err := s.rdb.Set(ctx, credentialKey, credential, 0).Err(); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}
