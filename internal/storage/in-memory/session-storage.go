package in_memory

import (
	"context"

	"github.com/VladimirMonin/go-chat/internal/store"
)

// SessionStorage keeps the durable state in memory. It backs tests and
// runs without a Redis endpoint.
type SessionStorage struct {
	chats      store.Store
	credential string
}

func NewSessionStorage() *SessionStorage {
	return &SessionStorage{
		chats: store.Store{},
	}
}

func (s *SessionStorage) SaveChats(_ context.Context, chats store.Store) error {
	s.chats = chats.Clone()
	return nil
}

func (s *SessionStorage) LoadChats(_ context.Context) (store.Store, error) {
	return s.chats.Clone(), nil
}

func (s *SessionStorage) GetCredential(_ context.Context) (string, error) {
	return s.credential, nil
}

func (s *SessionStorage) SetCredential(_ context.Context, credential string) error {
	s.credential = credential
	return nil
}
