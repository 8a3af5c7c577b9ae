package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/VladimirMonin/go-chat/config"
	"github.com/VladimirMonin/go-chat/internal/model"
	"github.com/VladimirMonin/go-chat/internal/store"
	openai_tools "github.com/VladimirMonin/go-chat/pkg/openai-tools"
)

var (
	ErrNoActiveChat      = errors.New("no active chat selected")
	ErrCredentialMissing = errors.New("credential is not set")
)

type SessionStorage interface {
	SaveChats(ctx context.Context, chats store.Store) error
	LoadChats(ctx context.Context) (store.Store, error)
	GetCredential(ctx context.Context) (string, error)
	SetCredential(ctx context.Context, credential string) error
}

// Snapshot is a complete, immutable view of the session handed to
// observers after every transition.
type Snapshot struct {
	Chats         store.Store
	CurrentChatID string
	Settings      model.Settings
}

// Observer is called with the snapshot after each completed transition.
// Observers run with the session lock held and must not call back in.
type Observer func(Snapshot)

type SessionUsecaseDeps struct {
	Storage SessionStorage
	OpenAI  *OpenAIUsecase
}

// SessionUsecase owns the whole session state: the chat store, the active
// chat id and the settings. Every transition runs to completion under one
// mutex, so observers only ever see fully-applied states; the asynchronous
// half of SendMessage re-enters through the same mutex.
type SessionUsecase struct {
	SessionUsecaseDeps
	cfg config.Chat

	mu         sync.Mutex
	chats      store.Store
	currentID  string
	settings   model.Settings
	credential string
	observers  []Observer
	gen        *store.IDGen
	wg         *conc.WaitGroup
}

func NewSessionUsecase(
	ctx context.Context, deps SessionUsecaseDeps, cfg config.Chat,
) (*SessionUsecase, error) {
	info, err := model.LookupModel(cfg.DefaultModel)
	if err != nil {
		return nil, fmt.Errorf("invalid default model %q: %w", cfg.DefaultModel, err)
	}

	chats, err := deps.Storage.LoadChats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load chats: %w", err)
	}
	credential, err := deps.Storage.GetCredential(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	gen := store.NewIDGen()
	gen.SeedAfter(chats)

	settings := model.Settings{
		Model:       cfg.DefaultModel,
		Temperature: cfg.DefaultTemperature,
		MaxTokens:   cfg.DefaultMaxTokens,
	}.Clamped(info)

	return &SessionUsecase{
		SessionUsecaseDeps: deps,
		cfg:                cfg,
		chats:              chats,
		settings:           settings,
		credential:         credential,
		gen:                gen,
		wg:                 conc.NewWaitGroup(),
	}, nil
}

// Close waits for in-flight completions to resolve.
func (s *SessionUsecase) Close() {
	s.wg.Wait()
}

func (s *SessionUsecase) Subscribe(observer Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

func (s *SessionUsecase) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SessionUsecase) HasCredential() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential != ""
}

func (s *SessionUsecase) SetCredential(ctx context.Context, credential string) error {
	if credential == "" {
		return ErrCredentialMissing
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Storage.SetCredential(ctx, credential); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	s.credential = credential
	return nil
}

// Bootstrap creates and selects the first chat when the loaded store is
// empty; otherwise the session starts with no chat selected.
func (s *SessionUsecase) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.chats) > 0 {
		return nil
	}
	return s.createChatLocked(ctx)
}

func (s *SessionUsecase) NewChat(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.createChatLocked(ctx); err != nil {
		return "", err
	}
	return s.currentID, nil
}

func (s *SessionUsecase) createChatLocked(ctx context.Context) error {
	chats, chatID := store.CreateChat(s.chats, s.gen)
	previousID := s.currentID
	previousChats := s.chats
	s.chats = chats
	s.currentID = chatID
	if err := s.persistLocked(ctx); err != nil {
		s.chats = previousChats
		s.currentID = previousID
		return err
	}
	s.notifyLocked()
	return nil
}

func (s *SessionUsecase) SelectChat(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[chatID]; !ok {
		return store.ErrChatDoesNotExist
	}
	s.currentID = chatID
	s.notifyLocked()
	return nil
}

// DeleteChat removes the chat; deleting an unknown id is a no-op. When the
// active chat goes away the selection falls back to the first remaining
// chat, or to none.
func (s *SessionUsecase) DeleteChat(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats := store.DeleteChat(s.chats, chatID)
	currentID := s.currentID
	if currentID == chatID {
		currentID = ""
		if ids := chats.SortedIDs(); len(ids) > 0 {
			currentID = ids[0]
		}
	}

	previousChats := s.chats
	previousID := s.currentID
	s.chats = chats
	s.currentID = currentID
	if err := s.persistLocked(ctx); err != nil {
		s.chats = previousChats
		s.currentID = previousID
		return err
	}
	s.notifyLocked()
	return nil
}

type SettingsPatch struct {
	Model       *string
	Temperature *float32
	MaxTokens   *int
}

// ChangeSettings applies the patch and clamps max tokens to the selected
// model's ceiling, so switching to a smaller model pulls the limit down.
func (s *SessionUsecase) ChangeSettings(patch SettingsPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.settings
	if patch.Model != nil {
		if _, err := model.LookupModel(*patch.Model); err != nil {
			return err
		}
		settings.Model = *patch.Model
	}
	if patch.Temperature != nil {
		settings.Temperature = *patch.Temperature
	}
	if patch.MaxTokens != nil {
		settings.MaxTokens = *patch.MaxTokens
	}

	info, err := model.LookupModel(settings.Model)
	if err != nil {
		return err
	}
	s.settings = settings.Clamped(info)
	s.notifyLocked()
	return nil
}

// SendMessage is a two-phase transition. Phase 1 appends the user message,
// persists and notifies before any network traffic. Phase 2 resolves the
// completion asynchronously and appends the reply to the chat captured
// here, not to whichever chat is current when the reply lands. A failed
// completion is only logged; the user message stays in the log.
func (s *SessionUsecase) SendMessage(ctx context.Context, text string, images []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.credential == "" {
		return ErrCredentialMissing
	}
	if s.currentID == "" {
		return ErrNoActiveChat
	}
	info, err := model.LookupModel(s.settings.Model)
	if err != nil {
		return err
	}
	content, err := model.ComposeContent(text, images, info)
	if err != nil {
		return err
	}

	chats, err := store.AppendMessage(
		s.chats, s.currentID, model.Message{Role: model.RoleUser, Content: content},
	)
	if err != nil {
		return err
	}

	previousChats := s.chats
	s.chats = chats
	if err = s.persistLocked(ctx); err != nil {
		s.chats = previousChats
		return err
	}
	s.notifyLocked()

	chatID := s.currentID
	history := s.chats[chatID].CloneMessages()
	settings := s.settings
	credential := s.credential
	s.wg.Go(
		func() {
			s.resolveCompletion(chatID, history, settings, credential)
		},
	)
	return nil
}

func (s *SessionUsecase) resolveCompletion(
	chatID string, history []model.Message, settings model.Settings, credential string,
) {
	reply, err := s.OpenAI.Complete(context.Background(), history, settings, credential)
	if err != nil {
		log.Printf("failed to get completion for chat %s: %v", chatID, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := store.AppendMessage(s.chats, chatID, reply)
	if err != nil {
		if errors.Is(err, store.ErrChatDoesNotExist) {
			// The chat was deleted while the request was in flight.
			log.Printf("chat %s is gone, dropping late reply", chatID)
			return
		}
		log.Printf("failed to append reply to chat %s: %v", chatID, err)
		return
	}
	s.chats = chats
	if err = s.persistLocked(context.Background()); err != nil {
		log.Printf("failed to persist reply for chat %s: %v", chatID, err)
	}
	s.notifyLocked()
}

// Transcribe relays recorded audio through the transcription endpoint
// using the session credential.
func (s *SessionUsecase) Transcribe(ctx context.Context, audio io.Reader, fileName string) (string, error) {
	s.mu.Lock()
	credential := s.credential
	s.mu.Unlock()
	if credential == "" {
		return "", ErrCredentialMissing
	}
	return s.OpenAI.Transcribe(ctx, audio, fileName, credential)
}

// ContextTokens estimates how many tokens the active chat occupies.
func (s *SessionUsecase) ContextTokens() (int, error) {
	s.mu.Lock()
	if s.currentID == "" {
		s.mu.Unlock()
		return 0, ErrNoActiveChat
	}
	history := s.chats[s.currentID].CloneMessages()
	settings := s.settings
	s.mu.Unlock()

	return openai_tools.CountToken(toChatCompletionMessages(history), settings.Model)
}

func (s *SessionUsecase) persistLocked(ctx context.Context) error {
	if err := s.Storage.SaveChats(ctx, s.chats); err != nil {
		return fmt.Errorf("failed to save chats: %w", err)
	}
	return nil
}

func (s *SessionUsecase) notifyLocked() {
	snapshot := s.snapshotLocked()
	for _, observer := range s.observers {
		observer(snapshot)
	}
}

func (s *SessionUsecase) snapshotLocked() Snapshot {
	return Snapshot{
		Chats:         s.chats.Clone(),
		CurrentChatID: s.currentID,
		Settings:      s.settings,
	}
}
