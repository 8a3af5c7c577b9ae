package usecase

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/VladimirMonin/go-chat/config"
	"github.com/VladimirMonin/go-chat/internal/model"
	"github.com/VladimirMonin/go-chat/pkg/local"
)

const (
	CommandHelp     = "/help"
	CommandNew      = "/new"
	CommandChats    = "/chats"
	CommandSelect   = "/select"
	CommandDelete   = "/delete"
	CommandModel    = "/model"
	CommandTemp     = "/temp"
	CommandTokens   = "/tokens"
	CommandImage    = "/image"
	CommandVoice    = "/voice"
	CommandCount    = "/count"
	CommandSettings = "/settings"
	CommandKey      = "/key"
	CommandQuit     = "/quit"
)

var (
	msgEnterAPIKey = local.NewSet(
		"Enter your API key:",
		local.NewTrans(local.Rus, "Введите ваш API ключ:"),
	)
	msgCreateChatFirst = local.NewSet(
		"Please create a new chat first",
		local.NewTrans(local.Rus, "Пожалуйста, создайте новый чат"),
	)
	msgModelNoImages = local.NewSet(
		"The current model does not support images",
		local.NewTrans(local.Rus, "Текущая модель не поддерживает работу с изображениями"),
	)
	msgServerError = local.NewSet(
		"Something went wrong. Try again",
		local.NewTrans(local.Rus, "Что-то пошло не так. Попробуйте ещё раз"),
	)
	msgUnknownChat = local.NewSet(
		"There is no chat with this id",
		local.NewTrans(local.Rus, "Чата с таким идентификатором нет"),
	)
	msgUnknownModel = local.NewSet(
		"Unknown model. Available: %s",
		local.NewTrans(local.Rus, "Неизвестная модель. Доступны: %s"),
	)
	msgTranscript = local.NewSet(
		"Transcript: %s",
		local.NewTrans(local.Rus, "Ответ от API: %s"),
	)
	msgImageAttached = local.NewSet(
		"Image attached (%d pending)",
		local.NewTrans(local.Rus, "Изображение прикреплено (в очереди: %d)"),
	)
	msgContextTokens = local.NewSet(
		"Context size: %d tokens",
		local.NewTrans(local.Rus, "Размер контекста: %d токенов"),
	)
	msgSettings = local.NewSet(
		"Model: %s, temperature: %v, max tokens: %d",
		local.NewTrans(local.Rus, "Модель: %s, температура: %v, макс. токенов: %d"),
	)
	roleUser = local.NewSet(
		"You",
		local.NewTrans(local.Rus, "Вы"),
	)
	roleAssistant = local.NewSet(
		"Assistant",
		local.NewTrans(local.Rus, "Ассистент"),
	)
	msgHelp = local.NewSet(
		"Commands: /new, /chats, /select <id>, /delete <id>, /model <id>, " +
			"/temp <value>, /tokens <n>, /image <path>, /voice <path>, " +
			"/count, /settings, /key <value>, /quit. Anything else is sent as a message.",
	)
)

type ConsoleUsecaseDeps struct {
	Session *SessionUsecase
}

// ConsoleUsecase translates console input into session transitions and
// renders snapshots back to the terminal.
type ConsoleUsecase struct {
	ConsoleUsecaseDeps
	cfg  config.Chat
	lang local.Language
	in   *bufio.Scanner
	out  io.Writer

	pendingImages []string
	pendingText   string
	printed       map[string]int
}

func NewConsoleUsecase(
	cfg config.Chat, deps ConsoleUsecaseDeps, in io.Reader, out io.Writer,
) *ConsoleUsecase {
	return &ConsoleUsecase{
		ConsoleUsecaseDeps: deps,
		cfg:                cfg,
		lang:               local.ParseLanguage(cfg.Language),
		in:                 bufio.NewScanner(in),
		out:                out,
		printed:            make(map[string]int),
	}
}

func (c *ConsoleUsecase) Run(ctx context.Context) error {
	if !c.Session.HasCredential() {
		c.println(msgEnterAPIKey.Text(c.lang))
		if !c.in.Scan() {
			return c.in.Err()
		}
		if err := c.Session.SetCredential(ctx, strings.TrimSpace(c.in.Text())); err != nil {
			return fmt.Errorf("failed to set credential: %w", err)
		}
	}

	c.Session.Subscribe(c.renderSnapshot)
	if err := c.Session.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap session: %w", err)
	}

	for c.in.Scan() {
		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}
		if line == CommandQuit {
			break
		}
		c.handleLine(ctx, line)
	}

	c.Session.Close()
	return c.in.Err()
}

func (c *ConsoleUsecase) handleLine(ctx context.Context, line string) {
	command, arg := splitCommand(line)
	switch command {
	case CommandHelp:
		c.println(msgHelp.Text(c.lang))
	case CommandNew:
		if _, err := c.Session.NewChat(ctx); err != nil {
			c.println(msgServerError.Text(c.lang))
		}
	case CommandChats:
		c.printChats()
	case CommandSelect:
		if err := c.Session.SelectChat(arg); err != nil {
			c.println(msgUnknownChat.Text(c.lang))
		}
	case CommandDelete:
		if err := c.Session.DeleteChat(ctx, arg); err != nil {
			c.println(msgServerError.Text(c.lang))
		}
	case CommandModel:
		c.changeSettings(SettingsPatch{Model: &arg})
	case CommandTemp:
		value, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			c.println(msgServerError.Text(c.lang))
			return
		}
		temperature := float32(value)
		c.changeSettings(SettingsPatch{Temperature: &temperature})
	case CommandTokens:
		value, err := strconv.Atoi(arg)
		if err != nil {
			c.println(msgServerError.Text(c.lang))
			return
		}
		c.changeSettings(SettingsPatch{MaxTokens: &value})
	case CommandImage:
		c.attachImage(arg)
	case CommandVoice:
		c.transcribeFile(ctx, arg)
	case CommandCount:
		count, err := c.Session.ContextTokens()
		if err != nil {
			c.println(msgCreateChatFirst.Text(c.lang))
			return
		}
		c.println(msgContextTokens.Format(c.lang, count))
	case CommandSettings:
		settings := c.Session.Snapshot().Settings
		c.println(msgSettings.Format(c.lang, settings.Model, settings.Temperature, settings.MaxTokens))
	case CommandKey:
		if err := c.Session.SetCredential(ctx, arg); err != nil {
			c.println(msgServerError.Text(c.lang))
		}
	default:
		c.sendMessage(ctx, line)
	}
}

func (c *ConsoleUsecase) sendMessage(ctx context.Context, line string) {
	text := line
	if c.pendingText != "" {
		text = c.pendingText + " " + line
	}
	err := c.Session.SendMessage(ctx, text, c.pendingImages)
	switch {
	case err == nil:
		c.pendingText = ""
		c.pendingImages = nil
	case errors.Is(err, ErrNoActiveChat):
		c.println(msgCreateChatFirst.Text(c.lang))
	case errors.Is(err, model.ErrEmptyMessage):
		// Nothing to send.
	case errors.Is(err, ErrCredentialMissing):
		c.println(msgEnterAPIKey.Text(c.lang))
	case errors.Is(err, model.ErrUnknownModel):
		c.println(msgUnknownModel.Format(c.lang, strings.Join(model.ModelIDs(), ", ")))
	default:
		c.println(msgServerError.Text(c.lang))
	}
}

func (c *ConsoleUsecase) changeSettings(patch SettingsPatch) {
	if err := c.Session.ChangeSettings(patch); err != nil {
		if errors.Is(err, model.ErrUnknownModel) {
			c.println(msgUnknownModel.Format(c.lang, strings.Join(model.ModelIDs(), ", ")))
			return
		}
		c.println(msgServerError.Text(c.lang))
	}
}

// attachImage refuses outright when the selected model cannot take images,
// mirroring how the attach button is gated in the browser build.
func (c *ConsoleUsecase) attachImage(path string) {
	settings := c.Session.Snapshot().Settings
	info, err := model.LookupModel(settings.Model)
	if err != nil || !info.SupportsImages {
		c.println(msgModelNoImages.Text(c.lang))
		return
	}
	dataURL, err := fileToDataURL(path)
	if err != nil {
		c.println(msgServerError.Text(c.lang))
		return
	}
	c.pendingImages = append(c.pendingImages, dataURL)
	c.println(msgImageAttached.Format(c.lang, len(c.pendingImages)))
}

func (c *ConsoleUsecase) transcribeFile(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		c.println(msgServerError.Text(c.lang))
		return
	}
	defer f.Close()

	transcript, err := c.Session.Transcribe(ctx, f, filepath.Base(path))
	if err != nil {
		c.println(msgServerError.Text(c.lang))
		return
	}
	c.println(msgTranscript.Format(c.lang, transcript))
	if c.pendingText != "" {
		c.pendingText += " "
	}
	c.pendingText += transcript
}

func (c *ConsoleUsecase) printChats() {
	snapshot := c.Session.Snapshot()
	for _, chatID := range snapshot.Chats.SortedIDs() {
		chat := snapshot.Chats[chatID]
		marker := " "
		if chatID == snapshot.CurrentChatID {
			marker = "*"
		}
		c.println(fmt.Sprintf("%s %s  %s (%d)", marker, chat.ID, chat.Title, len(chat.Messages)))
	}
}

// renderSnapshot prints messages of the current chat that have not been
// shown yet, keeping a printed watermark per chat so late replies to
// backgrounded chats appear when the user switches back.
func (c *ConsoleUsecase) renderSnapshot(snapshot Snapshot) {
	chat, ok := snapshot.Chats[snapshot.CurrentChatID]
	if !ok {
		return
	}
	from := c.printed[chat.ID]
	if from > len(chat.Messages) {
		from = 0
	}
	for _, message := range chat.Messages[from:] {
		prefix := roleUser.Text(c.lang)
		if message.Role == model.RoleAssistant {
			prefix = roleAssistant.Text(c.lang)
		}
		c.println(fmt.Sprintf("%s: %s", prefix, message.Content.Display()))
	}
	c.printed[chat.ID] = len(chat.Messages)
}

func (c *ConsoleUsecase) println(line string) {
	fmt.Fprintln(c.out, line)
}

func splitCommand(line string) (string, string) {
	if !strings.HasPrefix(line, "/") {
		return "", line
	}
	command, arg, _ := strings.Cut(line, " ")
	return command, strings.TrimSpace(arg)
}

func fileToDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", path, err)
	}
	mime := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		mime = "image/png"
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".gif":
		mime = "image/gif"
	case ".webp":
		mime = "image/webp"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}
