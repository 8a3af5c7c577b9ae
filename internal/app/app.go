package app

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/VladimirMonin/go-chat/config"
	key_value "github.com/VladimirMonin/go-chat/internal/storage/key-value"
	"github.com/VladimirMonin/go-chat/internal/usecase"
)

func Run(cfg *config.Config) error {
	ctx := context.Background()

	rdb := redis.NewClient(
		&redis.Options{
			Addr: cfg.Redis.Endpoint,
		},
	)

	sessionStorage := key_value.NewSessionStorage(rdb)
	openAIUsecase := usecase.NewOpenAIUsecase(cfg.OpenAI)

	sessionUsecase, err := usecase.NewSessionUsecase(
		ctx, usecase.SessionUsecaseDeps{
			Storage: sessionStorage,
			OpenAI:  openAIUsecase,
		}, cfg.Chat,
	)
	if err != nil {
		return fmt.Errorf("failed to create session usecase: %w", err)
	}

	consoleUsecase := usecase.NewConsoleUsecase(
		cfg.Chat, usecase.ConsoleUsecaseDeps{
			Session: sessionUsecase,
		}, os.Stdin, os.Stdout,
	)

	return consoleUsecase.Run(ctx)
}
