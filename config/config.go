package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type OpenAI struct {
	OpenAIBaseURL         string `yaml:"open_ai_base_url" env:"OPENAI_BASE_URL" env-default:"https://api.vsegpt.ru/v1"`
	AppTitle              string `yaml:"app_title" env:"APP_TITLE" env-default:"Chat Interface"`
	TranscriptionModel    string `yaml:"transcription_model" env:"TRANSCRIPTION_MODEL" env-default:"stt-openai/whisper-1"`
	TranscriptionLanguage string `yaml:"transcription_language" env:"TRANSCRIPTION_LANGUAGE" env-default:"ru"`
}

type Redis struct {
	Endpoint string `yaml:"endpoint" env:"REDIS_ENDPOINT" env-default:"localhost:6379"`
}

type Chat struct {
	DefaultModel       string  `yaml:"default_model" env:"DEFAULT_MODEL" env-default:"anthropic/claude-3-5-haiku"`
	DefaultTemperature float32 `yaml:"default_temperature" env:"DEFAULT_TEMPERATURE" env-default:"0.7"`
	DefaultMaxTokens   int     `yaml:"default_max_tokens" env:"DEFAULT_MAX_TOKENS" env-default:"3000"`
	Language           string  `yaml:"language" env:"CHAT_LANGUAGE" env-default:"ru"`
}

type Config struct {
	OpenAI OpenAI `yaml:"openai"`
	Redis  Redis  `yaml:"redis"`
	Chat   Chat   `yaml:"chat"`
}

func LoadConfig(cfgPath string) (*Config, error) {
	var cfg Config
	if _, err := os.Stat(cfgPath); err == nil {
		if err = cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
			return nil, err
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
