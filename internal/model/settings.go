package model

const (
	MinTemperature = float32(0)
	MaxTemperature = float32(2)
	MinMaxTokens   = 100
)

type Settings struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Clamped returns the settings forced into the valid range for the given
// model: temperature in [0, 2], max tokens in [100, model ceiling].
func (s Settings) Clamped(info ModelInfo) Settings {
	if s.Temperature < MinTemperature {
		s.Temperature = MinTemperature
	}
	if s.Temperature > MaxTemperature {
		s.Temperature = MaxTemperature
	}
	if s.MaxTokens < MinMaxTokens {
		s.MaxTokens = MinMaxTokens
	}
	if s.MaxTokens > info.MaxTokens {
		s.MaxTokens = info.MaxTokens
	}
	return s
}
