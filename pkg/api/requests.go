package api

import "strings"

// FetchModelsRequest is posted by the AI config page.
// The credential is passed through to the vendor as received.
type FetchModelsRequest struct {
	Provider string `json:"provider" binding:"required"`
	APIKey   string `json:"apiKey" binding:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type BindRequest struct {
	BindCode string `json:"bind_code" binding:"required,bindcode"`
}

const BindCodeLength = 4

// NormalizeBindCode drops everything but letters and digits and upper-cases the rest,
// the same way the pairing form treats pasted codes.
func NormalizeBindCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

type SelectDeviceRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
}

type AIConfig struct {
	Provider    string   `json:"provider,omitempty" binding:"omitempty,oneof=OPENAI ANTHROPIC GEMINI DEEPSEEK PERPLEXITY GROQ OPENROUTER"`
	Model       string   `json:"model,omitempty"`
	MaxChars    int      `json:"max_chars,omitempty" binding:"omitempty,min=1"`
	Temperature *float64 `json:"temperature,omitempty" binding:"omitempty,min=0,max=2"`
	APIKey      string   `json:"api_key,omitempty"`
}

// DeviceSettings mirrors the backend's settings payload. Every field but the device is optional.
type DeviceSettings struct {
	DeviceID      string    `json:"device_id"`
	PowerMode     string    `json:"power_mode,omitempty" binding:"omitempty,oneof=NORMAL LOW"`
	TextSize      string    `json:"text_size,omitempty" binding:"omitempty,oneof=SMALL NORMAL LARGE"`
	Keyboard      string    `json:"keyboard,omitempty" binding:"omitempty,oneof=QWERTY T9"`
	ScreenTimeout int       `json:"screen_timeout,omitempty" binding:"omitempty,min=0"`
	AIConfig      *AIConfig `json:"ai_config,omitempty"`
}

// AIConfigRequest is the AI config page's save form.
// MaxTokens is converted to an approximate character budget for the device.
type AIConfigRequest struct {
	DeviceID    string  `json:"device_id"`
	Provider    string  `json:"provider" binding:"required,oneof=OPENAI ANTHROPIC GEMINI DEEPSEEK PERPLEXITY GROQ OPENROUTER"`
	Model       string  `json:"model" binding:"required"`
	APIKey      string  `json:"api_key" binding:"required"`
	MaxTokens   int     `json:"max_tokens" binding:"required,min=1,max=2048"`
	Temperature float64 `json:"temperature" binding:"min=0,max=2"`
}

const CharsPerToken = 4

// Settings converts the form into the backend settings payload.
func (r AIConfigRequest) Settings() DeviceSettings {
	temp := r.Temperature
	return DeviceSettings{
		DeviceID: r.DeviceID,
		AIConfig: &AIConfig{
			Provider:    r.Provider,
			Model:       r.Model,
			MaxChars:    r.MaxTokens * CharsPerToken,
			Temperature: &temp,
			APIKey:      r.APIKey,
		},
	}
}

const (
	MaxMessageLength = 2500
	MaxFileChars     = 4000
)

type SendMessageRequest struct {
	DeviceID string `json:"device_id"`
	Content  string `json:"content" binding:"required,max=2500"`
}

type UploadFileRequest struct {
	DeviceID string `json:"device_id"`
	Content  string `json:"content" binding:"required,max=4000"`
}

type TriggerOTARequest struct {
	DeviceID   string `json:"device_id"`
	FirmwareID string `json:"firmware_id" binding:"required"`
}
