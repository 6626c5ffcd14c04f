package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	defaultConfigFile           = "~/.config/photoscan/config.toml"
	defaultAPIBind              = "127.0.0.1:7842"
	defaultVisionBaseURL        = "http://127.0.0.1:11434"
	defaultVisionModel          = "llama3.2-vision:latest"
	defaultVisionTimeoutSecs    = 60
	defaultVisionRetryAttempts  = 3
	defaultRecognizerBaseURL    = "http://127.0.0.1:8191"
	defaultRecognizerTimeout    = 20
	defaultRecognizerConfidence = 0.85
	defaultMatchThreshold       = 0.40
	defaultLogBufferLines       = 500
	defaultEnrichTimeoutSecs    = 90
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults. Directories
// resolve under the XDG base directories for the current user.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: filepath.Join(xdg.DataHome, "photoscan"),
			LogDir:  filepath.Join(xdg.DataHome, "photoscan", "logs"),
			APIBind: defaultAPIBind,
		},
		Vision: Vision{
			BaseURL:        defaultVisionBaseURL,
			Model:          defaultVisionModel,
			TimeoutSeconds: defaultVisionTimeoutSecs,
			RetryAttempts:  defaultVisionRetryAttempts,
		},
		Recognizer: Recognizer{
			BaseURL:        defaultRecognizerBaseURL,
			TimeoutSeconds: defaultRecognizerTimeout,
			MinConfidence:  defaultRecognizerConfidence,
		},
		Entities: Entities{
			MatchThreshold: defaultMatchThreshold,
		},
		Scanner: Scanner{
			Extensions:           []string{".jpg", ".jpeg", ".png", ".webp"},
			LogBufferLines:       defaultLogBufferLines,
			EnrichTimeoutSeconds: defaultEnrichTimeoutSecs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
