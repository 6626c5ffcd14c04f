package vision

import "errors"

var (
	// ErrUnreadable marks files that could not be read or encoded.
	ErrUnreadable = errors.New("unreadable image")
	// ErrModelMissing marks a 404 from Ollama: the configured model has
	// not been pulled.
	ErrModelMissing = errors.New("model not available")
	// ErrUnavailable marks transport failures and non-404 error statuses
	// after retries are exhausted.
	ErrUnavailable = errors.New("service unavailable")
)
