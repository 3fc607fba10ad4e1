package authapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shindakun/urlshort/internal/models"
)

// FallbackMessage is shown when a failure carries no usable text
const FallbackMessage = models.FallbackMessage

// maxMessageBytes bounds how much of an error body ends up in a notification
const maxMessageBytes = 512

// Failure is any unsuccessful login attempt: a transport error, a non-2xx
// status or a success status with an unreadable body.
type Failure struct {
	// StatusCode is 0 when no response was received
	StatusCode int
	// Message is the server-provided error text, possibly empty
	Message string
	// Err is the underlying cause, if any
	Err error
}

func (f *Failure) Error() string {
	switch {
	case f.StatusCode == 0 && f.Err != nil:
		return fmt.Sprintf("login request failed: %v", f.Err)
	case f.Err != nil:
		return fmt.Sprintf("login failed with status %d: %v", f.StatusCode, f.Err)
	case f.Message != "":
		return fmt.Sprintf("login failed with status %d: %s", f.StatusCode, f.Message)
	default:
		return fmt.Sprintf("login failed with status %d", f.StatusCode)
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// UserMessage is the text shown to the user for this failure
func (f *Failure) UserMessage() string {
	if f == nil || f.Message == "" {
		return FallbackMessage
	}
	return f.Message
}

// Unauthorized reports whether the server rejected the credentials
func (f *Failure) Unauthorized() bool {
	return f.StatusCode == http.StatusUnauthorized || f.StatusCode == http.StatusForbidden ||
		f.StatusCode == http.StatusNotFound || f.StatusCode == http.StatusBadRequest
}

// DecodeFailure turns a non-2xx response body into a Failure. The body may be
// a JSON string, a JSON object with a message/error/msg field, or plain text.
func DecodeFailure(status int, body []byte) *Failure {
	return &Failure{StatusCode: status, Message: decodeMessage(body)}
}

func decodeMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	if json.Valid(body) {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			switch t := v.(type) {
			case string:
				return clip(strings.TrimSpace(t))
			case map[string]any:
				for _, key := range []string{"message", "error", "msg"} {
					if s, ok := t[key].(string); ok && strings.TrimSpace(s) != "" {
						return clip(strings.TrimSpace(s))
					}
				}
				return ""
			case nil:
				return ""
			}
		}
	}

	return clip(string(body))
}

func clip(s string) string {
	if len(s) <= maxMessageBytes {
		return s
	}
	// Cut on a rune boundary
	cut := maxMessageBytes
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
