package logger

import (
	"context"

	"github.com/google/uuid"
)

// MaxRequestIDLength caps ids accepted from callers.
const MaxRequestIDLength = 64

type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

// NewRequestIDContext stores requestID in ctx. An empty or malformed id is
// replaced with a generated one, so ids taken from request headers cannot
// inject arbitrary text into log entries.
func NewRequestIDContext(ctx context.Context, requestID string) context.Context {
	if !ValidRequestID(requestID) {
		requestID = GenerateRequestID()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request id stored in ctx.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// GenerateRequestID returns a random UUIDv4 string.
func GenerateRequestID() string {
	return uuid.NewString()
}

// ValidRequestID accepts 1 to MaxRequestIDLength letters, digits, '-', '_' or '.'.
func ValidRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		switch c := id[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
