package constants

import "strings"

type (
	APIStatus  string
	UploadMode string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

const (
	// UploadModeFull archives a summary and replaces the whole roster.
	UploadModeFull UploadMode = "full"
	// UploadModeAppend adds only guests whose reservation code is new.
	UploadModeAppend UploadMode = "append"
)

func (m UploadMode) String() string { return string(m) }

// ParseUploadMode returns false for anything but full or append.
func ParseUploadMode(s string) (UploadMode, bool) {
	switch UploadMode(strings.ToLower(strings.TrimSpace(s))) {
	case UploadModeFull:
		return UploadModeFull, true
	case UploadModeAppend:
		return UploadModeAppend, true
	}
	return "", false
}

// Request headers
const (
	HeaderConsoleID = "X-Console-Id"
	HeaderRequestID = "X-Request-Id"
)

const (
	// ReplaceLockKey serializes full replacements across instances.
	ReplaceLockKey = "poolroster:lock:replace"
	// UsedAdminTokenPrefix marks consumed admin tokens.
	UsedAdminTokenPrefix = "poolroster:used_token:"
)
