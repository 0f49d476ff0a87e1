package validate

import (
	"fmt"
	"strings"
)

type Reason string

const (
	ReasonUnsupportedFormat Reason = "unsupported_format"
	ReasonSizeExceeded      Reason = "size_exceeded"
	ReasonMimeMismatch      Reason = "mime_mismatch"
)

type Error struct {
	Reason Reason
	Ext    string
	Size   int64
	Limit  int64
	// MIME type declared by the sender and the one inferred from the
	// extension, filled for ReasonMimeMismatch.
	Declared string
	Inferred string
}

func (e *Error) Error() string {
	switch e.Reason {
	case ReasonUnsupportedFormat:
		return fmt.Sprintf("unsupported format: %s", e.Ext)
	case ReasonSizeExceeded:
		return fmt.Sprintf("file too large: %d > %d", e.Size, e.Limit)
	case ReasonMimeMismatch:
		return fmt.Sprintf("mime type mismatch: expected %s, got %s", e.Declared, e.Inferred)
	default:
		return "validation failed"
	}
}

var extMime = map[string]string{
	"mp4": "video/mp4",
	"mkv": "video/x-matroska",
	"mov": "video/quicktime",
	"avi": "video/x-msvideo",
	"mp3": "audio/mpeg",
	"aac": "audio/aac",
	"wav": "audio/x-wav",
	"m4a": "audio/mp4",
	"ogg": "audio/ogg",
}

// Check validates a candidate file against the allowed format list and
// a size limit. Checks short-circuit in order: extension, size, MIME.
// A file exactly at the limit passes.
func Check(fileName string, fileSize int64, declaredMime string, allowed []string, limit int64) error {
	ext := ExtOf(fileName)
	if !contains(allowed, ext) {
		return &Error{Reason: ReasonUnsupportedFormat, Ext: ext}
	}

	if fileSize > limit {
		return &Error{Reason: ReasonSizeExceeded, Ext: ext, Size: fileSize, Limit: limit}
	}

	if declaredMime != "" {
		inferred := extMime[ext]
		if inferred != declaredMime {
			return &Error{Reason: ReasonMimeMismatch, Ext: ext, Declared: declaredMime, Inferred: inferred}
		}
	}

	return nil
}

// ExtOf returns the lowercased text after the final dot, or "" when the
// name has no extension.
func ExtOf(fileName string) string {
	idx := strings.LastIndexByte(fileName, '.')
	if idx < 0 || idx == len(fileName)-1 {
		return ""
	}
	return strings.ToLower(fileName[idx+1:])
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
