package domain

import (
	"mime"
	"path/filepath"
	"strings"
)

const DefaultAudioExtension = "wav"

var allowedAudioExtensions = map[string]string{
	"wav":  "audio/wav",
	"webm": "audio/webm",
	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
}

var mimeToExtension = map[string]string{
	"audio/wav":   "wav",
	"audio/wave":  "wav",
	"audio/x-wav": "wav",
	"audio/webm":  "webm",
	"audio/mpeg":  "mp3",
	"audio/mp3":   "mp3",
	"audio/ogg":   "ogg",
	"audio/mp4":   "m4a",
	"audio/x-m4a": "m4a",
	"audio/aac":   "aac",
}

// AudioExtension picks the stored extension for an upload: the filename's
// extension when allowed, else the one mapped from the declared MIME type,
// else wav.
func AudioExtension(filename, contentType string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := allowedAudioExtensions[ext]; ok {
		return ext
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if e, ok := mimeToExtension[strings.ToLower(mt)]; ok {
			return e
		}
	}
	return DefaultAudioExtension
}

// AudioContentType returns the MIME type to serve a stored file with.
func AudioContentType(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ct, ok := allowedAudioExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
