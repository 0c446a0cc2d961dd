package mediatypes

import (
	"mime"
	"strings"

	"nyapix/internal/models"
)

// ImageTypes lists the accepted image MIME types.
var ImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/bmp":  true,
	"image/webp": true,
}

// VideoTypes lists the accepted video MIME types, including the aliases
// browsers and sniffers report for the same containers.
var VideoTypes = map[string]bool{
	"video/mp4":        true,
	"video/ogg":        true,
	"video/webm":       true,
	"video/mkv":        true,
	"video/x-matroska": true,
	"video/avi":        true,
	"video/x-msvideo":  true,
	"video/msvideo":    true,
}

// AudioTypes lists the accepted audio MIME types.
var AudioTypes = map[string]bool{
	"audio/mp3":      true,
	"audio/mpeg":     true,
	"audio/ogg":      true,
	"audio/wav":      true,
	"audio/x-wav":    true,
	"audio/wave":     true,
	"audio/vnd.wave": true,
}

// Extensions maps a MIME type to the extension stored objects get.
var Extensions = map[string]string{
	"image/png":        ".png",
	"image/jpeg":       ".jpg",
	"image/bmp":        ".bmp",
	"image/webp":       ".webp",
	"video/mp4":        ".mp4",
	"video/ogg":        ".ogv",
	"video/webm":       ".webm",
	"video/mkv":        ".mkv",
	"video/x-matroska": ".mkv",
	"video/avi":        ".avi",
	"video/x-msvideo":  ".avi",
	"video/msvideo":    ".avi",
	"audio/mp3":        ".mp3",
	"audio/mpeg":       ".mp3",
	"audio/ogg":        ".ogg",
	"audio/wav":        ".wav",
	"audio/x-wav":      ".wav",
	"audio/wave":       ".wav",
	"audio/vnd.wave":   ".wav",
}

// Normalize lowercases a MIME type and strips its parameters, so
// "Audio/Ogg; codecs=opus" becomes "audio/ogg".
func Normalize(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	mt, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// Classify returns the media kind for a MIME type. It reports false when the
// type is not accepted.
func Classify(mimeType string) (models.MediaKind, bool) {
	mt := Normalize(mimeType)
	switch {
	case ImageTypes[mt]:
		return models.MediaImage, true
	case VideoTypes[mt]:
		return models.MediaVideo, true
	case AudioTypes[mt]:
		return models.MediaAudio, true
	}
	return "", false
}

// Extension returns the object extension for a MIME type, or "" when the
// type is not accepted.
func Extension(mimeType string) string {
	return Extensions[Normalize(mimeType)]
}
