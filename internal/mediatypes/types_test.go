package mediatypes

import (
	"testing"

	"nyapix/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		mime   string
		want   models.MediaKind
		wantOK bool
	}{
		{name: "PNG image", mime: "image/png", want: models.MediaImage, wantOK: true},
		{name: "JPEG image", mime: "image/jpeg", want: models.MediaImage, wantOK: true},
		{name: "WebP image", mime: "image/webp", want: models.MediaImage, wantOK: true},
		{name: "MP4 video", mime: "video/mp4", want: models.MediaVideo, wantOK: true},
		{name: "Matroska video", mime: "video/x-matroska", want: models.MediaVideo, wantOK: true},
		{name: "AVI video", mime: "video/x-msvideo", want: models.MediaVideo, wantOK: true},
		{name: "Ogg video", mime: "video/ogg", want: models.MediaVideo, wantOK: true},
		{name: "MP3 audio", mime: "audio/mpeg", want: models.MediaAudio, wantOK: true},
		{name: "Ogg audio with codec", mime: "audio/ogg; codecs=opus", want: models.MediaAudio, wantOK: true},
		{name: "WAV audio", mime: "audio/wav", want: models.MediaAudio, wantOK: true},
		{name: "Uppercase type", mime: "IMAGE/PNG", want: models.MediaImage, wantOK: true},
		{name: "GIF is not accepted", mime: "image/gif", wantOK: false},
		{name: "Plain text", mime: "text/plain", wantOK: false},
		{name: "Empty", mime: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.mime)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Classify(%q) = %q, %v; want %q, %v", tt.mime, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/jpeg", ".jpg"},
		{"video/x-matroska", ".mkv"},
		{"audio/mpeg", ".mp3"},
		{"application/pdf", ""},
	}
	for _, tt := range tests {
		if got := Extension(tt.mime); got != tt.want {
			t.Errorf("Extension(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}

func TestEveryAcceptedTypeHasExtension(t *testing.T) {
	for _, table := range []map[string]bool{ImageTypes, VideoTypes, AudioTypes} {
		for mt := range table {
			if Extensions[mt] == "" {
				t.Errorf("no extension for accepted type %q", mt)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"image/png", "image/png"},
		{"Audio/Ogg; codecs=opus", "audio/ogg"},
		{" video/mp4 ", "video/mp4"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
