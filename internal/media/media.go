package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"nyapix/internal/mediatypes"
	"nyapix/internal/models"
)

var (
	// ErrUnsupportedType is returned for payloads that are not an accepted
	// image, video or audio format.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrStorageDisabled is returned when no object store is configured.
	ErrStorageDisabled = errors.New("media storage is disabled")
)

// sniffLen is how much of a payload is read to detect its type.
const sniffLen = 3072

// Detected describes a sniffed payload.
type Detected struct {
	MimeType  string
	Kind      models.MediaKind
	Extension string
}

// Sniff detects the type of the payload in r. The returned reader yields the
// full payload, sniffed bytes included.
func Sniff(r io.Reader) (Detected, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Detected{}, nil, fmt.Errorf("read payload: %w", err)
	}
	head = head[:n]

	full := io.MultiReader(bytes.NewReader(head), r)
	d, err := Classify(mimetype.Detect(head))
	return d, full, err
}

// Classify maps a detected MIME type, or one of its parents, to a media
// kind.
func Classify(m *mimetype.MIME) (Detected, error) {
	for ; m != nil; m = m.Parent() {
		candidates := append([]string{m.String()}, m.Aliases()...)
		for _, mt := range candidates {
			if kind, ok := mediatypes.Classify(mt); ok {
				mt = mediatypes.Normalize(mt)
				return Detected{MimeType: mt, Kind: kind, Extension: mediatypes.Extension(mt)}, nil
			}
		}
	}
	return Detected{}, ErrUnsupportedType
}

// ObjectKey returns a fresh bucket key for a payload of kind.
func ObjectKey(kind models.MediaKind, ext string) string {
	return fmt.Sprintf("%s/%s%s", kind, uuid.NewString(), ext)
}
